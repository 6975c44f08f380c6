package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/common/trace"
	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/config"
	"github.com/etkecc/baibot/internal/baibot/controller"
	"github.com/etkecc/baibot/internal/baibot/convo"
	"github.com/etkecc/baibot/internal/baibot/matrix"
	"github.com/etkecc/baibot/internal/baibot/registry"
)

const typingTimeout = 30 * time.Second

// execute runs a routed non-completion action. Chat completions arrive here
// only via the aggregator's dispatch.
func (b *Bot) execute(ctx context.Context, mctx controller.MessageContext, v controller.Variant) {
	switch v.Kind {
	case controller.KindHelp:
		b.sendHelp(ctx, mctx)
	case controller.KindUsageHelp, controller.KindUnknown:
		b.sendMarkdownReply(ctx, mctx, true, b.usageHelp())
	case controller.KindError:
		b.sendError(ctx, mctx, v.Error)
	case controller.KindErrorInThread:
		b.sendThreadError(ctx, mctx.RoomID, *v.ErrorThread, v.Error)
	case controller.KindProviderHelp:
		b.sendProviderHelp(ctx, mctx)
	case controller.KindAccess:
		b.runAccessCommand(ctx, mctx, v.Access)
	case controller.KindAgent:
		b.runAgentCommand(ctx, mctx, v.Agent)
	case controller.KindConfig:
		b.runConfigCommand(ctx, mctx, v.Config)
	case controller.KindUsage:
		b.runUsageCommand(ctx, mctx)
	case controller.KindChatCompletion:
		b.runChatCompletion(ctx, mctx, v)
	case controller.KindImageGeneration:
		b.runImageGeneration(ctx, mctx, v.Prompt, false)
	case controller.KindStickerGeneration:
		b.runImageGeneration(ctx, mctx, v.Prompt, true)
	case controller.KindImageEdit:
		b.runImageEdit(ctx, mctx, v.Prompt)
	}
}

// runChatCompletion is the main pipeline: transcription for audio,
// the auto-usage decision, text generation, and the downstream TTS outcome.
func (b *Bot) runChatCompletion(ctx context.Context, mctx controller.MessageContext, v controller.Variant) {
	slog.Debug("handling chat completion", "room", mctx.RoomID, "event", mctx.EventID, "trace_id", trace.FromContext(ctx))

	env, err := b.roomEnv(ctx, mctx.RoomID)
	if err != nil {
		slog.Error("loading the room environment failed", "room", mctx.RoomID, "error", err)
		return
	}

	wasAudio := v.Trigger == controller.TriggerAudio
	if wasAudio {
		flow, _ := env.cfgCtx.SpeechToTextFlowType()
		if flow == config.SpeechToTextFlowIgnore {
			return
		}
		if !b.transcribeAndPost(ctx, mctx, env, flow) {
			return
		}
		if flow == config.SpeechToTextFlowOnlyTranscribe {
			return
		}
	}

	autoUsage, _ := env.cfgCtx.AutoUsage()
	generate := false
	switch autoUsage {
	case config.AutoUsageAlways:
		generate = true
	case config.AutoUsageOnlyForVoice:
		generate = wasAudio
	case config.AutoUsageOnlyForText:
		generate = !wasAudio
	}
	if generate {
		b.generateReply(ctx, mctx, env)
	}

	if !wasAudio && mctx.Payload.Kind == controller.PayloadText {
		flow, _ := env.cfgCtx.TextToSpeechUserMessagesFlowType()
		b.applyTTSOutcome(ctx, mctx, env, flow, mctx.EventID, mctx.Payload.Body)
	}
}

// transcribeAndPost resolves a speech-to-text agent, transcribes the voice
// message, and posts the transcript. Returns false when the pipeline should
// stop.
func (b *Bot) transcribeAndPost(ctx context.Context, mctx controller.MessageContext, env *roomEnv, flow config.SpeechToTextFlowType) bool {
	res, err := registry.Resolve(env.instances, env.cfgCtx, agent.PurposeSpeechToText)
	if err != nil {
		b.sendError(ctx, mctx, "transcribing failed: "+err.Error())
		return false
	}

	reactionID, err := b.messenger.React(ctx, mctx.RoomID, mctx.EventID, transcribingEmoji)
	if err != nil {
		slog.Warn("posting the transcription reaction failed", "room", mctx.RoomID, "error", err)
	}
	defer func() {
		if reactionID == "" {
			return
		}
		if err := b.messenger.Redact(ctx, mctx.RoomID, reactionID, "Done transcribing"); err != nil {
			slog.Warn("redacting the transcription reaction failed", "room", mctx.RoomID, "error", err)
		}
	}()

	media, err := b.messenger.DownloadMedia(ctx, mctx.Payload.MediaURL)
	if err != nil {
		b.sendError(ctx, mctx, "downloading the voice message failed: "+err.Error())
		return false
	}
	var params adapter.SpeechToTextParams
	if lang, _ := env.cfgCtx.SpeechToTextLanguage(); lang != nil {
		params.Language = *lang
	}
	text, err := res.Instance.Controller.SpeechToText(ctx, mctx.Payload.Mime, media, params)
	if err != nil {
		b.sendError(ctx, mctx, "transcribing failed: "+err.Error())
		return false
	}
	b.recordUsage(ctx, mctx, string(agent.PurposeSpeechToText), res)

	opts := matrix.SendOptions{Notice: true}
	switch {
	case !mctx.IsTopLevel:
		opts.ThreadRoot = mctx.Thread.Root
		opts.LastInThread = mctx.EventID
	case flow == config.SpeechToTextFlowOnlyTranscribe:
		// Top-level, transcript-only voice messages reply at the root with
		// the configured message type.
		opts.ReplyTo = mctx.EventID
		if msgType, _ := env.cfgCtx.TranscriptMessageType(); msgType == config.TranscriptMessageTypeText {
			opts.Notice = false
		}
	default:
		opts.ThreadRoot = mctx.EventID
	}
	if _, err := b.messenger.SendMarkdown(ctx, mctx.RoomID, convo.FormatTranscription(text), opts); err != nil {
		slog.Warn("posting the transcript failed", "room", mctx.RoomID, "error", err)
		return false
	}
	return true
}

// generateReply resolves a text-generation agent, assembles the thread
// conversation, and posts the generated reply in-thread.
func (b *Bot) generateReply(ctx context.Context, mctx controller.MessageContext, env *roomEnv) {
	res, err := registry.Resolve(env.instances, env.cfgCtx, agent.PurposeTextGeneration)
	if err != nil {
		b.sendError(ctx, mctx, "text generation failed: "+err.Error())
		return
	}

	conversation, err := b.assembleConversation(ctx, mctx, env)
	if err != nil {
		b.sendError(ctx, mctx, "assembling the conversation failed: "+err.Error())
		return
	}

	b.messenger.Typing(ctx, mctx.RoomID, true, typingTimeout)
	defer b.messenger.Typing(ctx, mctx.RoomID, false, 0)

	ctxMgmt, _ := env.cfgCtx.ContextManagementEnabled()
	promptOverride, _ := env.cfgCtx.PromptOverride()
	tempOverride, _ := env.cfgCtx.TemperatureOverride()
	params := adapter.TextGenerationParams{
		ContextManagementEnabled: ctxMgmt,
		PromptOverride:           promptOverride,
		TemperatureOverride:      tempOverride,
		PromptVariables:          b.promptVariables(ctx, res, conversation),
	}

	reply, err := res.Instance.Controller.GenerateText(ctx, conversation, params)
	if err != nil {
		b.sendError(ctx, mctx, "text generation failed: "+err.Error())
		return
	}
	if strings.TrimSpace(reply) == "" {
		b.sendError(ctx, mctx, "the agent returned an empty response")
		return
	}
	b.recordUsage(ctx, mctx, string(agent.PurposeTextGeneration), res)

	replyID, err := b.messenger.SendMarkdown(ctx, mctx.RoomID, reply, matrix.SendOptions{
		ThreadRoot:   mctx.Thread.Root,
		LastInThread: mctx.EventID,
	})
	if err != nil {
		slog.Error("sending the reply failed", "room", mctx.RoomID, "error", err)
		return
	}

	flow, _ := env.cfgCtx.TextToSpeechBotMessagesFlowType()
	b.applyTTSOutcome(ctx, mctx, env, flow, replyID, reply)
}

// assembleConversation fetches the thread and converts it to the
// provider-neutral form.
func (b *Bot) assembleConversation(ctx context.Context, mctx controller.MessageContext, env *roomEnv) (convo.Conversation, error) {
	events, err := b.messenger.ThreadMessages(ctx, mctx.RoomID, mctx.Thread.Root)
	if err != nil {
		return convo.Conversation{}, err
	}
	raw := make([]convo.RawMessage, 0, len(events))
	for _, evt := range events {
		if rm, ok := rawMessage(evt); ok {
			raw = append(raw, rm)
		}
	}
	allowed, err := b.checker.AllowedSenderPatterns(env.global)
	if err != nil {
		return convo.Conversation{}, err
	}
	messages := convo.Assemble(ctx, raw, convo.AssembleParams{
		BotUserID:       string(b.messenger.UserID()),
		AllowedSenders:  allowed,
		PrefixesToStrip: []string{b.cfg.CommandPrefix},
		FetchMedia: func(ctx context.Context, mediaURL string) ([]byte, error) {
			return b.messenger.DownloadMedia(ctx, id.ContentURIString(mediaURL))
		},
	})
	return convo.Conversation{Messages: messages}, nil
}

const promptTimeFormat = "2006-01-02 15:04:05 UTC"

// promptVariables computes the placeholder values substituted into the
// system prompt at send time.
func (b *Bot) promptVariables(ctx context.Context, res *registry.Resolution, conversation convo.Conversation) map[string]string {
	now := time.Now().UTC()
	vars := map[string]string{
		"baibot_name":    "baibot",
		"baibot_now_utc": now.Format(promptTimeFormat),
	}
	if name, err := b.messenger.DisplayName(ctx, b.messenger.UserID()); err == nil && name != "" {
		vars["baibot_name"] = name
	}
	if modelID, ok := res.Instance.Controller.TextGenerationModelID(); ok {
		vars["baibot_model_id"] = modelID
	}
	start := conversation.StartTime()
	if start.IsZero() {
		start = now
	}
	vars["baibot_conversation_start_time_utc"] = start.UTC().Format(promptTimeFormat)
	return vars
}

// applyTTSOutcome maps a flow type to its outcome for one payload: nothing,
// an offer reaction, or an immediate spoken rendition.
func (b *Bot) applyTTSOutcome(ctx context.Context, mctx controller.MessageContext, env *roomEnv, flow config.TextToSpeechFlowType, target id.EventID, text string) {
	switch flow {
	case config.TextToSpeechFlowNever:
		return
	case config.TextToSpeechFlowOnDemand:
		// The offer only appears when an agent could actually serve it.
		if _, err := registry.Resolve(env.instances, env.cfgCtx, agent.PurposeTextToSpeech); err != nil {
			return
		}
		if _, err := b.messenger.React(ctx, mctx.RoomID, target, speakEmoji); err != nil {
			slog.Warn("posting the text-to-speech offer failed", "room", mctx.RoomID, "error", err)
		}
	case config.TextToSpeechFlowAlways:
		b.speak(ctx, mctx, env, target, text)
	}
}

// speak synthesizes the text and posts the audio as a reply to the target.
func (b *Bot) speak(ctx context.Context, mctx controller.MessageContext, env *roomEnv, target id.EventID, text string) {
	res, err := registry.Resolve(env.instances, env.cfgCtx, agent.PurposeTextToSpeech)
	if err != nil {
		slog.Warn("no text-to-speech agent available", "room", mctx.RoomID, "error", err)
		return
	}
	speed, _ := env.cfgCtx.TextToSpeechSpeedOverride()
	voice, _ := env.cfgCtx.TextToSpeechVoiceOverride()
	speech, err := res.Instance.Controller.TextToSpeech(ctx, text, adapter.TextToSpeechParams{Speed: speed, Voice: voice})
	if err != nil {
		b.sendError(ctx, mctx, "speech synthesis failed: "+err.Error())
		return
	}
	b.recordUsage(ctx, mctx, string(agent.PurposeTextToSpeech), res)

	opts := matrix.SendOptions{ReplyTo: target}
	if mctx.Thread.IsThreaded() || target != mctx.EventID {
		opts = matrix.SendOptions{ThreadRoot: mctx.Thread.Root, LastInThread: target}
	}
	if _, err := b.messenger.SendAudio(ctx, mctx.RoomID, speech.Data, speech.Mime, "generated-speech", opts); err != nil {
		slog.Warn("sending the spoken rendition failed", "room", mctx.RoomID, "error", err)
	}
}

// performReactionTTS serves a 🗣️ reaction: it speaks the reacted-to message
// when the relevant flow type allows it.
func (b *Bot) performReactionTTS(ctx context.Context, roomID id.RoomID, target id.EventID, sender id.UserID) {
	env, err := b.roomEnv(ctx, roomID)
	if err != nil {
		slog.Error("loading the room environment failed", "room", roomID, "error", err)
		return
	}
	evt, err := b.messenger.FetchEvent(ctx, roomID, target)
	if err != nil {
		slog.Warn("fetching the reacted-to event failed", "room", roomID, "event", target, "error", err)
		return
	}
	payload, ok := payloadOf(evt)
	if !ok || (payload.Kind != controller.PayloadText && payload.Kind != controller.PayloadNotice) {
		return
	}

	var flow config.TextToSpeechFlowType
	if evt.Sender == b.messenger.UserID() {
		flow, _ = env.cfgCtx.TextToSpeechBotMessagesFlowType()
	} else {
		flow, _ = env.cfgCtx.TextToSpeechUserMessagesFlowType()
	}
	if flow == config.TextToSpeechFlowNever {
		return
	}

	mctx := controller.MessageContext{
		RoomID:  roomID,
		Sender:  sender,
		EventID: target,
		Thread:  threadOfEvent(evt, target),
	}
	b.speak(ctx, mctx, env, target, payload.Body)
}

func threadOfEvent(evt *event.Event, target id.EventID) controller.ThreadInfo {
	if rel := messageRelation(evt); rel != nil && rel.Type == event.RelThread {
		return controller.ThreadInfo{Root: rel.EventID, Latest: target}
	}
	return controller.ThreadInfo{Root: target, Latest: target}
}
