package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/common/mxidwc"
	"github.com/etkecc/baibot/common/redact"
	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/config"
	"github.com/etkecc/baibot/internal/baibot/controller"
	"github.com/etkecc/baibot/internal/baibot/matrix"
	"github.com/etkecc/baibot/internal/baibot/registry"
)

const usageReportWindow = 30 * 24 * time.Hour

// replyOptions threads the reply when the trigger lives in a thread and
// falls back to a plain reply otherwise.
func replyOptions(mctx controller.MessageContext, notice bool) matrix.SendOptions {
	if !mctx.IsTopLevel {
		return matrix.SendOptions{Notice: notice, ThreadRoot: mctx.Thread.Root, LastInThread: mctx.EventID}
	}
	return matrix.SendOptions{Notice: notice, ReplyTo: mctx.EventID}
}

func (b *Bot) sendMarkdownReply(ctx context.Context, mctx controller.MessageContext, notice bool, markdown string) {
	if _, err := b.messenger.SendMarkdown(ctx, mctx.RoomID, markdown, replyOptions(mctx, notice)); err != nil {
		slog.Warn("sending the reply failed", "room", mctx.RoomID, "error", err)
	}
}

func (b *Bot) sendError(ctx context.Context, mctx controller.MessageContext, msg string) {
	b.sendMarkdownReply(ctx, mctx, true, "❌ "+msg)
}

func (b *Bot) sendWarning(ctx context.Context, mctx controller.MessageContext, msg string) {
	b.sendMarkdownReply(ctx, mctx, true, "⚠️ "+msg)
}

func (b *Bot) sendThreadError(ctx context.Context, roomID id.RoomID, thread controller.ThreadInfo, msg string) {
	opts := matrix.SendOptions{Notice: true, ThreadRoot: thread.Root, LastInThread: thread.Latest}
	if _, err := b.messenger.SendMarkdown(ctx, roomID, "❌ "+msg, opts); err != nil {
		slog.Warn("sending the error notice failed", "room", roomID, "error", err)
	}
}

func (b *Bot) introduction() string {
	p := b.cfg.CommandPrefix
	return strings.Join([]string{
		"Hello! 👋 I'm a bot that can chat, transcribe voice messages, speak replies, and generate images.",
		"",
		"Send `" + p + " help` to see what I can do.",
	}, "\n")
}

func (b *Bot) sendHelp(ctx context.Context, mctx controller.MessageContext) {
	p := b.cfg.CommandPrefix
	help := strings.Join([]string{
		"## Commands",
		"",
		"- `" + p + " help` — this message",
		"- `" + p + " usage` — provider-call statistics for this room",
		"- `" + p + " provider` — the supported providers",
		"- `" + p + " agent …` — manage agents (`list`, `details <id>`, `create-room-local <provider> <id>`, `create-global <provider> <id>`, `delete <id>`)",
		"- `" + p + " access …` — manage who may use the bot (`users`, `set-users <patterns…>`, `room-local-agent-managers`, `set-room-local-agent-managers <patterns…>`)",
		"- `" + p + " config …` — inspect and change settings (`status`, `(room|global) handler`, `(room|global) set-handler <purpose> <agent-id|unset>`, `(room|global) <area> (get|set|unset)-<setting> [value]`)",
		"- `" + p + " image create <prompt>` / `" + p + " image edit <prompt>` — generate or edit images",
		"- `" + p + " sticker <prompt>` — generate a sticker",
		"",
		"Any other `" + p + "`-prefixed message starts a chat completion.",
	}, "\n")
	b.sendMarkdownReply(ctx, mctx, true, help)
}

func (b *Bot) usageHelp() string {
	return "I don't understand that command. Send `" + b.cfg.CommandPrefix + " help` for the command list."
}

func (b *Bot) sendProviderHelp(ctx context.Context, mctx controller.MessageContext) {
	var sb strings.Builder
	sb.WriteString("## Providers\n\n")
	for _, p := range agent.KnownProviders {
		seed := adapter.DefaultConfig(p)
		capabilities := make([]string, 0, 4)
		for _, purpose := range agent.KnownPurposes {
			if purpose != agent.PurposeCatchAll && seed.Supports(purpose) {
				capabilities = append(capabilities, string(purpose))
			}
		}
		sb.WriteString("- `" + string(p) + "` — " + strings.Join(capabilities, ", ") + "\n")
	}
	sb.WriteString("\nCreate an agent with `" + b.cfg.CommandPrefix + " agent create-room-local <provider> <id>`.")
	b.sendMarkdownReply(ctx, mctx, true, sb.String())
}

func (b *Bot) runUsageCommand(ctx context.Context, mctx controller.MessageContext) {
	if b.usage == nil {
		b.sendWarning(ctx, mctx, "usage accounting is not enabled")
		return
	}
	summaries, err := b.usage.RoomUsage(ctx, string(mctx.RoomID), time.Now().Add(-usageReportWindow))
	if err != nil {
		b.sendError(ctx, mctx, "reading the usage report failed: "+err.Error())
		return
	}
	if len(summaries) == 0 {
		b.sendMarkdownReply(ctx, mctx, true, "No provider calls were recorded in this room during the last 30 days.")
		return
	}
	var sb strings.Builder
	sb.WriteString("## Usage (last 30 days)\n\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("- %s via `%s`: %d calls\n", s.Purpose, s.AgentID, s.Count))
	}
	b.sendMarkdownReply(ctx, mctx, true, sb.String())
}

func (b *Bot) runAccessCommand(ctx context.Context, mctx controller.MessageContext, cmd *controller.AccessCommand) {
	if !mctx.SenderIsAdmin {
		b.sendWarning(ctx, mctx, "only administrators may manage access")
		return
	}
	global, err := b.globals.Get(ctx)
	if err != nil {
		b.sendError(ctx, mctx, "loading the global configuration failed: "+err.Error())
		return
	}

	switch cmd.Action {
	case controller.AccessUsers:
		b.sendMarkdownReply(ctx, mctx, true, renderPatternList("Allowed users", global.Access.UserPatterns))
	case controller.AccessManagers:
		b.sendMarkdownReply(ctx, mctx, true, renderPatternList("Room-local agent managers", global.Access.RoomLocalAgentManagerPatterns))
	case controller.AccessSetUsers, controller.AccessSetManagers:
		if _, err := mxidwc.ParseAll(cmd.Patterns); err != nil {
			b.sendError(ctx, mctx, "invalid pattern: "+err.Error())
			return
		}
		err := b.globals.Update(ctx, func(g *config.GlobalConfig) error {
			if cmd.Action == controller.AccessSetUsers {
				g.Access.UserPatterns = cmd.Patterns
			} else {
				g.Access.RoomLocalAgentManagerPatterns = cmd.Patterns
			}
			return nil
		})
		if err != nil {
			b.sendError(ctx, mctx, "persisting the access lists failed: "+err.Error())
			return
		}
		b.sendMarkdownReply(ctx, mctx, true, "✅ Access patterns updated.")
	}
}

func renderPatternList(title string, patterns []string) string {
	if len(patterns) == 0 {
		return title + ": none configured."
	}
	var sb strings.Builder
	sb.WriteString(title + ":\n")
	for _, p := range patterns {
		sb.WriteString("- `" + p + "`\n")
	}
	return sb.String()
}

func (b *Bot) runAgentCommand(ctx context.Context, mctx controller.MessageContext, cmd *controller.AgentCommand) {
	env, err := b.roomEnv(ctx, mctx.RoomID)
	if err != nil {
		b.sendError(ctx, mctx, "loading the room environment failed: "+err.Error())
		return
	}

	switch cmd.Action {
	case controller.AgentList:
		b.sendMarkdownReply(ctx, mctx, true, renderAgentList(env.instances))

	case controller.AgentDetails:
		agentID, err := agent.ParseIdentifier(cmd.ID)
		if err != nil {
			b.sendError(ctx, mctx, err.Error())
			return
		}
		inst, ok := registry.Find(env.instances, agentID)
		if !ok {
			b.sendError(ctx, mctx, "there is no agent "+agentID.String())
			return
		}
		b.sendMarkdownReply(ctx, mctx, true, renderAgentDetails(inst))

	case controller.AgentCreateRoomLocal:
		if !mctx.SenderCanManageRoomLocalAgents {
			b.sendWarning(ctx, mctx, "you are not allowed to manage room-local agents")
			return
		}
		b.createAgent(ctx, mctx, env, agent.KindRoomLocal, cmd)

	case controller.AgentCreateGlobal:
		if !mctx.SenderIsAdmin {
			b.sendWarning(ctx, mctx, "only administrators may manage global agents")
			return
		}
		b.createAgent(ctx, mctx, env, agent.KindGlobal, cmd)

	case controller.AgentDelete:
		b.deleteAgent(ctx, mctx, cmd.ID)
	}
}

func renderAgentList(instances []registry.Instance) string {
	if len(instances) == 0 {
		return "No agents are configured."
	}
	var sb strings.Builder
	sb.WriteString("## Agents\n\n")
	for _, inst := range instances {
		sb.WriteString("- `" + inst.ID.String() + "` (" + string(inst.Definition.Provider) + ")\n")
	}
	return sb.String()
}

func renderAgentDetails(inst registry.Instance) string {
	capabilities := make([]string, 0, 4)
	for _, purpose := range agent.KnownPurposes {
		if purpose != agent.PurposeCatchAll && inst.Controller.Supports(purpose) {
			capabilities = append(capabilities, string(purpose))
		}
	}

	configYAML, err := yaml.Marshal(redact.Map(inst.Definition.Config))
	if err != nil {
		configYAML = []byte("(unrenderable)\n")
	}

	return strings.Join([]string{
		"## " + inst.ID.String(),
		"",
		"Provider: `" + string(inst.Definition.Provider) + "`",
		"Capabilities: " + strings.Join(capabilities, ", "),
		"",
		"```yaml",
		strings.TrimRight(string(configYAML), "\n"),
		"```",
	}, "\n")
}

// seedConfigMap renders a provider's default configuration as the free-form
// mapping a definition carries.
func seedConfigMap(provider agent.Provider) (map[string]any, error) {
	raw, err := yaml.Marshal(adapter.DefaultConfig(provider))
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	// The operator fills the key in afterwards; an empty string keeps the
	// field visible in the rendered configuration.
	if _, ok := out["api_key"]; !ok {
		out["api_key"] = ""
	}
	return out, nil
}

func (b *Bot) createAgent(ctx context.Context, mctx controller.MessageContext, env *roomEnv, kind agent.IdentifierKind, cmd *controller.AgentCommand) {
	if err := agent.ValidateName(cmd.ID); err != nil {
		b.sendError(ctx, mctx, err.Error())
		return
	}
	target := agent.PublicIdentifier{Kind: kind, Name: cmd.ID}
	if _, exists := registry.Find(env.instances, target); exists {
		b.sendError(ctx, mctx, "the agent "+target.String()+" already exists")
		return
	}
	seed, err := seedConfigMap(cmd.Provider)
	if err != nil {
		b.sendError(ctx, mctx, "building the default configuration failed: "+err.Error())
		return
	}
	def := agent.Definition{ID: cmd.ID, Provider: cmd.Provider, Config: seed}

	if kind == agent.KindRoomLocal {
		err = b.rooms.Update(ctx, string(mctx.RoomID), func(rc *config.RoomConfig) error {
			rc.Agents = append(rc.Agents, def)
			return nil
		})
	} else {
		err = b.globals.Update(ctx, func(g *config.GlobalConfig) error {
			g.Agents = append(g.Agents, def)
			return nil
		})
	}
	if err != nil {
		b.sendError(ctx, mctx, "persisting the agent failed: "+err.Error())
		return
	}
	b.sendMarkdownReply(ctx, mctx, true, strings.Join([]string{
		"✅ Created `" + target.String() + "` with the " + string(cmd.Provider) + " defaults.",
		"",
		"Fill in the `api_key` (and adjust the models) in its configuration, then point a handler at it with `" + b.cfg.CommandPrefix + " config room set-handler catch-all " + target.String() + "`.",
	}, "\n"))
}

func (b *Bot) deleteAgent(ctx context.Context, mctx controller.MessageContext, rawID string) {
	agentID, err := agent.ParseIdentifier(rawID)
	if err != nil {
		b.sendError(ctx, mctx, err.Error())
		return
	}
	switch agentID.Kind {
	case agent.KindStatic:
		b.sendError(ctx, mctx, "static agents are defined in the configuration file and cannot be deleted from chat")
		return
	case agent.KindRoomLocal:
		if !mctx.SenderCanManageRoomLocalAgents {
			b.sendWarning(ctx, mctx, "you are not allowed to manage room-local agents")
			return
		}
		err = b.rooms.Update(ctx, string(mctx.RoomID), func(rc *config.RoomConfig) error {
			next, removed := removeDefinition(rc.Agents, agentID.Name)
			if !removed {
				return fmt.Errorf("there is no agent %s", agentID)
			}
			rc.Agents = next
			return nil
		})
	case agent.KindGlobal:
		if !mctx.SenderIsAdmin {
			b.sendWarning(ctx, mctx, "only administrators may manage global agents")
			return
		}
		err = b.globals.Update(ctx, func(g *config.GlobalConfig) error {
			next, removed := removeDefinition(g.Agents, agentID.Name)
			if !removed {
				return fmt.Errorf("there is no agent %s", agentID)
			}
			g.Agents = next
			return nil
		})
	}
	if err != nil {
		b.sendError(ctx, mctx, err.Error())
		return
	}
	b.sendMarkdownReply(ctx, mctx, true, "✅ Deleted `"+agentID.String()+"`.")
}

func removeDefinition(defs []agent.Definition, name string) ([]agent.Definition, bool) {
	out := make([]agent.Definition, 0, len(defs))
	removed := false
	for _, def := range defs {
		if def.ID == name {
			removed = true
			continue
		}
		out = append(out, def)
	}
	return out, removed
}

func (b *Bot) runConfigCommand(ctx context.Context, mctx controller.MessageContext, cmd *controller.ConfigCommand) {
	env, err := b.roomEnv(ctx, mctx.RoomID)
	if err != nil {
		b.sendError(ctx, mctx, "loading the room environment failed: "+err.Error())
		return
	}

	switch cmd.Kind {
	case controller.ConfigStatus:
		b.sendMarkdownReply(ctx, mctx, true, renderStatus(env))
	case controller.ConfigHandler:
		b.sendMarkdownReply(ctx, mctx, true, renderHandlerMap(cmd.Scope, scopeSettings(env, cmd.Scope).Handler))
	case controller.ConfigSetHandler:
		b.setHandler(ctx, mctx, cmd)
	case controller.ConfigSetting:
		b.runConfigSetting(ctx, mctx, env, cmd)
	}
}

func scopeSettings(env *roomEnv, scope controller.ConfigScope) *config.Settings {
	if scope == controller.ScopeRoom {
		return &env.room.Settings
	}
	return &env.global.FallbackRoomSettings
}

func renderHandlerMap(scope controller.ConfigScope, handlers config.HandlerMap) string {
	var sb strings.Builder
	sb.WriteString("## Handlers (" + string(scope) + ")\n\n")
	for _, purpose := range agent.KnownPurposes {
		entry := "unset"
		if h := handlers.ForPurpose(purpose); h != nil {
			entry = "`" + *h + "`"
		}
		sb.WriteString("- " + string(purpose) + ": " + entry + "\n")
	}
	return sb.String()
}

func renderStatus(env *roomEnv) string {
	line := func(name, value string, source config.Source) string {
		return "- " + name + ": `" + value + "` (" + string(source) + ")\n"
	}
	optLine := func(name string, value *string, source config.Source) string {
		if value == nil {
			return "- " + name + ": unset\n"
		}
		return line(name, *value, source)
	}

	var sb strings.Builder
	sb.WriteString("## Configuration status\n\n")

	sb.WriteString("### Handlers\n\n")
	for _, purpose := range agent.KnownPurposes {
		entry := "unset"
		source := ""
		if h := env.cfgCtx.RoomHandler(purpose); h != nil {
			entry, source = "`"+*h+"`", " (room)"
		} else if h := env.cfgCtx.GlobalHandler(purpose); h != nil {
			entry, source = "`"+*h+"`", " (global)"
		}
		sb.WriteString("- " + string(purpose) + ": " + entry + source + "\n")
	}

	sb.WriteString("\n### Text generation\n\n")
	ctxMgmt, src := env.cfgCtx.ContextManagementEnabled()
	sb.WriteString(line("context-management-enabled", strconv.FormatBool(ctxMgmt), src))
	prefixReq, src := env.cfgCtx.PrefixRequirementType()
	sb.WriteString(line("prefix-requirement-type", string(prefixReq), src))
	autoUsage, src := env.cfgCtx.AutoUsage()
	sb.WriteString(line("auto-usage", string(autoUsage), src))
	prompt, src := env.cfgCtx.PromptOverride()
	sb.WriteString(optLine("prompt-override", prompt, src))
	temp, src := env.cfgCtx.TemperatureOverride()
	sb.WriteString(optLine("temperature-override", formatFloatPtr(temp), src))

	sb.WriteString("\n### Speech to text\n\n")
	sttFlow, src := env.cfgCtx.SpeechToTextFlowType()
	sb.WriteString(line("flow-type", string(sttFlow), src))
	lang, src := env.cfgCtx.SpeechToTextLanguage()
	sb.WriteString(optLine("language", lang, src))
	msgType, src := env.cfgCtx.TranscriptMessageType()
	sb.WriteString(line("msg-type-for-non-threaded-only-transcribed-messages", string(msgType), src))

	sb.WriteString("\n### Text to speech\n\n")
	botFlow, src := env.cfgCtx.TextToSpeechBotMessagesFlowType()
	sb.WriteString(line("bot-msgs-flow-type", string(botFlow), src))
	userFlow, src := env.cfgCtx.TextToSpeechUserMessagesFlowType()
	sb.WriteString(line("user-msgs-flow-type", string(userFlow), src))
	speed, src := env.cfgCtx.TextToSpeechSpeedOverride()
	sb.WriteString(optLine("speed-override", formatFloatPtr(speed), src))
	voice, src := env.cfgCtx.TextToSpeechVoiceOverride()
	sb.WriteString(optLine("voice-override", voice, src))

	return sb.String()
}

func formatFloatPtr(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'g', -1, 64)
	return &s
}

func (b *Bot) setHandler(ctx context.Context, mctx controller.MessageContext, cmd *controller.ConfigCommand) {
	if !mctx.SenderIsAdmin {
		b.sendWarning(ctx, mctx, "only administrators may change handlers")
		return
	}
	if cmd.HandlerID != nil && cmd.Scope == controller.ScopeGlobal {
		agentID, err := agent.ParseIdentifier(*cmd.HandlerID)
		if err != nil {
			b.sendError(ctx, mctx, err.Error())
			return
		}
		if agentID.IsRoomLocal() {
			b.sendError(ctx, mctx, "a global handler cannot point at a room-local agent")
			return
		}
	}

	var err error
	if cmd.Scope == controller.ScopeRoom {
		err = b.rooms.Update(ctx, string(mctx.RoomID), func(rc *config.RoomConfig) error {
			rc.Settings.Handler.SetForPurpose(cmd.Purpose, cmd.HandlerID)
			return nil
		})
	} else {
		err = b.globals.Update(ctx, func(g *config.GlobalConfig) error {
			g.FallbackRoomSettings.Handler.SetForPurpose(cmd.Purpose, cmd.HandlerID)
			return nil
		})
	}
	if err != nil {
		b.sendError(ctx, mctx, "persisting the handler failed: "+err.Error())
		return
	}
	if cmd.HandlerID == nil {
		b.sendMarkdownReply(ctx, mctx, true, "✅ Unset the "+string(cmd.Purpose)+" handler ("+string(cmd.Scope)+").")
		return
	}
	b.sendMarkdownReply(ctx, mctx, true, "✅ Set the "+string(cmd.Purpose)+" handler to `"+*cmd.HandlerID+"` ("+string(cmd.Scope)+").")
}

func (b *Bot) runConfigSetting(ctx context.Context, mctx controller.MessageContext, env *roomEnv, cmd *controller.ConfigCommand) {
	if cmd.Action == controller.ActionGet {
		value, source := effectiveSetting(env.cfgCtx, cmd.Area, cmd.Setting)
		b.sendMarkdownReply(ctx, mctx, true, "`"+cmd.Setting+"` is "+value+" ("+string(source)+").")
		return
	}

	if !mctx.SenderIsAdmin {
		b.sendWarning(ctx, mctx, "only administrators may change settings")
		return
	}

	var err error
	if cmd.Scope == controller.ScopeRoom {
		err = b.rooms.Update(ctx, string(mctx.RoomID), func(rc *config.RoomConfig) error {
			return applySetting(&rc.Settings, cmd.Area, cmd.Setting, cmd.Action, cmd.Value)
		})
	} else {
		err = b.globals.Update(ctx, func(g *config.GlobalConfig) error {
			return applySetting(&g.FallbackRoomSettings, cmd.Area, cmd.Setting, cmd.Action, cmd.Value)
		})
	}
	if err != nil {
		b.sendError(ctx, mctx, err.Error())
		return
	}
	if cmd.Action == controller.ActionUnset {
		b.sendMarkdownReply(ctx, mctx, true, "✅ Unset `"+cmd.Setting+"` ("+string(cmd.Scope)+").")
		return
	}
	b.sendMarkdownReply(ctx, mctx, true, "✅ Set `"+cmd.Setting+"` to `"+cmd.Value+"` ("+string(cmd.Scope)+").")
}

// effectiveSetting renders the layered value of one setting for the get
// triplet and the status command.
func effectiveSetting(cfgCtx config.RoomConfigContext, area controller.ConfigArea, setting string) (string, config.Source) {
	render := func(v string, src config.Source) (string, config.Source) { return "`" + v + "`", src }
	renderOpt := func(v *string, src config.Source) (string, config.Source) {
		if v == nil {
			return "unset", src
		}
		return "`" + *v + "`", src
	}

	switch area {
	case controller.AreaTextGeneration:
		switch setting {
		case "context-management-enabled":
			v, src := cfgCtx.ContextManagementEnabled()
			return render(strconv.FormatBool(v), src)
		case "prefix-requirement-type":
			v, src := cfgCtx.PrefixRequirementType()
			return render(string(v), src)
		case "auto-usage":
			v, src := cfgCtx.AutoUsage()
			return render(string(v), src)
		case "prompt-override":
			v, src := cfgCtx.PromptOverride()
			return renderOpt(v, src)
		case "temperature-override":
			v, src := cfgCtx.TemperatureOverride()
			return renderOpt(formatFloatPtr(v), src)
		}
	case controller.AreaSpeechToText:
		switch setting {
		case "flow-type":
			v, src := cfgCtx.SpeechToTextFlowType()
			return render(string(v), src)
		case "language":
			v, src := cfgCtx.SpeechToTextLanguage()
			return renderOpt(v, src)
		case "msg-type-for-non-threaded-only-transcribed-messages":
			v, src := cfgCtx.TranscriptMessageType()
			return render(string(v), src)
		}
	case controller.AreaTextToSpeech:
		switch setting {
		case "bot-msgs-flow-type":
			v, src := cfgCtx.TextToSpeechBotMessagesFlowType()
			return render(string(v), src)
		case "user-msgs-flow-type":
			v, src := cfgCtx.TextToSpeechUserMessagesFlowType()
			return render(string(v), src)
		case "speed-override":
			v, src := cfgCtx.TextToSpeechSpeedOverride()
			return renderOpt(formatFloatPtr(v), src)
		case "voice-override":
			v, src := cfgCtx.TextToSpeechVoiceOverride()
			return renderOpt(v, src)
		}
	}
	return "unknown", config.SourceDefault
}

// applySetting mutates one layer's overlay for the set and unset triplets.
// The router already validated the area and setting names.
func applySetting(s *config.Settings, area controller.ConfigArea, setting string, action controller.ConfigAction, value string) error {
	unset := action == controller.ActionUnset

	switch area {
	case controller.AreaTextGeneration:
		switch setting {
		case "context-management-enabled":
			return assignBool(&s.TextGeneration.ContextManagementEnabled, unset, value)
		case "prefix-requirement-type":
			return assignParsed(&s.TextGeneration.PrefixRequirementType, unset, value, config.ParsePrefixRequirementType)
		case "auto-usage":
			return assignParsed(&s.TextGeneration.AutoUsage, unset, value, config.ParseAutoUsage)
		case "prompt-override":
			assignString(&s.TextGeneration.PromptOverride, unset, value)
			return nil
		case "temperature-override":
			return assignFloat(&s.TextGeneration.TemperatureOverride, unset, value)
		}
	case controller.AreaSpeechToText:
		switch setting {
		case "flow-type":
			return assignParsed(&s.SpeechToText.FlowType, unset, value, config.ParseSpeechToTextFlowType)
		case "language":
			assignString(&s.SpeechToText.Language, unset, value)
			return nil
		case "msg-type-for-non-threaded-only-transcribed-messages":
			return assignParsed(&s.SpeechToText.MessageTypeForNonThreadedTranscripts, unset, value, config.ParseTranscriptMessageType)
		}
	case controller.AreaTextToSpeech:
		switch setting {
		case "bot-msgs-flow-type":
			return assignParsed(&s.TextToSpeech.BotMessagesFlowType, unset, value, config.ParseTextToSpeechFlowType)
		case "user-msgs-flow-type":
			return assignParsed(&s.TextToSpeech.UserMessagesFlowType, unset, value, config.ParseTextToSpeechFlowType)
		case "speed-override":
			return assignFloat(&s.TextToSpeech.SpeedOverride, unset, value)
		case "voice-override":
			assignString(&s.TextToSpeech.VoiceOverride, unset, value)
			return nil
		}
	}
	return fmt.Errorf("unknown %s setting %q", area, setting)
}

func assignBool(target **bool, unset bool, value string) error {
	if unset {
		*target = nil
		return nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%q is not a boolean", value)
	}
	*target = &v
	return nil
}

func assignFloat(target **float64, unset bool, value string) error {
	if unset {
		*target = nil
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", value)
	}
	*target = &v
	return nil
}

func assignString(target **string, unset bool, value string) {
	if unset {
		*target = nil
		return
	}
	*target = &value
}

func assignParsed[T any](target **T, unset bool, value string, parse func(string) (T, error)) error {
	if unset {
		*target = nil
		return nil
	}
	v, err := parse(value)
	if err != nil {
		return err
	}
	*target = &v
	return nil
}
