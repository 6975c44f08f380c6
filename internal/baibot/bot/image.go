package bot

import (
	"context"
	"log/slog"
	"strings"

	"maunium.net/go/mautrix/event"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/controller"
	"github.com/etkecc/baibot/internal/baibot/matrix"
	"github.com/etkecc/baibot/internal/baibot/registry"
)

const (
	stickerSize = "256x256"
	// regenerateToken in a generation thread repeats the last prompt instead
	// of extending it.
	regenerateToken = "again"
	// editFireToken in an edit thread triggers the edit call.
	editFireToken = "go"
)

const imageHowToHint = "Reply in this thread to refine the prompt, or send `again` to regenerate with the same one."

const imageEditHowToHint = "Upload one or more images in this thread, describe the changes you want, and send `go` when ready."

// runImageGeneration serves both the image and the sticker command.
// Images open (or extend) a threaded conversation; stickers reply at the
// top level with the cheaper-model and cheaper-quality switches enabled.
func (b *Bot) runImageGeneration(ctx context.Context, mctx controller.MessageContext, prompt string, sticker bool) {
	env, err := b.roomEnv(ctx, mctx.RoomID)
	if err != nil {
		slog.Error("loading the room environment failed", "room", mctx.RoomID, "error", err)
		return
	}
	res, err := registry.Resolve(env.instances, env.cfgCtx, agent.PurposeImageGeneration)
	if err != nil {
		b.sendError(ctx, mctx, "image generation failed: "+err.Error())
		return
	}

	params := adapter.ImageGenerationParams{}
	if sticker {
		size := stickerSize
		params = adapter.ImageGenerationParams{
			Size:                    &size,
			CheaperModelSwitching:   true,
			CheaperQualitySwitching: true,
		}
	}

	firstGeneration := true
	if !sticker && !mctx.IsTopLevel {
		composite, alreadyGenerated, err := b.compositePrompt(ctx, mctx, prompt)
		if err != nil {
			b.sendError(ctx, mctx, "reading the image thread failed: "+err.Error())
			return
		}
		prompt = composite
		firstGeneration = !alreadyGenerated
	}

	b.messenger.Typing(ctx, mctx.RoomID, true, typingTimeout)
	defer b.messenger.Typing(ctx, mctx.RoomID, false, 0)

	image, err := res.Instance.Controller.GenerateImage(ctx, prompt, params)
	if err != nil {
		b.sendError(ctx, mctx, "image generation failed: "+err.Error())
		return
	}
	b.recordUsage(ctx, mctx, string(agent.PurposeImageGeneration), res)

	if sticker {
		// Stickers reply at the top level, outside any thread.
		opts := matrix.SendOptions{ReplyTo: mctx.EventID}
		if _, err := b.messenger.SendImage(ctx, mctx.RoomID, image.Data, image.Mime, prompt, true, opts); err != nil {
			slog.Error("sending the sticker failed", "room", mctx.RoomID, "error", err)
		}
		return
	}

	opts := matrix.SendOptions{ThreadRoot: mctx.Thread.Root, LastInThread: mctx.EventID}
	if _, err := b.messenger.SendImage(ctx, mctx.RoomID, image.Data, image.Mime, prompt, false, opts); err != nil {
		slog.Error("sending the generated image failed", "room", mctx.RoomID, "error", err)
		return
	}
	if firstGeneration {
		hint := imageHowToHint
		if image.RevisedPrompt != "" {
			hint = "The prompt was revised to: " + image.RevisedPrompt + "\n\n" + hint
		}
		opts.Notice = true
		if _, err := b.messenger.SendMarkdown(ctx, mctx.RoomID, hint, opts); err != nil {
			slog.Warn("posting the image hint failed", "room", mctx.RoomID, "error", err)
		}
	}
}

// compositePrompt extends the original prompt with the later user-authored
// text messages of the generation thread, skipping the regenerate token.
// The second return value reports whether the bot already posted an image
// in the thread.
func (b *Bot) compositePrompt(ctx context.Context, mctx controller.MessageContext, prompt string) (string, bool, error) {
	events, err := b.messenger.ThreadMessages(ctx, mctx.RoomID, mctx.Thread.Root)
	if err != nil {
		return "", false, err
	}
	parts := []string{prompt}
	alreadyGenerated := false
	for _, evt := range events {
		if evt.ID == mctx.Thread.Root {
			continue
		}
		msg := evt.Content.AsMessage()
		if msg == nil {
			continue
		}
		if evt.Sender == b.messenger.UserID() {
			if msg.MsgType == event.MsgImage {
				alreadyGenerated = true
			}
			continue
		}
		if msg.MsgType != event.MsgText {
			continue
		}
		body := strings.TrimSpace(msg.Body)
		if body == "" || strings.EqualFold(body, regenerateToken) {
			continue
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n"), alreadyGenerated, nil
}

// runImageEdit accumulates images and criteria in a thread and fires the
// edit call when the user sends the literal trigger token.
func (b *Bot) runImageEdit(ctx context.Context, mctx controller.MessageContext, prompt string) {
	if mctx.IsTopLevel {
		opts := matrix.SendOptions{Notice: true, ThreadRoot: mctx.EventID}
		if _, err := b.messenger.SendMarkdown(ctx, mctx.RoomID, imageEditHowToHint, opts); err != nil {
			slog.Warn("posting the image-edit hint failed", "room", mctx.RoomID, "error", err)
		}
		return
	}
	if !strings.EqualFold(strings.TrimSpace(mctx.Payload.Body), editFireToken) {
		// Still accumulating images and criteria.
		return
	}

	env, err := b.roomEnv(ctx, mctx.RoomID)
	if err != nil {
		slog.Error("loading the room environment failed", "room", mctx.RoomID, "error", err)
		return
	}
	res, err := registry.Resolve(env.instances, env.cfgCtx, agent.PurposeImageGeneration)
	if err != nil {
		b.sendError(ctx, mctx, "image editing failed: "+err.Error())
		return
	}

	images, criteria, err := b.collectEditInputs(ctx, mctx)
	if err != nil {
		b.sendError(ctx, mctx, "reading the edit thread failed: "+err.Error())
		return
	}
	if len(images) == 0 {
		b.sendError(ctx, mctx, "upload at least one image before sending `"+editFireToken+"`")
		return
	}
	fullPrompt := prompt
	if len(criteria) > 0 {
		fullPrompt = prompt + "\n" + strings.Join(criteria, "\n")
	}

	b.messenger.Typing(ctx, mctx.RoomID, true, typingTimeout)
	defer b.messenger.Typing(ctx, mctx.RoomID, false, 0)

	image, err := res.Instance.Controller.EditImage(ctx, fullPrompt, images, adapter.ImageGenerationParams{})
	if err != nil {
		b.sendError(ctx, mctx, "image editing failed: "+err.Error())
		return
	}
	b.recordUsage(ctx, mctx, string(agent.PurposeImageGeneration), res)

	opts := matrix.SendOptions{ThreadRoot: mctx.Thread.Root, LastInThread: mctx.EventID}
	if _, err := b.messenger.SendImage(ctx, mctx.RoomID, image.Data, image.Mime, fullPrompt, false, opts); err != nil {
		slog.Error("sending the edited image failed", "room", mctx.RoomID, "error", err)
	}
}

// collectEditInputs gathers the user-uploaded images and the extra text
// criteria from the edit thread.
func (b *Bot) collectEditInputs(ctx context.Context, mctx controller.MessageContext) ([]adapter.SourceImage, []string, error) {
	events, err := b.messenger.ThreadMessages(ctx, mctx.RoomID, mctx.Thread.Root)
	if err != nil {
		return nil, nil, err
	}
	var images []adapter.SourceImage
	var criteria []string
	for _, evt := range events {
		if evt.ID == mctx.Thread.Root || evt.Sender == b.messenger.UserID() {
			continue
		}
		msg := evt.Content.AsMessage()
		if msg == nil {
			continue
		}
		switch msg.MsgType {
		case event.MsgImage:
			data, err := b.messenger.DownloadMedia(ctx, msg.URL)
			if err != nil {
				slog.Warn("downloading an edit-source image failed", "room", mctx.RoomID, "error", err)
				continue
			}
			images = append(images, adapter.SourceImage{Data: data, Mime: mimeOf(msg)})
		case event.MsgText:
			body := strings.TrimSpace(msg.Body)
			if body != "" && !strings.EqualFold(body, editFireToken) {
				criteria = append(criteria, body)
			}
		}
	}
	return images, criteria, nil
}
