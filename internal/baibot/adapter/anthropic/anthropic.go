// Package anthropic provides the Anthropic adapter family. It serves
// text-generation only; the other purposes have no Anthropic endpoint.
package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/convo"
)

// defaultMaxTokens is used when the configuration does not set a response
// budget. The Anthropic API makes max_tokens mandatory.
const defaultMaxTokens = 4096

// Adapter implements adapter.Controller against the Anthropic Messages API.
type Adapter struct {
	adapter.ConfigGetters

	cfg    *adapter.Config
	client anthropic.Client
}

// New constructs the Anthropic adapter from a validated configuration.
func New(cfg *adapter.Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: api_key must not be empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{
		ConfigGetters: adapter.ConfigGetters{Cfg: cfg},
		cfg:           cfg,
		client:        anthropic.NewClient(opts...),
	}, nil
}

// Supports implements adapter.Controller. Only text-generation is served
// regardless of what extra sections the configuration might carry.
func (a *Adapter) Supports(purpose agent.Purpose) bool {
	return purpose == agent.PurposeTextGeneration && a.cfg.TextGeneration != nil
}

// Ping implements adapter.Controller. Provider errors pass through untouched
// so callers see the raw message.
func (a *Adapter) Ping(ctx context.Context) (adapter.PingResult, error) {
	tg := a.cfg.TextGeneration
	if tg == nil {
		return adapter.PingInconclusive, nil
	}
	_, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(tg.ModelID),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
		MaxTokens: 1,
	})
	if err != nil {
		return 0, err
	}
	return adapter.PingSuccessful, nil
}

// GenerateText implements adapter.Controller.
//
// The Messages API rejects consecutive messages with the same role, so the
// conversation is combined first. A leading assistant message (the bot spoke
// first, e.g. the room intro) is preceded by a placeholder user turn.
func (a *Adapter) GenerateText(ctx context.Context, conversation convo.Conversation, params adapter.TextGenerationParams) (string, error) {
	tg := a.cfg.TextGeneration
	if tg == nil {
		return "", adapter.Unsupported(agent.PurposeTextGeneration)
	}

	prompt := a.cfg.EffectivePrompt(params)
	messages := conversation.Messages
	if params.ContextManagementEnabled && tg.MaxContextTokens > 0 {
		shortened, err := convo.Shorten(tg.ModelID, prompt, messages, tg.MaxResponseTokens, tg.MaxContextTokens)
		if err != nil {
			return "", fmt.Errorf("anthropic: shorten context: %w", err)
		}
		messages = shortened
	}
	messages = convo.CombineConsecutive(messages)

	maxTokens := tg.MaxResponseTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(tg.ModelID),
		Messages:  buildMessages(messages),
		MaxTokens: int64(maxTokens),
	}
	if prompt != "" {
		req.System = []anthropic.TextBlockParam{{Text: prompt}}
	}
	if temp, ok := a.cfg.EffectiveTemperature(params); ok {
		req.Temperature = anthropic.Float(temp)
	}

	resp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic: message creation: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}
	return text.String(), nil
}

func buildMessages(msgs []convo.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs)+1)
	for i, m := range msgs {
		if m.Author == convo.AuthorAssistant {
			if i == 0 {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock("...")))
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
			continue
		}
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Images)+1)
		if m.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Text))
		}
		for _, img := range m.Images {
			blocks = append(blocks, anthropic.NewImageBlockBase64(img.Mime, base64.StdEncoding.EncodeToString(img.Data)))
		}
		if len(blocks) == 0 {
			blocks = append(blocks, anthropic.NewTextBlock("..."))
		}
		out = append(out, anthropic.NewUserMessage(blocks...))
	}
	return out
}

// SpeechToText implements adapter.Controller.
func (a *Adapter) SpeechToText(context.Context, string, []byte, adapter.SpeechToTextParams) (string, error) {
	return "", adapter.Unsupported(agent.PurposeSpeechToText)
}

// TextToSpeech implements adapter.Controller.
func (a *Adapter) TextToSpeech(context.Context, string, adapter.TextToSpeechParams) (*adapter.GeneratedSpeech, error) {
	return nil, adapter.Unsupported(agent.PurposeTextToSpeech)
}

// GenerateImage implements adapter.Controller.
func (a *Adapter) GenerateImage(context.Context, string, adapter.ImageGenerationParams) (*adapter.GeneratedImage, error) {
	return nil, adapter.Unsupported(agent.PurposeImageGeneration)
}

// EditImage implements adapter.Controller.
func (a *Adapter) EditImage(context.Context, string, []adapter.SourceImage, adapter.ImageGenerationParams) (*adapter.GeneratedImage, error) {
	return nil, adapter.Unsupported(agent.PurposeImageGeneration)
}
