// Package openai provides the strict adapter family: a direct mapping to
// the canonical OpenAI API, including vision input, transcription, speech
// synthesis, and image generation/editing.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/convo"
)

// Adapter implements adapter.Controller against the canonical OpenAI API.
type Adapter struct {
	adapter.ConfigGetters

	cfg    *adapter.Config
	client oai.Client
}

// New constructs the strict adapter from a validated configuration.
func New(cfg *adapter.Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api_key must not be empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{
		ConfigGetters: adapter.ConfigGetters{Cfg: cfg},
		cfg:           cfg,
		client:        oai.NewClient(opts...),
	}, nil
}

// Supports implements adapter.Controller.
func (a *Adapter) Supports(purpose agent.Purpose) bool {
	return a.cfg.Supports(purpose)
}

// Ping implements adapter.Controller. A minimal chat completion is used as
// the check, so the result is inconclusive without text-generation config.
// Provider errors pass through untouched so callers see the raw message.
func (a *Adapter) Ping(ctx context.Context) (adapter.PingResult, error) {
	if a.cfg.TextGeneration == nil {
		return adapter.PingInconclusive, nil
	}
	_, err := a.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:               shared.ChatModel(a.cfg.TextGeneration.ModelID),
		Messages:            []oai.ChatCompletionMessageParamUnion{oai.UserMessage("ping")},
		MaxCompletionTokens: oai.Int(1),
	})
	if err != nil {
		return 0, err
	}
	return adapter.PingSuccessful, nil
}

// GenerateText implements adapter.Controller.
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
			return "", fmt.Errorf("openai: shorten context: %w", err)
		}
		messages = shortened
	}

	req := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(tg.ModelID),
		Messages: buildMessages(prompt, messages),
	}
	if temp, ok := a.cfg.EffectiveTemperature(params); ok {
		req.Temperature = oai.Float(temp)
	}
	if tg.MaxResponseTokens > 0 {
		req.MaxCompletionTokens = oai.Int(int64(tg.MaxResponseTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages converts the provider-neutral conversation to request
// messages. Images ride along as base64 data URLs (vision input).
func buildMessages(prompt string, msgs []convo.Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if prompt != "" {
		out = append(out, oai.SystemMessage(prompt))
	}
	for _, m := range msgs {
		if m.Author == convo.AuthorAssistant {
			out = append(out, oai.AssistantMessage(m.Text))
			continue
		}
		if m.IsTextOnly() {
			out = append(out, oai.UserMessage(m.Text))
			continue
		}
		parts := make([]oai.ChatCompletionContentPartUnionParam, 0, len(m.Images)+1)
		if m.Text != "" {
			parts = append(parts, oai.TextContentPart(m.Text))
		}
		for _, img := range m.Images {
			parts = append(parts, oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL(img.Mime, img.Data),
			}))
		}
		out = append(out, oai.UserMessage(parts))
	}
	return out
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// SpeechToText implements adapter.Controller.
func (a *Adapter) SpeechToText(ctx context.Context, mime string, media []byte, params adapter.SpeechToTextParams) (string, error) {
	stt := a.cfg.SpeechToText
	if stt == nil {
		return "", adapter.Unsupported(agent.PurposeSpeechToText)
	}
	req := oai.AudioTranscriptionNewParams{
		Model: oai.AudioModel(stt.ModelID),
		File:  oai.File(bytes.NewReader(media), fileNameForMime(mime), mime),
	}
	if params.Language != "" {
		req.Language = oai.String(params.Language)
	}
	resp, err := a.client.Audio.Transcriptions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: transcription: %w", err)
	}
	return resp.Text, nil
}

// TextToSpeech implements adapter.Controller.
func (a *Adapter) TextToSpeech(ctx context.Context, text string, params adapter.TextToSpeechParams) (*adapter.GeneratedSpeech, error) {
	tts := a.cfg.TextToSpeech
	if tts == nil {
		return nil, adapter.Unsupported(agent.PurposeTextToSpeech)
	}

	voice := tts.Voice
	if params.Voice != nil {
		voice = *params.Voice
	}
	req := oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(tts.ModelID),
		Input:          text,
		Voice:          oai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if params.Speed != nil {
		req.Speed = oai.Float(*params.Speed)
	} else if tts.Speed != nil {
		req.Speed = oai.Float(*tts.Speed)
	}

	resp, err := a.client.Audio.Speech.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: speech synthesis: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read speech body: %w", err)
	}
	return &adapter.GeneratedSpeech{Data: data, Mime: "audio/mpeg"}, nil
}

// GenerateImage implements adapter.Controller.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, params adapter.ImageGenerationParams) (*adapter.GeneratedImage, error) {
	ig := a.cfg.ImageGeneration
	if ig == nil {
		return nil, adapter.Unsupported(agent.PurposeImageGeneration)
	}

	model, size, quality := a.effectiveImageSettings(params)
	req := oai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          oai.ImageModel(model),
		ResponseFormat: oai.ImageGenerateParamsResponseFormatB64JSON,
		N:              oai.Int(1),
	}
	if size != "" {
		req.Size = oai.ImageGenerateParamsSize(size)
	}
	if quality != "" {
		req.Quality = oai.ImageGenerateParamsQuality(quality)
	}

	resp, err := a.client.Images.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: no image in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: decode image payload: %w", err)
	}
	return &adapter.GeneratedImage{
		Data:          data,
		Mime:          "image/png",
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}

// EditImage implements adapter.Controller.
func (a *Adapter) EditImage(ctx context.Context, prompt string, images []adapter.SourceImage, params adapter.ImageGenerationParams) (*adapter.GeneratedImage, error) {
	ig := a.cfg.ImageGeneration
	if ig == nil {
		return nil, adapter.Unsupported(agent.PurposeImageGeneration)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("openai: image edit requires at least one source image")
	}

	files := make([]io.Reader, 0, len(images))
	for i, img := range images {
		files = append(files, oai.File(bytes.NewReader(img.Data), fmt.Sprintf("image-%d%s", i, extForMime(img.Mime)), img.Mime))
	}
	model, size, _ := a.effectiveImageSettings(params)
	req := oai.ImageEditParams{
		Prompt:         prompt,
		Model:          oai.ImageModel(model),
		Image:          oai.ImageEditParamsImageUnion{OfFileArray: files},
		ResponseFormat: oai.ImageEditParamsResponseFormatB64JSON,
	}
	if size != "" {
		req.Size = oai.ImageEditParamsSize(size)
	}

	resp, err := a.client.Images.Edit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: image edit: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: no image in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: decode image payload: %w", err)
	}
	return &adapter.GeneratedImage{Data: data, Mime: "image/png"}, nil
}

// effectiveImageSettings applies per-request overrides and the cheaper-model
// and cheaper-quality downgrades used for sticker requests.
func (a *Adapter) effectiveImageSettings(params adapter.ImageGenerationParams) (model, size, quality string) {
	ig := a.cfg.ImageGeneration
	model, size, quality = ig.ModelID, ig.Size, ig.Quality
	if params.Size != nil {
		size = *params.Size
	}
	if params.CheaperModelSwitching && model == "dall-e-3" {
		// dall-e-2 is the only model in the family that accepts small sizes.
		model = "dall-e-2"
	}
	if params.CheaperQualitySwitching && quality == "hd" {
		quality = "standard"
	}
	return model, size, quality
}

func fileNameForMime(mime string) string {
	switch mime {
	case "audio/ogg":
		return "audio.ogg"
	case "audio/mp4", "audio/m4a":
		return "audio.m4a"
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	default:
		return "audio.mp3"
	}
}

func extForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
