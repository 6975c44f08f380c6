// Package compat provides the permissive adapter family for
// OpenAI-compatible vendors. The request body is deliberately lenient so
// that endpoints which reject newer fields still work. The HTTP client is
// blocking; calls are offloaded to a worker goroutine so the event path
// stays responsive and cancellable.
package compat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/etkecc/baibot/common/redact"
	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/adapter/openai"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/convo"
)

const defaultTimeout = 3 * time.Minute

// Adapter implements adapter.Controller for OpenAI-compatible vendors.
type Adapter struct {
	adapter.ConfigGetters

	cfg    *adapter.Config
	client *http.Client

	// tts is a strict adapter built from a lossy conversion of the
	// configuration; speech synthesis is delegated to it.
	tts *openai.Adapter
}

// New constructs the permissive adapter from a validated configuration.
func New(cfg *adapter.Config) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("compat: base_url must not be empty")
	}

	a := &Adapter{
		ConfigGetters: adapter.ConfigGetters{Cfg: cfg},
		cfg:           cfg,
		client:        &http.Client{Timeout: defaultTimeout},
	}

	if cfg.TextToSpeech != nil {
		// Only the fields the strict dialect understands survive the
		// conversion; anything vendor-specific is dropped.
		ttsCfg := &adapter.Config{
			BaseURL:      cfg.BaseURL,
			APIKey:       cfg.APIKey,
			TextToSpeech: cfg.TextToSpeech,
		}
		delegate, err := openai.New(ttsCfg)
		if err != nil {
			return nil, fmt.Errorf("compat: build text-to-speech delegate: %w", err)
		}
		a.tts = delegate
	}
	return a, nil
}

// Supports implements adapter.Controller. The permissive family has no
// image-edit endpoint, but the plain image-generation purpose is served.
func (a *Adapter) Supports(purpose agent.Purpose) bool {
	return a.cfg.Supports(purpose)
}

// Ping implements adapter.Controller.
func (a *Adapter) Ping(ctx context.Context) (adapter.PingResult, error) {
	if a.cfg.TextGeneration == nil {
		return adapter.PingInconclusive, nil
	}
	greeting := convo.Conversation{Messages: []convo.Message{{Author: convo.AuthorUser, Text: "ping"}}}
	if _, err := a.GenerateText(ctx, greeting, adapter.TextGenerationParams{}); err != nil {
		return 0, err
	}
	return adapter.PingSuccessful, nil
}

// --- lenient wire types ---

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *wireError `json:"error,omitempty"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
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
			return "", fmt.Errorf("compat: shorten context: %w", err)
		}
		messages = shortened
	}

	body := chatRequest{
		Model:     tg.ModelID,
		Messages:  buildWireMessages(prompt, messages),
		MaxTokens: tg.MaxResponseTokens,
	}
	if temp, ok := a.cfg.EffectiveTemperature(params); ok {
		body.Temperature = &temp
	}

	var resp chatResponse
	if err := a.postJSON(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("compat: API error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("compat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildWireMessages flattens the conversation to plain-text messages.
// The permissive dialect has no vision input, so attachments are dropped.
func buildWireMessages(prompt string, msgs []convo.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs)+1)
	if prompt != "" {
		out = append(out, wireMessage{Role: "system", Content: prompt})
	}
	for _, m := range msgs {
		if !m.IsTextOnly() {
			slog.Warn("compat: dropping image attachment, vendor dialect has no vision input")
			if m.Text == "" {
				continue
			}
		}
		role := "user"
		if m.Author == convo.AuthorAssistant {
			role = "assistant"
		}
		out = append(out, wireMessage{Role: role, Content: m.Text})
	}
	return out
}

// SpeechToText implements adapter.Controller via the vendor's
// /audio/transcriptions endpoint (multipart form, whisper dialect).
func (a *Adapter) SpeechToText(ctx context.Context, mime string, media []byte, params adapter.SpeechToTextParams) (string, error) {
	stt := a.cfg.SpeechToText
	if stt == nil {
		return "", adapter.Unsupported(agent.PurposeSpeechToText)
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", "audio"+extForMime(mime))
	if err != nil {
		return "", fmt.Errorf("compat: build form: %w", err)
	}
	if _, err := fw.Write(media); err != nil {
		return "", fmt.Errorf("compat: write form file: %w", err)
	}
	if err := mw.WriteField("model", stt.ModelID); err != nil {
		return "", fmt.Errorf("compat: write form field: %w", err)
	}
	if params.Language != "" {
		if err := mw.WriteField("language", params.Language); err != nil {
			return "", fmt.Errorf("compat: write form field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("compat: close form: %w", err)
	}

	var resp struct {
		Text  string     `json:"text"`
		Error *wireError `json:"error,omitempty"`
	}
	if err := a.post(ctx, "/audio/transcriptions", mw.FormDataContentType(), form.Bytes(), &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("compat: API error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	return resp.Text, nil
}

// TextToSpeech implements adapter.Controller by delegating to the strict
// family with the lossily converted configuration.
func (a *Adapter) TextToSpeech(ctx context.Context, text string, params adapter.TextToSpeechParams) (*adapter.GeneratedSpeech, error) {
	if a.tts == nil {
		return nil, adapter.Unsupported(agent.PurposeTextToSpeech)
	}
	return a.tts.TextToSpeech(ctx, text, params)
}

// GenerateImage implements adapter.Controller.
func (a *Adapter) GenerateImage(ctx context.Context, prompt string, params adapter.ImageGenerationParams) (*adapter.GeneratedImage, error) {
	ig := a.cfg.ImageGeneration
	if ig == nil {
		return nil, adapter.Unsupported(agent.PurposeImageGeneration)
	}

	body := map[string]any{
		"model":           ig.ModelID,
		"prompt":          prompt,
		"n":               1,
		"response_format": "b64_json",
	}
	if params.Size != nil {
		body["size"] = *params.Size
	} else if ig.Size != "" {
		body["size"] = ig.Size
	}
	if ig.Quality != "" && !params.CheaperQualitySwitching {
		body["quality"] = ig.Quality
	}

	var resp struct {
		Data []struct {
			B64JSON       string `json:"b64_json"`
			RevisedPrompt string `json:"revised_prompt"`
		} `json:"data"`
		Error *wireError `json:"error,omitempty"`
	}
	if err := a.postJSON(ctx, "/images/generations", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("compat: API error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("compat: no image in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("compat: decode image payload: %w", err)
	}
	return &adapter.GeneratedImage{Data: data, Mime: "image/png", RevisedPrompt: resp.Data[0].RevisedPrompt}, nil
}

// EditImage implements adapter.Controller. The permissive dialect has no
// image-edit endpoint.
func (a *Adapter) EditImage(ctx context.Context, _ string, _ []adapter.SourceImage, _ adapter.ImageGenerationParams) (*adapter.GeneratedImage, error) {
	return nil, adapter.Unsupported(agent.PurposeImageGeneration)
}

// postJSON marshals body and posts it, decoding the JSON response into out.
func (a *Adapter) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("compat: marshal request: %w", err)
	}
	return a.post(ctx, path, "application/json", data, out)
}

// post runs the blocking HTTP call on a worker goroutine so the caller can
// be cancelled through ctx even while the client blocks.
func (a *Adapter) post(ctx context.Context, path, contentType string, body []byte, out any) error {
	type result struct {
		data []byte
		err  error
	}
	resCh := make(chan result, 1)

	go func() {
		req, err := http.NewRequest(http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			resCh <- result{err: fmt.Errorf("compat: create request: %w", err)}
			return
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

		resp, err := a.client.Do(req)
		if err != nil {
			// url.Error echoes the request URL; some vendors authenticate in
			// the path or query, so the key must be stripped before the
			// message can reach logs or chat.
			resCh <- result{err: fmt.Errorf("compat: http request: %s", redact.String(err.Error(), a.cfg.APIKey))}
			return
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			resCh <- result{err: fmt.Errorf("compat: read response: %w", err)}
			return
		}
		resCh <- result{data: data}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resCh:
		if res.err != nil {
			return res.err
		}
		if err := json.Unmarshal(res.data, out); err != nil {
			return fmt.Errorf("compat: decode response: %w", err)
		}
		return nil
	}
}

func extForMime(mime string) string {
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	default:
		return ".ogg"
	}
}
