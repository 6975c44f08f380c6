package adapter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/etkecc/baibot/internal/baibot/agent"
)

// Config is the provider-specific configuration carried by an agent
// definition. A capability section being present is what makes the adapter
// support the corresponding purpose.
type Config struct {
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	TextGeneration  *TextGenerationConfig  `yaml:"text_generation,omitempty" json:"text_generation,omitempty"`
	SpeechToText    *SpeechToTextConfig    `yaml:"speech_to_text,omitempty" json:"speech_to_text,omitempty"`
	TextToSpeech    *TextToSpeechConfig    `yaml:"text_to_speech,omitempty" json:"text_to_speech,omitempty"`
	ImageGeneration *ImageGenerationConfig `yaml:"image_generation,omitempty" json:"image_generation,omitempty"`
}

// TextGenerationConfig configures chat-completion requests.
type TextGenerationConfig struct {
	ModelID           string   `yaml:"model_id" json:"model_id"`
	Prompt            string   `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Temperature       *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxResponseTokens int      `yaml:"max_response_tokens,omitempty" json:"max_response_tokens,omitempty"`
	MaxContextTokens  int      `yaml:"max_context_tokens,omitempty" json:"max_context_tokens,omitempty"`
}

// SpeechToTextConfig configures transcription requests.
type SpeechToTextConfig struct {
	ModelID string `yaml:"model_id" json:"model_id"`
}

// TextToSpeechConfig configures synthesis requests.
type TextToSpeechConfig struct {
	ModelID string   `yaml:"model_id" json:"model_id"`
	Voice   string   `yaml:"voice,omitempty" json:"voice,omitempty"`
	Speed   *float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
}

// ImageGenerationConfig configures image generation and editing.
type ImageGenerationConfig struct {
	ModelID string `yaml:"model_id" json:"model_id"`
	Size    string `yaml:"size,omitempty" json:"size,omitempty"`
	Quality string `yaml:"quality,omitempty" json:"quality,omitempty"`
}

// ParseConfig decodes an agent definition's free-form configuration mapping
// into a Config after validating it against the provider family's schema.
func ParseConfig(def agent.Definition) (*Config, error) {
	if err := ValidateConfigMapping(def.Provider, def.Config); err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(def.Config)
	if err != nil {
		return nil, fmt.Errorf("agent %q: serialize config: %w", def.ID, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("agent %q: decode config: %w", def.ID, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &cfg, nil
}

// Supports reports whether the configuration enables the given purpose.
// Family-specific restrictions (e.g. no image edits on the permissive
// family) are layered on top by the adapters themselves.
func (c *Config) Supports(purpose agent.Purpose) bool {
	switch purpose {
	case agent.PurposeTextGeneration:
		return c.TextGeneration != nil
	case agent.PurposeSpeechToText:
		return c.SpeechToText != nil
	case agent.PurposeTextToSpeech:
		return c.TextToSpeech != nil
	case agent.PurposeImageGeneration:
		return c.ImageGeneration != nil
	default:
		return false
	}
}

// EffectivePrompt applies the override and substitutes prompt variables.
// Placeholders are substituted at send time, never at store time.
func (c *Config) EffectivePrompt(params TextGenerationParams) string {
	prompt := ""
	if c.TextGeneration != nil {
		prompt = c.TextGeneration.Prompt
	}
	if params.PromptOverride != nil {
		prompt = *params.PromptOverride
	}
	return ExpandPromptVariables(prompt, params.PromptVariables)
}

// EffectiveTemperature applies the override on top of the configured value.
// The boolean is false when neither is set.
func (c *Config) EffectiveTemperature(params TextGenerationParams) (float64, bool) {
	if params.TemperatureOverride != nil {
		return *params.TemperatureOverride, true
	}
	if c.TextGeneration != nil && c.TextGeneration.Temperature != nil {
		return *c.TextGeneration.Temperature, true
	}
	return 0, false
}

// ExpandPromptVariables substitutes "{{ name }}" placeholders in a prompt.
func ExpandPromptVariables(prompt string, vars map[string]string) string {
	for name, value := range vars {
		prompt = strings.ReplaceAll(prompt, "{{ "+name+" }}", value)
	}
	return prompt
}
