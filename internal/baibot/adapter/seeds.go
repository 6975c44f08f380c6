package adapter

import "github.com/etkecc/baibot/internal/baibot/agent"

// Default model ids below are configuration seeds shown to operators when
// creating an agent, not operational guarantees.

func float64Ptr(v float64) *float64 { return &v }

// DefaultConfig returns the default-configuration template for a provider.
// The api_key (and, for openai-compatible, base_url) is left for the
// operator to fill in.
func DefaultConfig(provider agent.Provider) *Config {
	switch provider {
	case agent.ProviderAnthropic:
		return &Config{
			BaseURL: "https://api.anthropic.com",
			TextGeneration: &TextGenerationConfig{
				ModelID:           "claude-sonnet-4-5",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 8192,
				MaxContextTokens:  200_000,
			},
		}
	case agent.ProviderGroq:
		return &Config{
			BaseURL: "https://api.groq.com/openai/v1",
			TextGeneration: &TextGenerationConfig{
				ModelID:           "llama-3.3-70b-versatile",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 4096,
				MaxContextTokens:  128_000,
			},
			SpeechToText: &SpeechToTextConfig{ModelID: "whisper-large-v3"},
		}
	case agent.ProviderLocalAI:
		return &Config{
			BaseURL: "http://127.0.0.1:8080/v1",
			TextGeneration: &TextGenerationConfig{
				ModelID:           "gpt-4",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 4096,
				MaxContextTokens:  128_000,
			},
		}
	case agent.ProviderMistral:
		return &Config{
			BaseURL: "https://api.mistral.ai/v1",
			TextGeneration: &TextGenerationConfig{
				ModelID:           "mistral-large-latest",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 4096,
				MaxContextTokens:  128_000,
			},
		}
	case agent.ProviderOpenAI:
		return &Config{
			BaseURL: "https://api.openai.com/v1",
			TextGeneration: &TextGenerationConfig{
				ModelID:           "gpt-5.2",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 16_384,
				MaxContextTokens:  128_000,
			},
			SpeechToText: &SpeechToTextConfig{ModelID: "whisper-1"},
			TextToSpeech: &TextToSpeechConfig{
				ModelID: "tts-1",
				Voice:   "alloy",
				Speed:   float64Ptr(1.0),
			},
			ImageGeneration: &ImageGenerationConfig{
				ModelID: "dall-e-3",
				Size:    "1024x1024",
				Quality: "standard",
			},
		}
	case agent.ProviderOpenRouter:
		return &Config{
			BaseURL: "https://openrouter.ai/api/v1",
			TextGeneration: &TextGenerationConfig{
				ModelID:           "mattshumer/reflection-70b:free",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 4096,
				MaxContextTokens:  128_000,
			},
		}
	case agent.ProviderOpenAICompatible:
		return &Config{
			TextGeneration: &TextGenerationConfig{
				ModelID:           "",
				Temperature:       float64Ptr(1.0),
				MaxResponseTokens: 4096,
				MaxContextTokens:  128_000,
			},
		}
	default:
		return &Config{}
	}
}
