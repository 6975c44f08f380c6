package agent

import "fmt"

// Provider identifies the service kind backing an agent. Each provider maps
// to exactly one adapter family and one default-configuration seed.
type Provider string

const (
	ProviderAnthropic        Provider = "anthropic"
	ProviderGroq             Provider = "groq"
	ProviderLocalAI          Provider = "localai"
	ProviderMistral          Provider = "mistral"
	ProviderOpenAI           Provider = "openai"
	ProviderOpenAICompatible Provider = "openai-compatible"
	ProviderOpenRouter       Provider = "openrouter"
)

// AdapterFamily groups providers by the request/response dialect they speak.
type AdapterFamily int

const (
	// FamilyStrict maps directly to the canonical OpenAI API.
	FamilyStrict AdapterFamily = iota
	// FamilyPermissive uses a lenient request body for OpenAI-compatible
	// vendors and runs its blocking HTTP client off the event path.
	FamilyPermissive
	// FamilyAnthropic requires alternating user/assistant turns and carries
	// the system prompt as a dedicated request field.
	FamilyAnthropic
)

// providerTable is the single source of truth for provider parsing and
// family dispatch.
var providerTable = map[Provider]AdapterFamily{
	ProviderAnthropic:        FamilyAnthropic,
	ProviderGroq:             FamilyPermissive,
	ProviderLocalAI:          FamilyPermissive,
	ProviderMistral:          FamilyPermissive,
	ProviderOpenAI:           FamilyStrict,
	ProviderOpenAICompatible: FamilyPermissive,
	ProviderOpenRouter:       FamilyPermissive,
}

// KnownProviders lists every provider in a stable order.
var KnownProviders = []Provider{
	ProviderAnthropic,
	ProviderGroq,
	ProviderLocalAI,
	ProviderMistral,
	ProviderOpenAI,
	ProviderOpenAICompatible,
	ProviderOpenRouter,
}

// ParseProvider parses the lowercase provider string.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if _, ok := providerTable[p]; !ok {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return p, nil
}

func (p Provider) String() string {
	return string(p)
}

// Family returns the adapter family serving this provider.
func (p Provider) Family() AdapterFamily {
	return providerTable[p]
}
