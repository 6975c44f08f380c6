package agent

import "fmt"

// Purpose is an abstract capability role an agent can be asked to serve.
type Purpose string

const (
	// PurposeCatchAll is a resolver fallback, not a worker capability.
	PurposeCatchAll        Purpose = "catch-all"
	PurposeTextGeneration  Purpose = "text-generation"
	PurposeSpeechToText    Purpose = "speech-to-text"
	PurposeTextToSpeech    Purpose = "text-to-speech"
	PurposeImageGeneration Purpose = "image-generation"
)

// KnownPurposes lists every purpose in a stable order.
var KnownPurposes = []Purpose{
	PurposeCatchAll,
	PurposeTextGeneration,
	PurposeSpeechToText,
	PurposeTextToSpeech,
	PurposeImageGeneration,
}

// ParsePurpose parses the kebab-case purpose string.
func ParsePurpose(s string) (Purpose, error) {
	for _, p := range KnownPurposes {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown purpose %q", s)
}

func (p Purpose) String() string {
	return string(p)
}
