package convo

import "strings"

// TranscriptionMarker prefixes block-quoted transcription notices. The bot
// re-ingests its own notices only when they match this exact form, so
// FormatTranscription and ParseTranscription must stay mutually inverse.
const TranscriptionMarker = "🦻"

// FormatTranscription renders transcribed speech as a block-quoted notice
// body with the leading hearing-aid marker.
func FormatTranscription(text string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			b.WriteString("> " + TranscriptionMarker + " " + line)
			continue
		}
		b.WriteString("\n> " + line)
	}
	return b.String()
}

// ParseTranscription unwraps a notice body produced by FormatTranscription.
// The second return value is false when the body is not a transcription
// notice (a tooltip, error, or status message the bot emitted).
func ParseTranscription(body string) (string, bool) {
	first, rest, _ := strings.Cut(body, "\n")
	prefix := "> " + TranscriptionMarker + " "
	if !strings.HasPrefix(first, prefix) {
		return "", false
	}
	out := []string{strings.TrimPrefix(first, prefix)}
	if rest != "" {
		for _, line := range strings.Split(rest, "\n") {
			quoted, ok := strings.CutPrefix(line, "> ")
			if !ok {
				return "", false
			}
			out = append(out, quoted)
		}
	}
	return strings.Join(out, "\n"), true
}
