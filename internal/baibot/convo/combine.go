package convo

import "strings"

// CombineConsecutive fuses adjacent text-only messages by the same author
// into a single message whose body is the newline-joined run. Messages with
// attachments break the run and are passed through untouched.
//
// Adapters that require alternating user/assistant turns (the Anthropic
// family) call this before building their request.
func CombineConsecutive(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	var run []string
	var runStart Message

	flush := func() {
		if len(run) == 0 {
			return
		}
		fused := runStart
		fused.Text = strings.Join(run, "\n")
		out = append(out, fused)
		run = nil
	}

	for _, m := range msgs {
		if !m.IsTextOnly() {
			flush()
			out = append(out, m)
			continue
		}
		if len(run) > 0 && m.Author == runStart.Author {
			run = append(run, m.Text)
			continue
		}
		flush()
		runStart = m
		run = []string{m.Text}
	}
	flush()
	return out
}
