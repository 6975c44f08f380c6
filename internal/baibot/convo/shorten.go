package convo

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for model ids tiktoken does not know.
const fallbackEncoding = "cl100k_base"

// Token overhead per message, per the OpenAI cookbook accounting.
const tokensPerMessage = 3

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// tokenizerForModel returns a cached BPE encoder for the model, falling back
// to a general-purpose encoding for unknown ids.
func tokenizerForModel(modelID string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	tkm, ok := tokenizerCache[modelID]
	tokenizerCacheMu.RUnlock()
	if ok {
		return tkm, nil
	}

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()
	if tkm, ok := tokenizerCache[modelID]; ok {
		return tkm, nil
	}

	tkm, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("load tokenizer: %w", err)
		}
	}
	tokenizerCache[modelID] = tkm
	return tkm, nil
}

func messageTokens(tkm *tiktoken.Tiktoken, m Message) int {
	n := tokensPerMessage
	n += len(tkm.Encode(m.Text, nil, nil))
	n += len(tkm.Encode(string(m.Author), nil, nil))
	return n
}

// Shorten trims msgs to fit the model's context window. The prompt's tokens
// plus maxResponseTokens are reserved against maxContextTokens; the
// remaining budget admits whole messages from newest to oldest, stopping at
// the first message that would exceed it. The returned slice is a suffix of
// msgs in the original chronological order; no message is ever split.
//
// Tokenization is CPU-bound and may take several milliseconds for long
// threads; callers must not hold locks across this call.
func Shorten(modelID, prompt string, msgs []Message, maxResponseTokens, maxContextTokens int) ([]Message, error) {
	tkm, err := tokenizerForModel(modelID)
	if err != nil {
		return nil, err
	}

	budget := maxContextTokens - maxResponseTokens
	if prompt != "" {
		budget -= tokensPerMessage + len(tkm.Encode(prompt, nil, nil))
	}
	if budget < 0 {
		return nil, fmt.Errorf("context window of %d tokens cannot fit the prompt and the %d-token response reservation", maxContextTokens, maxResponseTokens)
	}

	total := 0
	keepFrom := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := messageTokens(tkm, msgs[i])
		if total+cost > budget {
			break
		}
		total += cost
		keepFrom = i
	}
	return msgs[keepFrom:], nil
}
