package ai

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// perMessageOverhead approximates the role and separator tokens the chat
// format adds around each message.
const perMessageOverhead = 4

// TokenEstimator counts tokens locally. It is only used when the provider
// response leaves usage out, so the daily budget still moves.
type TokenEstimator struct {
	codec tokenizer.Codec
}

func NewTokenEstimator(model string) (*TokenEstimator, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err == nil {
		return &TokenEstimator{codec: codec}, nil
	}
	codec, err = tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &TokenEstimator{codec: codec}, nil
}

func (e *TokenEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	if e == nil || e.codec == nil {
		return (len(text) + 3) / 4
	}
	ids, _, err := e.codec.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}

func (e *TokenEstimator) CountMessages(messages []chatMessage) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead + e.Count(m.Content)
	}
	return total
}
