package chat

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/hammamikhairi/foodify/internal/logger"
)

// TokenCounter estimates how many model tokens a text uses.
type TokenCounter interface {
	Count(text string) int
}

// approxCounter assumes four characters per token.
type approxCounter struct{}

func (approxCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// TiktokenCounter counts with the cl100k_base encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter returns a tiktoken counter, or a length based estimate
// when the encoding cannot be loaded.
func NewTokenCounter(log *logger.Logger) TokenCounter {
	tkm, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Warn("tokenizer unavailable, estimating by length: %v", err)
		return approxCounter{}
	}
	return &TiktokenCounter{encoding: tkm}
}

// Count returns the number of tokens in text.
func (t *TiktokenCounter) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
