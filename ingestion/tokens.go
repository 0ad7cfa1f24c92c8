package ingestion

import (
	"log/slog"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter reports the token count of a text under the embedding
// model's tokenizer. Chunk budgets are expressed in these tokens.
type TokenCounter func(text string) int

// defaultEncoding is a reasonable stand-in for embedding-model tokenizers;
// chunk budgets only need to be approximately right.
const defaultEncoding = "cl100k_base"

// NewTokenCounter returns a TokenCounter backed by the tiktoken BPE
// vocabulary. If the encoding cannot be loaded (e.g. first run without
// network access to fetch the vocabulary), it falls back to a rune-based
// estimate so ingestion keeps working.
func NewTokenCounter() TokenCounter {
	enc, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		slog.Warn("tiktoken encoding unavailable, using estimated token counts", "encoding", defaultEncoding, "err", err)
		return EstimateTokens
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}
}

// EstimateTokens approximates a token count as one token per four runes.
// Used as a fallback when the real tokenizer is unavailable, and in tests.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	count := n / 4
	if n > 0 && count == 0 {
		count = 1
	}
	return count
}
