package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesTriggerTerms(t *testing.T) {
	terms := []string{"compliance", "regulatory", "data retention"}

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"single term match", "what are the compliance requirements?", true},
		{"case and punctuation ignored", "Regulatory: deadlines!", true},
		{"multi-word term needs all words", "what is our retention policy for data?", true},
		{"no match", "how do I reset my password", false},
		{"partial multi-word term", "data formats supported", false},
		{"empty query", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesTriggerTerms(tt.query, terms))
		})
	}
}

func TestMatchesTriggerTerms_NoTerms(t *testing.T) {
	assert.False(t, matchesTriggerTerms("compliance question", nil))
}

func TestTokenizeAndFilter(t *testing.T) {
	got := tokenizeAndFilter("What TAS format does GTAS require?")
	assert.Equal(t, []string{"what", "tas", "format", "does", "gtas", "require"}, got)
}
