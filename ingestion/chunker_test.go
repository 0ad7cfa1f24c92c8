package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter treats every whitespace-separated word as one token, which
// makes chunk budgets exact in tests.
func wordCounter(text string) int {
	return len(strings.Fields(text))
}

func TestChunkerSplit_Empty(t *testing.T) {
	c := NewChunker(WithTokenCounter(wordCounter))

	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\n  \t\n"))
}

func TestChunkerSplit_SingleParagraph(t *testing.T) {
	c := NewChunker(WithTokenCounter(wordCounter), WithMaxTokens(10), WithOverlap(2))

	chunks := c.Split("a short paragraph that fits")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph that fits", chunks[0])
}

func TestChunkerSplit_PacksParagraphs(t *testing.T) {
	c := NewChunker(WithTokenCounter(wordCounter), WithMaxTokens(10), WithOverlap(0))

	content := "one two three four\n\nfive six seven eight\n\nnine ten eleven twelve"
	chunks := c.Split(content)

	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three four\n\nfive six seven eight", chunks[0])
	assert.Equal(t, "nine ten eleven twelve", chunks[1])
}

func TestChunkerSplit_ParagraphOverlap(t *testing.T) {
	c := NewChunker(WithTokenCounter(wordCounter), WithMaxTokens(6), WithOverlap(2))

	content := "one two three four\n\nfive six seven eight"
	chunks := c.Split(content)

	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three four", chunks[0])
	// Second chunk starts with the overlap tail of the first.
	assert.Equal(t, "three four\n\nfive six seven eight", chunks[1])
}

func TestChunkerSplit_OversizedParagraph(t *testing.T) {
	c := NewChunker(WithTokenCounter(wordCounter), WithMaxTokens(5), WithOverlap(1))

	words := make([]string, 13)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	chunks := c.Split(strings.Join(words, " "))

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, wordCounter(chunk), 5, "chunk %d over budget", i)
	}
	// Consecutive windows share the overlap word.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		assert.Equal(t, prev[len(prev)-1], cur[0], "chunks %d/%d do not overlap", i-1, i)
	}
	// Every word survives chunking.
	joined := strings.Join(chunks, " ")
	for _, w := range words {
		assert.Contains(t, joined, w)
	}
}

func TestChunkerSplit_OverlapClamped(t *testing.T) {
	c := NewChunker(WithTokenCounter(wordCounter), WithMaxTokens(8), WithOverlap(20))

	// Overlap may never consume the entire budget.
	assert.Equal(t, 2, c.overlap)
}
