package ingestion

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkTokens is the default chunk budget in tokens.
const DefaultMaxChunkTokens = 512

// DefaultChunkOverlap is the default number of overlapping tokens between
// consecutive chunks.
const DefaultChunkOverlap = 64

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n+`)

// Chunker splits source text into token-budgeted chunks. Paragraph breaks
// are the preferred split points; a paragraph that alone exceeds the budget
// is cut into fixed-size windows with overlap.
type Chunker struct {
	maxTokens int
	overlap   int
	count     TokenCounter
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithMaxTokens sets the chunk budget in tokens.
func WithMaxTokens(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in tokens.
func WithOverlap(n int) ChunkerOption {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithTokenCounter sets the token counter used against the budget.
func WithTokenCounter(count TokenCounter) ChunkerOption {
	return func(c *Chunker) {
		if count != nil {
			c.count = count
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		maxTokens: DefaultMaxChunkTokens,
		overlap:   DefaultChunkOverlap,
		count:     NewTokenCounter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't consume the whole budget
	if c.overlap >= c.maxTokens {
		c.overlap = c.maxTokens / 4
	}

	return c
}

// Split divides content into chunks of at most the configured token budget.
// Consecutive paragraphs are packed together while they fit; when a chunk
// fills up, the tail of the previous chunk is carried into the next one as
// overlap. Returns nil for whitespace-only content.
func (c *Chunker) Split(content string) []string {
	paragraphs := splitParagraphs(content)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, "\n\n"))
		current = nil
		currentTokens = 0
	}

	for _, p := range paragraphs {
		pTokens := c.count(p)

		// Oversized paragraph: no boundary within the budget, cut it
		// into fixed-size windows.
		if pTokens > c.maxTokens {
			flush()
			chunks = append(chunks, c.splitFixed(p)...)
			continue
		}

		if currentTokens+pTokens > c.maxTokens {
			tail := c.overlapTail(strings.Join(current, " "))
			flush()
			if tail != "" {
				current = append(current, tail)
				currentTokens = c.count(tail)
			}
		}

		current = append(current, p)
		currentTokens += pTokens
	}

	flush()
	return chunks
}

// splitFixed cuts text into word windows of at most maxTokens tokens,
// stepping back by the overlap budget between windows.
func (c *Chunker) splitFixed(text string) []string {
	words := strings.Fields(text)
	var chunks []string

	start := 0
	for start < len(words) {
		end := start
		tokens := 0
		for end < len(words) {
			wt := c.count(words[end])
			if tokens+wt > c.maxTokens && end > start {
				break
			}
			tokens += wt
			end++
		}

		chunks = append(chunks, strings.Join(words[start:end], " "))

		if end >= len(words) {
			break
		}

		// Step back to include overlap tokens in the next window.
		back := end
		overlap := 0
		for back > start+1 {
			wt := c.count(words[back-1])
			if overlap+wt > c.overlap {
				break
			}
			overlap += wt
			back--
		}
		start = back
	}

	return chunks
}

// overlapTail returns the trailing words of text that fit the overlap budget.
func (c *Chunker) overlapTail(text string) string {
	if c.overlap == 0 {
		return ""
	}

	words := strings.Fields(text)
	tokens := 0
	i := len(words)
	for i > 0 {
		wt := c.count(words[i-1])
		if tokens+wt > c.overlap {
			break
		}
		tokens += wt
		i--
	}

	if i == len(words) {
		return ""
	}
	return strings.Join(words[i:], " ")
}

func splitParagraphs(content string) []string {
	parts := paragraphBreak.Split(content, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			paragraphs = append(paragraphs, part)
		}
	}
	return paragraphs
}
