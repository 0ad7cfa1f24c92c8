package retrieval

import "strings"

// Stop words to filter out when tokenizing query text
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// matchesTriggerTerms reports whether the query contains any of the
// configured cross-domain trigger terms. Multi-word terms match when all
// of their words appear in the query.
func matchesTriggerTerms(query string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}

	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	querySet := make(map[string]bool, len(queryWords))
	for _, word := range queryWords {
		querySet[word] = true
	}

	for _, term := range terms {
		termWords := tokenizeAndFilter(term)
		if len(termWords) == 0 {
			continue
		}
		all := true
		for _, word := range termWords {
			if !querySet[word] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	return false
}
