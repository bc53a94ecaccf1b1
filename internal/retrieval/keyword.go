// ABOUTME: Keyword scoring for hybrid retrieval based on query-token overlap
// ABOUTME: Scores are the fraction of query tokens present in a chunk's title and body
package retrieval

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenSet extracts the lowercase word tokens of a text as a set.
func tokenSet(text string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// keywordScore reports the fraction of query tokens found in the text.
// Each query token counts once no matter how often it appears.
func keywordScore(queryTokens map[string]struct{}, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	textTokens := tokenSet(text)
	matched := 0
	for tok := range queryTokens {
		if _, ok := textTokens[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
