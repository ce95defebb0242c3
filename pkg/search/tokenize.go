package search

import (
	"strings"

	"github.com/orsinium-labs/stopwords"
)

var stopset = stopwords.MustGet("en")

const edgePunct = ".!?,;:\"'()[]{}"

// rawTokens lowercases and splits on whitespace. The BM25 channel
// scores these directly.
func rawTokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// lexTokens lowercases, strips edge punctuation and drops stopwords
// and single-character tokens.
func lexTokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, edgePunct)
		if len(w) < 2 {
			continue
		}
		if stopset.Contains(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// ngrams returns the unigrams plus the adjacent bigrams of tokens.
func ngrams(tokens []string) []string {
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
