package search

import (
	"math"
	"sort"
)

// document is one scoring candidate: a node id and its weighted
// lexical text.
type document struct {
	id   uint64
	text string
}

// Scored pairs a node id with a channel score.
type Scored struct {
	ID    uint64
	Score float64
}

// tfidfRank scores every document against the query by cosine
// similarity over unigram and bigram TF-IDF vectors. Documents at or
// below minScore are dropped; the rest come back best first, ties on
// the lower id.
func tfidfRank(docs []document, query string, minScore float64) []Scored {
	if len(docs) == 0 {
		return nil
	}

	docTerms := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		docTerms[i] = ngrams(lexTokens(doc.text))
		seen := make(map[string]struct{})
		for _, t := range docTerms[i] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, count := range df {
		idf[t] = math.Log((1+n)/(1+float64(count))) + 1
	}

	queryVec := weigh(ngrams(lexTokens(query)), idf)
	if len(queryVec) == 0 {
		return nil
	}

	var ranked []Scored
	for i, doc := range docs {
		docVec := weigh(docTerms[i], idf)
		score := cosine(queryVec, docVec)
		if score > minScore {
			ranked = append(ranked, Scored{ID: doc.id, Score: score})
		}
	}
	sortScored(ranked)
	return ranked
}

// weigh builds an l2-normalized tf-idf vector. Terms outside the
// fitted vocabulary are ignored.
func weigh(terms []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]float64)
	for _, t := range terms {
		if _, ok := idf[t]; ok {
			tf[t]++
		}
	}
	var norm float64
	for t := range tf {
		tf[t] *= idf[t]
		norm += tf[t] * tf[t]
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for t := range tf {
		tf[t] /= norm
	}
	return tf
}

// cosine of two l2-normalized sparse vectors, clamped to [0, 1].
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for t, w := range a {
		dot += w * b[t]
	}
	return math.Min(math.Max(dot, 0), 1)
}

func sortScored(ranked []Scored) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
}
