package search

import "math"

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Rank scores every document against the query with BM25 over
// plain lowercase tokens. Documents below minScore are dropped; the
// rest come back best first, ties on the lower id.
func bm25Rank(docs []document, query string, minScore float64) []Scored {
	if len(docs) == 0 {
		return nil
	}

	docTokens := make([][]string, len(docs))
	df := make(map[string]int)
	var totalLen float64
	for i, doc := range docs {
		docTokens[i] = rawTokens(doc.text)
		totalLen += float64(len(docTokens[i]))
		seen := make(map[string]struct{})
		for _, t := range docTokens[i] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	avgLen := totalLen / float64(len(docs))
	if avgLen == 0 {
		return nil
	}

	n := float64(len(docs))
	queryTokens := rawTokens(query)

	var ranked []Scored
	for i, doc := range docs {
		tf := make(map[string]float64, len(docTokens[i]))
		for _, t := range docTokens[i] {
			tf[t]++
		}
		docLen := float64(len(docTokens[i]))

		var score float64
		for _, t := range queryTokens {
			freq, ok := tf[t]
			if !ok {
				continue
			}
			idf := math.Log(1 + (n-float64(df[t])+0.5)/(float64(df[t])+0.5))
			score += idf * freq * (bm25K1 + 1) / (freq + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		}
		if score >= minScore {
			ranked = append(ranked, Scored{ID: doc.id, Score: score})
		}
	}
	sortScored(ranked)
	return ranked
}
