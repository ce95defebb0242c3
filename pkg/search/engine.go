// Package search picks the nodes most worth showing for a context
// window. Selection blends a recency quota with either a hybrid
// lexical/vector ranking for a query or the branching factor without
// one.
package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/index"
	"github.com/arborhq/arbor/pkg/tree"
)

const (
	// recencyShareNum/Den give recently modified nodes 3/8 of the
	// selection before relevance fills the rest.
	recencyShareNum = 3
	recencyShareDen = 8

	// candidateMultiplier widens the vector retrieval beyond the
	// open slots so thresholding still leaves enough candidates.
	candidateMultiplier = 5

	tfidfMinScore      = 0.01
	bm25MinScore       = 0.1
	hybridBM25MinScore = 0.5
	vectorMinScore     = 0.5
)

// VectorSearcher is the semantic channel of the hybrid ranking.
// Selection degrades to lexical scoring when it is nil or failing.
type VectorSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]index.Match, error)
}

// Engine ranks forest nodes. It reads through the store on every call
// and keeps no node state of its own.
type Engine struct {
	store   *tree.Store
	vectors VectorSearcher
	logger  *zap.Logger
}

func NewEngine(store *tree.Store, vectors VectorSearcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, vectors: vectors, logger: logger}
}

// SelectRelevant returns up to limit node ids: the recency quota
// first, then the nodes with the most children.
func (e *Engine) SelectRelevant(ctx context.Context, limit int) []uint64 {
	return e.selectNodes(ctx, "", limit)
}

// SelectRelevantForQuery returns up to limit node ids: the recency
// quota first, then the hybrid ranking against the query. A blank
// query behaves like SelectRelevant.
func (e *Engine) SelectRelevantForQuery(ctx context.Context, query string, limit int) []uint64 {
	return e.selectNodes(ctx, query, limit)
}

func (e *Engine) selectNodes(ctx context.Context, query string, limit int) []uint64 {
	if limit <= 0 {
		return nil
	}
	ids := e.store.IDs()
	if len(ids) <= limit {
		return ids
	}

	picked := make(map[uint64]struct{}, limit)
	// Small limits round the quota down to zero; Recent treats zero as
	// "everything", so the quota pass must be skipped entirely.
	if quota := recencyShareNum * limit / recencyShareDen; quota > 0 {
		for _, id := range e.store.Recent(quota) {
			picked[id] = struct{}{}
		}
	}

	if remaining := limit - len(picked); remaining > 0 {
		var extra []uint64
		if strings.TrimSpace(query) == "" {
			extra = e.byBranching(picked, remaining)
		} else {
			extra = e.hybrid(ctx, query, picked, remaining)
		}
		for _, id := range extra {
			picked[id] = struct{}{}
		}
	}

	out := make([]uint64, 0, len(picked))
	for id := range picked {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RankTFIDF scores every node against the query on the TF-IDF channel
// alone and returns up to limit hits, best first.
func (e *Engine) RankTFIDF(query string, limit int) []Scored {
	return truncateScored(tfidfRank(e.candidates(nil), query, tfidfMinScore), limit)
}

// RankBM25 scores every node against the query on the BM25 channel
// alone and returns up to limit hits, best first.
func (e *Engine) RankBM25(query string, limit int) []Scored {
	return truncateScored(bm25Rank(e.candidates(nil), query, bm25MinScore), limit)
}

// hybrid fills the open slots from the vector and BM25 channels fused
// by reciprocal rank. Each channel is thresholded and cut to the open
// slots before fusion. When both channels come back empty the TF-IDF
// channel stands in.
func (e *Engine) hybrid(ctx context.Context, query string, picked map[uint64]struct{}, remaining int) []uint64 {
	docs := e.candidates(picked)
	if len(docs) == 0 {
		return nil
	}
	known := make(map[uint64]struct{}, len(docs))
	for _, doc := range docs {
		known[doc.id] = struct{}{}
	}

	var vectorRanked []uint64
	if e.vectors != nil {
		hits, err := e.vectors.Search(ctx, query, remaining*candidateMultiplier)
		if err != nil {
			e.logger.Warn("vector channel unavailable, ranking lexically", zap.Error(err))
		} else {
			for _, hit := range hits {
				if clampScore(hit.Score) < vectorMinScore {
					continue
				}
				if _, ok := known[hit.ID]; !ok {
					continue
				}
				vectorRanked = append(vectorRanked, hit.ID)
			}
		}
	}

	var bm25Ranked []uint64
	for _, s := range bm25Rank(docs, query, hybridBM25MinScore) {
		bm25Ranked = append(bm25Ranked, s.ID)
	}

	vectorRanked = truncateIDs(vectorRanked, remaining)
	bm25Ranked = truncateIDs(bm25Ranked, remaining)

	if len(vectorRanked) == 0 && len(bm25Ranked) == 0 {
		var ids []uint64
		for _, s := range tfidfRank(docs, query, tfidfMinScore) {
			ids = append(ids, s.ID)
		}
		return truncateIDs(ids, remaining)
	}

	return truncateIDs(fuseRanks([][]uint64{vectorRanked, bm25Ranked}, rrfK), remaining)
}

// byBranching fills the open slots with the widest nodes not already
// picked.
func (e *Engine) byBranching(picked map[uint64]struct{}, remaining int) []uint64 {
	var extra []uint64
	for _, id := range e.store.ByBranchingFactor(0) {
		if _, ok := picked[id]; ok {
			continue
		}
		extra = append(extra, id)
		if len(extra) == remaining {
			break
		}
	}
	return extra
}

// candidates builds the scoring documents for every node not in skip.
func (e *Engine) candidates(skip map[uint64]struct{}) []document {
	var docs []document
	for _, id := range e.store.IDs() {
		if _, ok := skip[id]; ok {
			continue
		}
		node, err := e.store.Get(id)
		if err != nil {
			continue
		}
		docs = append(docs, document{id: id, text: index.Document(node)})
	}
	return docs
}

func clampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

func truncateIDs(ids []uint64, n int) []uint64 {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

func truncateScored(ranked []Scored, n int) []Scored {
	if n > 0 && len(ranked) > n {
		return ranked[:n]
	}
	return ranked
}
