// Package index keeps the vector store in step with the knowledge
// forest. It batches node updates, embeds their lexical documents and
// pushes them to the configured vector driver.
package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/embeddings"
	"github.com/arborhq/arbor/pkg/tree"
	"github.com/arborhq/arbor/pkg/vector"
)

const (
	// DefaultBatchSize is the pending-set size that triggers an
	// automatic flush.
	DefaultBatchSize = 6

	// contentSnippetLen bounds how much node content enters the
	// lexical document.
	contentSnippetLen = 500

	titleWeight   = 3
	summaryWeight = 2
)

// NodeSource provides id-keyed access to the forest. The manager never
// holds node references of its own; it looks nodes up at flush time so
// it always indexes current state.
type NodeSource interface {
	Get(id uint64) (tree.Node, error)
	IDs() []uint64
}

// Config holds index manager tuning. Zero values fall back to the
// defaults.
type Config struct {
	BatchSize int
}

// Manager bridges a NodeSource to a vector driver.
type Manager struct {
	mu       sync.Mutex
	source   NodeSource
	driver   vector.Driver
	embedder embeddings.Embedder
	logger   *zap.Logger

	batchSize int
	pending   map[uint64]struct{}
}

// Match is a vector search hit.
type Match struct {
	ID    uint64
	Score float64
}

func NewManager(cfg Config, source NodeSource, driver vector.Driver, embedder embeddings.Embedder, logger *zap.Logger) *Manager {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		source:    source,
		driver:    driver,
		embedder:  embedder,
		logger:    logger,
		batchSize: cfg.BatchSize,
		pending:   make(map[uint64]struct{}),
	}
}

// Document builds the weighted lexical document for a node: title
// three times, summary twice, then the leading slice of content.
func Document(node tree.Node) string {
	var parts []string
	for range titleWeight {
		parts = append(parts, node.Title)
	}
	for range summaryWeight {
		parts = append(parts, node.Summary)
	}
	content := node.Content
	if len(content) > contentSnippetLen {
		content = content[:contentSnippetLen]
	}
	parts = append(parts, content)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// QueueUpdate marks nodes for re-indexing. Reaching the batch size
// triggers a flush; a flush failure is logged, never surfaced, so
// node edits are never blocked by the index.
func (m *Manager) QueueUpdate(ctx context.Context, ids ...uint64) {
	m.mu.Lock()
	for _, id := range ids {
		m.pending[id] = struct{}{}
	}
	shouldFlush := len(m.pending) >= m.batchSize
	m.mu.Unlock()

	if shouldFlush {
		if err := m.Flush(ctx); err != nil {
			m.logger.Warn("index auto-flush failed, continuing without index", zap.Error(err))
		}
	}
}

// Pending reports how many node updates are waiting for a flush.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush embeds and upserts every pending node. Nodes that vanished
// since being queued are skipped. The pending set is drained before
// the provider work so a failure never replays stale ids over fresh
// queue entries.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]uint64, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	m.pending = make(map[uint64]struct{})
	m.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		node, err := m.source.Get(id)
		if err != nil {
			continue
		}
		text := Document(node)
		emb, err := m.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embedding node %d: %w", id, err)
		}
		docs = append(docs, vector.Document{
			ID:        id,
			Text:      text,
			Embedding: emb,
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if err := m.driver.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("upserting %d documents: %w", len(docs), err)
	}

	m.logger.Debug("flushed index updates", zap.Int("count", len(docs)))
	return nil
}

// Delete removes nodes from the vector store immediately.
func (m *Manager) Delete(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	for _, id := range ids {
		delete(m.pending, id)
	}
	m.mu.Unlock()

	if err := m.driver.Delete(ctx, ids); err != nil {
		return fmt.Errorf("deleting %d documents: %w", len(ids), err)
	}
	return nil
}

// SyncAll queues every node in the source and flushes.
func (m *Manager) SyncAll(ctx context.Context) error {
	m.mu.Lock()
	for _, id := range m.source.IDs() {
		m.pending[id] = struct{}{}
	}
	m.mu.Unlock()
	return m.Flush(ctx)
}

// Search embeds the query and returns the topK nearest nodes. Pending
// updates are always flushed first so results never trail the forest.
func (m *Manager) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if err := m.Flush(ctx); err != nil {
		return nil, err
	}

	emb, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := m.driver.Query(ctx, emb, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		matches = append(matches, Match{ID: hit.ID, Score: hit.Score})
	}
	return matches, nil
}

// ReconcileStale removes vector store documents whose nodes no longer
// exist in the forest.
func (m *Manager) ReconcileStale(ctx context.Context) error {
	stored, err := m.driver.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing stored documents: %w", err)
	}

	live := make(map[uint64]struct{})
	for _, id := range m.source.IDs() {
		live[id] = struct{}{}
	}

	var stale []uint64
	for _, id := range stored {
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	if err := m.driver.Delete(ctx, stale); err != nil {
		return fmt.Errorf("deleting %d stale documents: %w", len(stale), err)
	}
	m.logger.Info("reconciled stale index entries", zap.Int("removed", len(stale)))
	return nil
}
