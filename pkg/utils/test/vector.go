package testutils

import (
	"context"
	"sort"
	"sync"

	"github.com/arborhq/arbor/pkg/vector"
)

// MockVectorDriver is a test vector driver backed by an in-memory map.
type MockVectorDriver struct {
	mu   sync.Mutex
	Docs map[uint64]vector.Document

	// Results, when set, is returned verbatim from Query.
	Results []vector.Match

	// FailNext causes the next driver call to return the given error once.
	FailNext error

	UpsertCalls int
	DeleteCalls int
	QueryCalls  int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Docs: make(map[uint64]vector.Document),
	}
}

func (m *MockVectorDriver) takeErr() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *MockVectorDriver) Upsert(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if err := m.takeErr(); err != nil {
		return err
	}
	for _, doc := range docs {
		m.Docs[doc.ID] = doc
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	if len(m.Results) > topK {
		return m.Results[:topK], nil
	}
	return m.Results, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if err := m.takeErr(); err != nil {
		return err
	}
	for _, id := range ids {
		delete(m.Docs, id)
	}
	return nil
}

func (m *MockVectorDriver) ListIDs(_ context.Context) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(m.Docs))
	for id := range m.Docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
