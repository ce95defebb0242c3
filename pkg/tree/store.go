package tree

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/fuzzy"
)

const (
	// findByNameCutoff is the minimum similarity for fuzzy title
	// lookups, on the 0-100 scale.
	findByNameCutoff = 80.0

	// DefaultNeighborLimit caps how many children a neighborhood
	// listing includes.
	DefaultNeighborLimit = 30
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Store is the in-memory forest. All mutations preserve the forest
// invariants: unique ids, parent.Children and child.ParentID kept in
// lockstep, no cross-links.
type Store struct {
	mu     sync.RWMutex
	nodes  map[uint64]*Node
	nextID uint64
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		nodes:  make(map[uint64]*Node),
		nextID: 1,
		logger: logger,
	}
}

// Create adds a node and returns its id. A missing parent is logged
// and the node becomes a root rather than failing the creation. An
// empty summary is derived from the content.
func (s *Store) Create(title, content, summary string, parentID *uint64, relationship string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary == "" {
		summary = Summarize(content)
	}

	id := s.nextID
	s.nextID++

	now := time.Now()
	node := &Node{
		ID:         id,
		Title:      title,
		Content:    content,
		Summary:    summary,
		CreatedAt:  now,
		ModifiedAt: now,
		Filename:   fmt.Sprintf("%d_%s.md", id, slugify(title)),
	}

	if parentID != nil {
		parent, ok := s.nodes[*parentID]
		if !ok {
			s.logger.Warn("parent does not exist, creating node as root",
				zap.Uint64("node_id", id),
				zap.Uint64("parent_id", *parentID),
			)
		} else {
			pid := parent.ID
			node.ParentID = &pid
			node.Relationships = map[uint64]string{pid: relationship}
			parent.Children = append(parent.Children, id)
		}
	}

	s.nodes[id] = node
	s.logger.Debug("created node",
		zap.Uint64("id", id),
		zap.String("title", title),
	)
	return id
}

// AppendContent joins additional text onto a node's content with a
// newline. The summary is deliberately left alone; append is a cheap
// path that skips re-summarization.
func (s *Store) AppendContent(id uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &NotFoundError{ID: id}
	}

	if node.Content == "" {
		node.Content = text
	} else {
		node.Content = node.Content + "\n" + text
	}
	node.AppendCount++
	node.ModifiedAt = time.Now()
	return nil
}

// ReplaceContent swaps both content and summary in one step.
func (s *Store) ReplaceContent(id uint64, content, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &NotFoundError{ID: id}
	}

	node.Content = content
	if summary == "" {
		summary = Summarize(content)
	}
	node.Summary = summary
	node.ModifiedAt = time.Now()
	return nil
}

// Remove deletes a node. Its children are promoted to roots rather
// than re-attached to the grandparent, keeping their subtrees intact.
func (s *Store) Remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return false
	}

	if node.ParentID != nil {
		if parent, ok := s.nodes[*node.ParentID]; ok {
			parent.Children = removeID(parent.Children, id)
		}
	}

	for _, childID := range node.Children {
		child, ok := s.nodes[childID]
		if !ok {
			continue
		}
		child.ParentID = nil
		delete(child.Relationships, id)
	}

	delete(s.nodes, id)
	s.logger.Debug("removed node",
		zap.Uint64("id", id),
		zap.Int("promoted_children", len(node.Children)),
	)
	return true
}

// Get returns a copy of the node.
func (s *Store) Get(id uint64) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return Node{}, &NotFoundError{ID: id}
	}
	return node.clone(), nil
}

// IDs returns every node id in ascending order.
func (s *Store) IDs() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len reports the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// FindByName looks a node up by title, exact case-insensitive first.
// With fuzzyMatch enabled, the closest title above the cutoff wins.
func (s *Store) FindByName(name string, fuzzyMatch bool) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return 0, false
	}

	for _, id := range s.sortedIDs() {
		if strings.ToLower(s.nodes[id].Title) == lowered {
			return id, true
		}
	}

	if !fuzzyMatch {
		return 0, false
	}

	bestID := uint64(0)
	bestScore := 0.0
	for _, id := range s.sortedIDs() {
		score := fuzzy.Ratio(lowered, strings.ToLower(s.nodes[id].Title))
		if score > bestScore {
			bestID = id
			bestScore = score
		}
	}
	if bestScore < findByNameCutoff {
		return 0, false
	}
	return bestID, true
}

// IDForFilename returns the id of the node persisted under filename.
func (s *Store) IDForFilename(filename string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, node := range s.nodes {
		if node.Filename == filename {
			return id, true
		}
	}
	return 0, false
}

// Recent returns up to n ids ordered by modification time, newest
// first, ties broken by higher id. A non-positive n returns every id.
func (s *Store) Recent(n int) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := s.nodes[ids[i]], s.nodes[ids[j]]
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.After(b.ModifiedAt)
		}
		return a.ID > b.ID
	})
	if n > 0 && n < len(ids) {
		ids = ids[:n]
	}
	return ids
}

// Neighbors lists a node's parent and up to limit children, each with
// the relationship label phrased from the neighbor's perspective.
func (s *Store) Neighbors(id uint64, limit int) ([]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	if limit <= 0 {
		limit = DefaultNeighborLimit
	}

	var neighbors []Neighbor
	if node.ParentID != nil {
		if parent, ok := s.nodes[*node.ParentID]; ok {
			neighbors = append(neighbors, Neighbor{
				ID:           parent.ID,
				Title:        parent.Title,
				Summary:      parent.Summary,
				Relationship: node.Relationships[parent.ID],
				IsParent:     true,
			})
		}
	}

	childCount := 0
	for _, childID := range node.Children {
		if childCount >= limit {
			break
		}
		child, ok := s.nodes[childID]
		if !ok {
			continue
		}
		childCount++
		neighbors = append(neighbors, Neighbor{
			ID:           child.ID,
			Title:        child.Title,
			Summary:      child.Summary,
			Relationship: child.Relationships[id],
		})
	}
	return neighbors, nil
}

// ByBranchingFactor returns up to limit ids ordered by child count,
// highest first, ties broken by lower id.
func (s *Store) ByBranchingFactor(limit int) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := s.nodes[ids[i]], s.nodes[ids[j]]
		if len(a.Children) != len(b.Children) {
			return len(a.Children) > len(b.Children)
		}
		return a.ID < b.ID
	})
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}

// Restore loads previously persisted nodes wholesale, preserving ids,
// filenames and timestamps, and advances the id counter past the
// highest restored id.
func (s *Store) Restore(nodes []Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range nodes {
		n := nodes[i].clone()
		s.nodes[n.ID] = &n
		if n.ID >= s.nextID {
			s.nextID = n.ID + 1
		}
	}
}

// SetContentSummary is the synchronizer's path for absorbing external
// artifact edits without touching timestamps beyond ModifiedAt.
func (s *Store) SetContentSummary(id uint64, content, summary string, modifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	node.Content = content
	node.Summary = summary
	node.ModifiedAt = modifiedAt
	return nil
}

func (s *Store) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func removeID(ids []uint64, id uint64) []uint64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func slugify(title string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(title), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "node"
	}
	return s
}
