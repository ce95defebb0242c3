// Package tree holds the in-memory knowledge forest: concept nodes
// linked parent-to-child with labeled relationships.
package tree

import "time"

// Node is a single concept in the forest. IDs are monotonic and never
// reused. Filename is assigned at creation and never changes, so
// artifacts on disk stay stable across renames.
type Node struct {
	ID            uint64
	Title         string
	Content       string
	Summary       string
	ParentID      *uint64
	Children      []uint64
	Relationships map[uint64]string
	CreatedAt     time.Time
	ModifiedAt    time.Time
	Tags          []string
	Color         string
	Filename      string
	AppendCount   uint32
}

// clone returns a deep copy so callers can never mutate store state
// through a returned node.
func (n *Node) clone() Node {
	out := *n
	if n.ParentID != nil {
		pid := *n.ParentID
		out.ParentID = &pid
	}
	out.Children = append([]uint64(nil), n.Children...)
	out.Tags = append([]string(nil), n.Tags...)
	if n.Relationships != nil {
		out.Relationships = make(map[uint64]string, len(n.Relationships))
		for k, v := range n.Relationships {
			out.Relationships[k] = v
		}
	}
	return out
}

// Neighbor describes a node adjacent to some origin node, with the
// relationship label phrased from the neighbor's side of the edge.
type Neighbor struct {
	ID           uint64
	Title        string
	Summary      string
	Relationship string
	IsParent     bool
}
