package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/arborhq/arbor/pkg/tree"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeNodeEdited is emitted after a node edit is applied to the forest.
	EventTypeNodeEdited = "arbor.node.edited"
)

// EditKind names the edit applied to a node.
type EditKind string

const (
	EditCreate  EditKind = "create"
	EditAppend  EditKind = "append"
	EditReplace EditKind = "replace"
	EditRemove  EditKind = "remove"
)

// NodeEditEvent is a transport-neutral event payload for an applied node edit.
type NodeEditEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Edit          NodeEditMeta `json:"edit"`
	Node          NodeMeta     `json:"node"`
}

// EventSource identifies which vault the edit originated from.
type EventSource struct {
	Vault string `json:"vault,omitempty"`
	Host  string `json:"host,omitempty"`
}

// NodeEditMeta captures the edit itself.
type NodeEditMeta struct {
	Kind EditKind `json:"kind"`
	Text string   `json:"text,omitempty"`
}

// NodeMeta captures the state of the edited node.
type NodeMeta struct {
	ID       uint64  `json:"id"`
	Title    string  `json:"title"`
	ParentID *uint64 `json:"parent_id,omitempty"`
	Filename string  `json:"filename,omitempty"`
}

// NewNodeEditEvent builds an event for an applied edit with a fresh
// event id.
func NewNodeEditEvent(kind EditKind, text string, node tree.Node, source EventSource) *NodeEditEvent {
	return &NodeEditEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeNodeEdited,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Edit:          NodeEditMeta{Kind: kind, Text: text},
		Node: NodeMeta{
			ID:       node.ID,
			Title:    node.Title,
			ParentID: node.ParentID,
			Filename: node.Filename,
		},
	}
}
