package pipeline

import (
	"context"

	"github.com/arborhq/arbor/pkg/tree"
)

// Edit is one structured change to the forest returned by a decision
// stage.
type Edit interface {
	isEdit()
}

// CreateEdit adds a node. A nil ParentID creates a root.
type CreateEdit struct {
	ParentID     *uint64
	Title        string
	Content      string
	Summary      string
	Relationship string
}

// AppendEdit grows an existing node's content.
type AppendEdit struct {
	TargetID uint64
	Content  string
}

// ReplaceEdit swaps a node's content and summary together.
type ReplaceEdit struct {
	ID      uint64
	Content string
	Summary string
}

func (CreateEdit) isEdit()  {}
func (AppendEdit) isEdit()  {}
func (ReplaceEdit) isEdit() {}

// DecisionInput is what a decision stage sees: the ready buffer text,
// the bounded transcript history and a context window of nodes.
type DecisionInput struct {
	Text    string
	History string
	Context []tree.Node
}

// Decision is a stage's answer. ProcessedText is the portion of the
// input the stage consumed, possibly paraphrased; when empty the whole
// input counts as consumed. IncompleteRemainder is re-fed into the
// buffer on the next fragment.
type Decision struct {
	Edits               []Edit
	ProcessedText       string
	IncompleteRemainder string
}

// DecisionStage turns buffered text plus tree context into edits. The
// stage itself, typically an LLM workflow, lives outside this module.
type DecisionStage interface {
	Decide(ctx context.Context, input DecisionInput) (*Decision, error)
}
