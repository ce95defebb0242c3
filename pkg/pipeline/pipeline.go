// Package pipeline drives the ingestion loop. Transcript fragments
// accumulate in the buffer; once enough text is ready it goes to an
// external decision stage, the returned edits are applied to the
// forest with persistence, indexing and event publication, and the
// consumed text is reconciled back out of the buffer.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/buffer"
	"github.com/arborhq/arbor/pkg/eventstream"
	"github.com/arborhq/arbor/pkg/tree"
)

// DefaultContextLimit is how many nodes accompany the buffered text
// into the decision stage.
const DefaultContextLimit = 10

// Indexer receives node ids whose documents need re-embedding.
type Indexer interface {
	QueueUpdate(ctx context.Context, ids ...uint64)
	Flush(ctx context.Context) error
}

// ContextSelector picks the nodes shown to the decision stage.
type ContextSelector interface {
	SelectRelevant(ctx context.Context, limit int) []uint64
}

// ArtifactWriter persists one node per call.
type ArtifactWriter interface {
	WriteNode(node tree.Node, parentFilename string) error
}

// Config holds pipeline tuning. Zero values fall back to the defaults.
type Config struct {
	ContextLimit int
	Source       eventstream.EventSource
}

// Deps are the pipeline's collaborators. Buffer, Store and Stage are
// required; the rest may be nil and their step is skipped.
type Deps struct {
	Buffer   *buffer.Buffer
	Store    *tree.Store
	Stage    DecisionStage
	Writer   ArtifactWriter
	Indexer  Indexer
	Selector ContextSelector
	Events   eventstream.Publisher
	Logger   *zap.Logger
}

// Pipeline applies decision-stage edits to the forest and keeps the
// buffer, vault and index in step.
type Pipeline struct {
	cfg      Config
	buffer   *buffer.Buffer
	store    *tree.Store
	stage    DecisionStage
	writer   ArtifactWriter
	indexer  Indexer
	selector ContextSelector
	events   eventstream.Publisher
	logger   *zap.Logger
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Buffer == nil {
		return nil, fmt.Errorf("buffer is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Stage == nil {
		return nil, fmt.Errorf("decision stage is required")
	}
	if cfg.ContextLimit <= 0 {
		cfg.ContextLimit = DefaultContextLimit
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		buffer:   deps.Buffer,
		store:    deps.Store,
		stage:    deps.Stage,
		writer:   deps.Writer,
		indexer:  deps.Indexer,
		selector: deps.Selector,
		events:   deps.Events,
		logger:   deps.Logger,
	}, nil
}

// Process feeds one transcript fragment through the loop. It returns
// the ids of the nodes the cycle touched; a short buffer returns
// nothing and waits for more text. A decision stage failure leaves the
// buffer intact so the text is retried on the next cycle.
func (p *Pipeline) Process(ctx context.Context, text string) ([]uint64, error) {
	p.buffer.AddText(text)

	chunk, ok := p.buffer.TextReady()
	if !ok {
		return nil, nil
	}

	input := DecisionInput{
		Text:    chunk,
		History: p.buffer.History(0),
		Context: p.contextNodes(ctx),
	}
	decision, err := p.stage.Decide(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("decision stage: %w", err)
	}
	if decision == nil {
		return nil, fmt.Errorf("decision stage returned no decision")
	}

	touched, err := p.apply(ctx, decision.Edits)
	if err != nil {
		return touched, err
	}

	processed := decision.ProcessedText
	if processed == "" {
		processed = chunk
	}
	if _, err := p.buffer.Reconcile(processed); err != nil {
		return touched, fmt.Errorf("reconciling processed text: %w", err)
	}
	p.buffer.SetCarry(decision.IncompleteRemainder)

	p.logger.Debug("processed chunk",
		zap.Int("chunk_len", len(chunk)),
		zap.Int("edits", len(decision.Edits)),
	)
	return touched, nil
}

// Finalize reports text left behind in the buffer and flushes any
// queued index updates.
func (p *Pipeline) Finalize(ctx context.Context) error {
	if n := p.buffer.Len(); n > 0 {
		p.logger.Warn("buffer still holds unprocessed text", zap.Int("buffer_len", n))
	}
	if p.indexer != nil {
		return p.indexer.Flush(ctx)
	}
	return nil
}

func (p *Pipeline) apply(ctx context.Context, edits []Edit) ([]uint64, error) {
	var touched []uint64
	for _, edit := range edits {
		switch e := edit.(type) {
		case CreateEdit:
			id := p.store.Create(e.Title, e.Content, e.Summary, e.ParentID, e.Relationship)
			touched = append(touched, id)
			p.afterEdit(ctx, id, eventstream.EditCreate, e.Content)
		case AppendEdit:
			if err := p.store.AppendContent(e.TargetID, e.Content); err != nil {
				return touched, err
			}
			touched = append(touched, e.TargetID)
			p.afterEdit(ctx, e.TargetID, eventstream.EditAppend, e.Content)
		case ReplaceEdit:
			if err := p.store.ReplaceContent(e.ID, e.Content, e.Summary); err != nil {
				return touched, err
			}
			touched = append(touched, e.ID)
			p.afterEdit(ctx, e.ID, eventstream.EditReplace, e.Content)
		default:
			return touched, fmt.Errorf("unknown edit type %T", edit)
		}
	}
	return touched, nil
}

// afterEdit runs the side effects of a successful edit. Persistence,
// indexing and publication failures degrade to warnings so an edit
// already applied to the forest is never rolled back or blocked.
func (p *Pipeline) afterEdit(ctx context.Context, id uint64, kind eventstream.EditKind, text string) {
	node, err := p.store.Get(id)
	if err != nil {
		return
	}

	if p.writer != nil {
		if err := p.writer.WriteNode(node, p.parentFilename(node)); err != nil {
			p.logger.Warn("writing node artifact failed",
				zap.Uint64("node_id", id), zap.Error(err))
		}
	}
	if p.indexer != nil {
		p.indexer.QueueUpdate(ctx, id)
	}
	if p.events != nil {
		event := eventstream.NewNodeEditEvent(kind, text, node, p.cfg.Source)
		if err := p.events.PublishEdit(ctx, event); err != nil {
			p.logger.Warn("publishing edit event failed",
				zap.Uint64("node_id", id), zap.Error(err))
		}
	}
}

func (p *Pipeline) parentFilename(node tree.Node) string {
	if node.ParentID == nil {
		return ""
	}
	parent, err := p.store.Get(*node.ParentID)
	if err != nil {
		return ""
	}
	return parent.Filename
}

func (p *Pipeline) contextNodes(ctx context.Context) []tree.Node {
	if p.selector == nil {
		return nil
	}
	ids := p.selector.SelectRelevant(ctx, p.cfg.ContextLimit)
	nodes := make([]tree.Node, 0, len(ids))
	for _, id := range ids {
		node, err := p.store.Get(id)
		if err != nil {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}
