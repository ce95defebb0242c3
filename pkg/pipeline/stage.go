package pipeline

import (
	"context"
	"strings"
)

// chunkTitleWords bounds how many leading words name a chunk node.
const chunkTitleWords = 6

// ChunkStage is a minimal built-in decision stage: every ready chunk
// becomes one root node titled after its leading words. It gives the
// loop a deterministic default when no richer stage is wired in.
type ChunkStage struct{}

func NewChunkStage() *ChunkStage {
	return &ChunkStage{}
}

func (s *ChunkStage) Decide(_ context.Context, input DecisionInput) (*Decision, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return &Decision{}, nil
	}

	return &Decision{
		Edits: []Edit{
			CreateEdit{Title: chunkTitle(text), Content: text},
		},
	}, nil
}

// chunkTitle takes the first few words of the chunk, stripped of
// trailing punctuation.
func chunkTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > chunkTitleWords {
		words = words[:chunkTitleWords]
	}
	title := strings.Join(words, " ")
	return strings.TrimRight(title, ".!?,;:")
}
