// Package embeddings
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbed is returned when the embedding provider fails to produce a
// vector for a text.
var ErrEmbed = errors.New("embedding request failed")

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
