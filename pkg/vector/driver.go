// Package vector provides interfaces and implementations for vector storage and embedding.
package vector

import "context"

// Document represents a stored item with its embedding and source text.
type Document struct {
	// ID is the node id this document corresponds to.
	ID uint64

	// Text is the lexical document the embedding was computed from.
	Text string

	// Embedding is the vector representation of the document content.
	Embedding []float32
}

// Match represents a search result with similarity score.
type Match struct {
	// ID is the node id of the matched document.
	ID uint64

	// Score represents the similarity score (higher = more similar).
	Score float64
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Upsert stores documents with their embeddings. A document with
	// an existing ID replaces the stored one, so re-indexing the same
	// node is idempotent.
	Upsert(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)

	// Delete removes documents by their IDs. Unknown ids are ignored.
	Delete(ctx context.Context, ids []uint64) error

	// ListIDs returns the ids of every stored document, for
	// reconciling the store against the forest.
	ListIDs(ctx context.Context) ([]uint64, error)

	// Close releases any resources held by the driver.
	Close() error
}
