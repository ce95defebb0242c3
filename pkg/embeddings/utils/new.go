// Package embeddingutils constructs the configured embedding provider.
package embeddingutils

import (
	"fmt"

	"github.com/arborhq/arbor/pkg/embeddings"
	"github.com/arborhq/arbor/pkg/embeddings/ollama"
)

// NewEmbedderOpts selects and addresses an embedding provider.
type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
}

// NewEmbedder builds the embedder named by ProviderType. Ollama is the
// only provider today; the switch is where the next one lands.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.Config{
			Target: o.TargetURL,
			Model:  o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
