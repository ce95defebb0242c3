// Package ollama embeds text through an Ollama server's embedding API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arborhq/arbor/pkg/embeddings"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "nomic-embed-text"

	// DefaultTarget is the Ollama server URL used when none is configured.
	DefaultTarget = "http://localhost:11434"

	// Embedding a cold model can pull weights on the server side, so
	// the request timeout is generous.
	requestTimeout = 120 * time.Second

	errBodyLimit = 512
)

// Config addresses an Ollama server and names the embedding model.
// Zero values fall back to the defaults above.
type Config struct {
	Target string
	Model  string
}

// Embedder turns text into vectors via an Ollama server. Safe to share
// across goroutines; all state is set at construction.
type Embedder struct {
	target string
	model  string
	client *http.Client
}

func NewEmbedder(cfg Config) (*Embedder, error) {
	target := strings.TrimRight(cfg.Target, "/")
	if target == "" {
		target = DefaultTarget
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Embedder{
		target: target,
		model:  model,
		client: &http.Client{Timeout: requestTimeout},
	}, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed requests a single embedding for text. Every failure wraps
// embeddings.ErrEmbed so callers can degrade on the class, not the
// message.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", embeddings.ErrEmbed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.target+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", embeddings.ErrEmbed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrEmbed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, fmt.Errorf("%w: ollama status %d: %s",
			embeddings.ErrEmbed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrEmbed, err)
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: server returned no embeddings", embeddings.ErrEmbed)
	}

	return out.Embeddings[0], nil
}

// Close is a no-op; the HTTP client holds nothing to release.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
