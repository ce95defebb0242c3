package config

import "github.com/arborhq/arbor/pkg/buffer"

const (
	defaultVaultDir = "markdownTreeVault"

	defaultContextLimit = 10
	defaultNodeLimit    = 30

	defaultVectorProvider = "sqlite"
	defaultVectorDBPath   = "arbor.db"
	defaultChromaTarget   = "http://localhost:8000"
	defaultQdrantHost     = "localhost"
	defaultQdrantPort     = 6334

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultEventsTopic = "arbor.edits"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Vault: VaultConfig{
			Dir: defaultVaultDir,
		},
		Buffer: BufferConfig{
			FlushThreshold:      buffer.DefaultFlushThreshold,
			SimilarityThreshold: buffer.DefaultSimilarityThreshold,
			HistoryMultiplier:   buffer.DefaultHistoryMultiplier,
		},
		Search: SearchConfig{
			ContextLimit: defaultContextLimit,
			NodeLimit:    defaultNodeLimit,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
			Target:   defaultChromaTarget,
			Host:     defaultQdrantHost,
			Port:     defaultQdrantPort,
			DBPath:   defaultVectorDBPath,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   defaultEventsTopic,
		},
	}
}
