package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent arbor configuration stored as config.toml
// in the .arbor/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Vault       VaultConfig       `toml:"vault"`
	Buffer      BufferConfig      `toml:"buffer"`
	Search      SearchConfig      `toml:"search"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Events      EventsConfig      `toml:"events"`
}

// VaultConfig holds the markdown vault settings.
type VaultConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// BufferConfig holds streaming buffer tuning.
type BufferConfig struct {
	FlushThreshold      int     `toml:"flush_threshold,omitempty"`
	SimilarityThreshold float64 `toml:"similarity_threshold,omitempty"`
	HistoryMultiplier   int     `toml:"history_multiplier,omitempty"`
}

// SearchConfig holds relevance selection settings.
type SearchConfig struct {
	ContextLimit int `toml:"context_limit,omitempty"`
	NodeLimit    int `toml:"node_limit,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Host     string `toml:"host,omitempty"`
	Port     int    `toml:"port,omitempty"`
	DBPath   string `toml:"db_path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// EventsConfig holds edit event publishing settings.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(get func(c *Config) int, set func(c *Config, n int)) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.Itoa(get(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value %q: %w", v, err)
			}
			set(c, n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"vault.dir": {
		get: func(c *Config) string { return c.Vault.Dir },
		set: func(c *Config, v string) error { c.Vault.Dir = v; return nil },
	},
	"buffer.flush_threshold": intKey(
		func(c *Config) int { return c.Buffer.FlushThreshold },
		func(c *Config, n int) { c.Buffer.FlushThreshold = n },
	),
	"buffer.similarity_threshold": {
		get: func(c *Config) string {
			if c.Buffer.SimilarityThreshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Buffer.SimilarityThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for buffer.similarity_threshold: %w", err)
			}
			c.Buffer.SimilarityThreshold = f
			return nil
		},
	},
	"buffer.history_multiplier": intKey(
		func(c *Config) int { return c.Buffer.HistoryMultiplier },
		func(c *Config, n int) { c.Buffer.HistoryMultiplier = n },
	),
	"search.context_limit": intKey(
		func(c *Config) int { return c.Search.ContextLimit },
		func(c *Config, n int) { c.Search.ContextLimit = n },
	),
	"search.node_limit": intKey(
		func(c *Config) int { return c.Search.NodeLimit },
		func(c *Config, n int) { c.Search.NodeLimit = n },
	),
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.host": {
		get: func(c *Config) string { return c.VectorStore.Host },
		set: func(c *Config, v string) error { c.VectorStore.Host = v; return nil },
	},
	"vector_store.port": intKey(
		func(c *Config) int { return c.VectorStore.Port },
		func(c *Config, n int) { c.VectorStore.Port = n },
	),
	"vector_store.db_path": {
		get: func(c *Config) string { return c.VectorStore.DBPath },
		set: func(c *Config, v string) error { c.VectorStore.DBPath = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
