// Package config holds the engram configuration: TOML file, ENGRAM_
// environment variables, and CLI flags, merged through viper.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the persistent engram configuration, stored as config.toml in
// the .engram directory.
// The TOML layout uses sections for logical grouping.
type Config struct {
	Server      ServerConfig      `toml:"server" mapstructure:"server"`
	Storage     StorageConfig     `toml:"storage" mapstructure:"storage"`
	LLM         LLMConfig         `toml:"llm" mapstructure:"llm"`
	Memory      MemoryConfig      `toml:"memory" mapstructure:"memory"`
	Embedding   EmbeddingConfig   `toml:"embedding" mapstructure:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store" mapstructure:"vector_store"`
	Events      EventsConfig      `toml:"events" mapstructure:"events"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty" mapstructure:"listen"`
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite", "postgres".
	Backend     string `toml:"backend,omitempty" mapstructure:"backend"`
	SQLitePath  string `toml:"sqlite_path,omitempty" mapstructure:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn,omitempty" mapstructure:"postgres_dsn"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	BaseURL        string `toml:"base_url,omitempty" mapstructure:"base_url"`
	Model          string `toml:"model,omitempty" mapstructure:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
}

// MemoryConfig tunes the memory pipeline.
type MemoryConfig struct {
	ShortTermWindow int `toml:"short_term_window,omitempty" mapstructure:"short_term_window"`
	SummarizeEvery  int `toml:"summarize_every,omitempty" mapstructure:"summarize_every"`
	EpisodeTopK     int `toml:"episode_top_k,omitempty" mapstructure:"episode_top_k"`

	// Recall is "recency" or "semantic".
	Recall string `toml:"recall,omitempty" mapstructure:"recall"`
}

// EmbeddingConfig holds embedding provider settings (semantic recall only).
type EmbeddingConfig struct {
	BaseURL    string `toml:"base_url,omitempty" mapstructure:"base_url"`
	Model      string `toml:"model,omitempty" mapstructure:"model"`
	Dimensions uint   `toml:"dimensions,omitempty" mapstructure:"dimensions"`
}

// VectorStoreConfig holds vector index settings (semantic recall only).
type VectorStoreConfig struct {
	Path string `toml:"path,omitempty" mapstructure:"path"`
}

// EventsConfig selects the turn event publisher.
type EventsConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty" mapstructure:"provider"`
	Brokers  string `toml:"brokers,omitempty" mapstructure:"brokers"` // comma-separated
	Topic    string `toml:"topic,omitempty" mapstructure:"topic"`
}

// BrokerList splits the comma-separated broker string.
func (e EventsConfig) BrokerList() []string {
	if strings.TrimSpace(e.Brokers) == "" {
		return nil
	}
	parts := strings.Split(e.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(get func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if v := *get(c); v != 0 {
				return strconv.Itoa(v)
			}
			return ""
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer value %q: %w", v, err)
			}
			*get(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"storage.backend": {
		get: func(c *Config) string { return c.Storage.Backend },
		set: func(c *Config, v string) error { c.Storage.Backend = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"llm.base_url": {
		get: func(c *Config) string { return c.LLM.BaseURL },
		set: func(c *Config, v string) error { c.LLM.BaseURL = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.timeout_seconds": intKey(func(c *Config) *int { return &c.LLM.TimeoutSeconds }),
	"memory.short_term_window": intKey(func(c *Config) *int { return &c.Memory.ShortTermWindow }),
	"memory.summarize_every":   intKey(func(c *Config) *int { return &c.Memory.SummarizeEvery }),
	"memory.episode_top_k":     intKey(func(c *Config) *int { return &c.Memory.EpisodeTopK }),
	"memory.recall": {
		get: func(c *Config) string { return c.Memory.Recall },
		set: func(c *Config, v string) error {
			if v != RecallRecency && v != RecallSemantic {
				return fmt.Errorf("invalid recall strategy %q (want %q or %q)", v, RecallRecency, RecallSemantic)
			}
			c.Memory.Recall = v
			return nil
		},
	},
	"embedding.base_url": {
		get: func(c *Config) string { return c.Embedding.BaseURL },
		set: func(c *Config, v string) error { c.Embedding.BaseURL = v; return nil },
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
	"vector_store.path": {
		get: func(c *Config) string { return c.VectorStore.Path },
		set: func(c *Config, v string) error { c.VectorStore.Path = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
