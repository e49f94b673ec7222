package config

// Recall strategy names.
const (
	RecallRecency  = "recency"
	RecallSemantic = "semantic"
)

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Events provider names.
const (
	EventsNop   = "nop"
	EventsKafka = "kafka"
)

const (
	defaultListen = ":8080"

	defaultStorageBackend = BackendMemory

	defaultLLMBaseURL        = "http://127.0.0.1:11434"
	defaultLLMModel          = "llama3:8b"
	defaultLLMTimeoutSeconds = 300

	defaultShortTermWindow = 8
	defaultSummarizeEvery  = 5
	defaultEpisodeTopK     = 5
	defaultRecall          = RecallRecency

	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultEventsProvider = EventsNop
	defaultEventsTopic    = "engram.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Storage: StorageConfig{
			Backend: defaultStorageBackend,
		},
		LLM: LLMConfig{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Memory: MemoryConfig{
			ShortTermWindow: defaultShortTermWindow,
			SummarizeEvery:  defaultSummarizeEvery,
			EpisodeTopK:     defaultEpisodeTopK,
			Recall:          defaultRecall,
		},
		Embedding: EmbeddingConfig{
			BaseURL:    defaultLLMBaseURL,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
