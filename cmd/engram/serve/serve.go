// Package servecmder provides the serve command for running the engram
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/api"
	"github.com/engramlabs/engram/pkg/config"
	"github.com/engramlabs/engram/pkg/embeddings"
	embedollama "github.com/engramlabs/engram/pkg/embeddings/ollama"
	"github.com/engramlabs/engram/pkg/eventstream"
	"github.com/engramlabs/engram/pkg/eventstream/kafka"
	"github.com/engramlabs/engram/pkg/eventstream/nop"
	"github.com/engramlabs/engram/pkg/llm/provider/ollama"
	"github.com/engramlabs/engram/pkg/logger"
	"github.com/engramlabs/engram/pkg/memory"
	"github.com/engramlabs/engram/pkg/memory/recency"
	"github.com/engramlabs/engram/pkg/memory/semantic"
	"github.com/engramlabs/engram/pkg/store"
	"github.com/engramlabs/engram/pkg/store/inmemory"
	"github.com/engramlabs/engram/pkg/store/postgres"
	"github.com/engramlabs/engram/pkg/store/sqlite"
	"github.com/engramlabs/engram/pkg/vector/sqlitevec"
)

// serveFlags registers the flags the serve command exposes and the viper
// keys they override.
var serveFlags = config.FlagSet{
	config.FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagStorageBackend: {
		Name:        "storage-backend",
		ViperKey:    "storage.backend",
		Description: "Document store backend (memory, sqlite, postgres)",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to the SQLite database file",
	},
	config.FlagPostgresDSN: {
		Name:        "postgres-dsn",
		ViperKey:    "storage.postgres_dsn",
		Description: "PostgreSQL connection string",
	},
	config.FlagLLMBaseURL: {
		Name:        "llm-base-url",
		ViperKey:    "llm.base_url",
		Description: "Ollama server URL for completions",
	},
	config.FlagLLMModel: {
		Name:        "llm-model",
		Shorthand:   "m",
		ViperKey:    "llm.model",
		Description: "Chat model name",
	},
	config.FlagShortTermWindow: {
		Name:        "short-term-window",
		ViperKey:    "memory.short_term_window",
		Description: "Number of recent messages echoed into the prompt",
	},
	config.FlagSummarizeEvery: {
		Name:        "summarize-every",
		ViperKey:    "memory.summarize_every",
		Description: "Create a session summary every Nth user turn",
	},
	config.FlagEpisodeTopK: {
		Name:        "episode-top-k",
		ViperKey:    "memory.episode_top_k",
		Description: "Number of episodic facts recalled per turn",
	},
	config.FlagRecall: {
		Name:        "recall",
		ViperKey:    "memory.recall",
		Description: "Episodic recall strategy (recency, semantic)",
	},
	config.FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model name (semantic recall only)",
	},
	config.FlagEmbeddingDims: {
		Name:        "embedding-dimensions",
		ViperKey:    "embedding.dimensions",
		Description: "Embedding vector width (semantic recall only)",
	},
	config.FlagVectorStorePath: {
		Name:        "vector-store-path",
		ViperKey:    "vector_store.path",
		Description: "Path to the vector index database (semantic recall only)",
	},
	config.FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Turn event publisher (nop, kafka)",
	},
	config.FlagEventsBrokers: {
		Name:        "events-brokers",
		ViperKey:    "events.brokers",
		Description: "Comma-separated Kafka broker addresses",
	},
}

var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagStorageBackend,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagLLMBaseURL,
	config.FlagLLMModel,
	config.FlagShortTermWindow,
	config.FlagSummarizeEvery,
	config.FlagEpisodeTopK,
	config.FlagRecall,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagVectorStorePath,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}

type ServeCommander struct {
	listen          string
	storageBackend  string
	sqlitePath      string
	postgresDSN     string
	llmBaseURL      string
	llmModel        string
	shortTermWindow int
	summarizeEvery  int
	episodeTopK     int
	recall          string
	embeddingModel  string
	embeddingDims   uint
	vectorStorePath string
	eventsProvider  string
	eventsBrokers   string
	debug           bool

	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the engram API server.

The server exposes the chat endpoint plus memory inspection endpoints and
composes every reply from the three memory tiers (short-term window,
long-term summaries, episodic facts).

Examples:
  engram serve
  engram serve --storage-backend sqlite --sqlite ./engram.db
  engram serve --recall semantic --vector-store-path ./vectors.db`

const serveShortDesc string = "Run the engram API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			cmder.cfg, err = config.FromViper(v)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageBackend, &cmder.storageBackend)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMBaseURL, &cmder.llmBaseURL)
	config.AddStringFlag(cmd, serveFlags, config.FlagLLMModel, &cmder.llmModel)
	config.AddIntFlag(cmd, serveFlags, config.FlagShortTermWindow, &cmder.shortTermWindow)
	config.AddIntFlag(cmd, serveFlags, config.FlagSummarizeEvery, &cmder.summarizeEvery)
	config.AddIntFlag(cmd, serveFlags, config.FlagEpisodeTopK, &cmder.episodeTopK)
	config.AddStringFlag(cmd, serveFlags, config.FlagRecall, &cmder.recall)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStorePath, &cmder.vectorStorePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsBrokers, &cmder.eventsBrokers)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithJSON(true))

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	generator := ollama.New(ollama.Config{
		BaseURL: c.cfg.LLM.BaseURL,
		Model:   c.cfg.LLM.Model,
		Timeout: time.Duration(c.cfg.LLM.TimeoutSeconds) * time.Second,
	})

	events, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer events.Close()

	recaller, indexer, embedder, err := c.newRecaller(st)
	if err != nil {
		return err
	}
	if embedder != nil {
		defer embedder.Close()
	}

	composer, err := memory.NewComposer(st, generator, recaller, events, c.logger, memory.Options{
		ShortTermWindow: c.cfg.Memory.ShortTermWindow,
		SummarizeEvery:  c.cfg.Memory.SummarizeEvery,
		EpisodeTopK:     c.cfg.Memory.EpisodeTopK,
	})
	if err != nil {
		return fmt.Errorf("creating composer: %w", err)
	}
	if indexer != nil {
		composer.SetIndexer(indexer)
	}

	server, err := api.NewServer(api.Config{ListenAddr: c.cfg.Server.Listen}, st, composer, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("starting engram",
		"listen", c.cfg.Server.Listen,
		"storage", c.cfg.Storage.Backend,
		"model", c.cfg.LLM.Model,
		"recall", c.cfg.Memory.Recall,
		"events", c.cfg.Events.Provider,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

func (c *ServeCommander) newStore(ctx context.Context) (store.Store, error) {
	switch c.cfg.Storage.Backend {
	case config.BackendSQLite:
		if c.cfg.Storage.SQLitePath == "" {
			return nil, fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
		st, err := sqlite.New(c.cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite store: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", c.cfg.Storage.SQLitePath)
		return st, nil

	case config.BackendPostgres:
		if c.cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		st, err := postgres.New(ctx, c.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating PostgreSQL store: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return st, nil

	case config.BackendMemory:
		c.logger.Info("using in-memory storage")
		return inmemory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %q", c.cfg.Storage.Backend)
	}
}

// newRecaller builds the episodic recall strategy. For semantic recall it
// also returns the indexer and the embedder so the caller can wire and
// close them.
func (c *ServeCommander) newRecaller(st store.Store) (memory.Recaller, memory.Indexer, embeddings.Embedder, error) {
	switch c.cfg.Memory.Recall {
	case config.RecallSemantic:
		embedder := embedollama.NewEmbedder(embedollama.Config{
			BaseURL: c.cfg.Embedding.BaseURL,
			Model:   c.cfg.Embedding.Model,
		})

		vectorPath := c.cfg.VectorStore.Path
		if vectorPath == "" {
			vectorPath = ":memory:"
		}
		vectors, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     vectorPath,
			Dimensions: c.cfg.Embedding.Dimensions,
		}, c.logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating vector store: %w", err)
		}

		recaller := semantic.New(embedder, vectors, st)
		c.logger.Info("using semantic recall",
			"embedding_model", c.cfg.Embedding.Model,
			"vector_store", vectorPath,
		)
		return recaller, recaller, embedder, nil

	case config.RecallRecency, "":
		return recency.New(st), nil, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown recall strategy: %q", c.cfg.Memory.Recall)
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.cfg.Events.Provider {
	case config.EventsKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: c.cfg.Events.BrokerList(),
			Topic:   c.cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing turn events to kafka",
			"brokers", c.cfg.Events.Brokers,
			"topic", c.cfg.Events.Topic,
		)
		return pub, nil

	case config.EventsNop, "":
		return nop.NewPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown events provider: %q", c.cfg.Events.Provider)
	}
}
