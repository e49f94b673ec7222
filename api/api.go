package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/engramlabs/engram/pkg/memory"
	"github.com/engramlabs/engram/pkg/store"
)

// Server is the HTTP API server fronting the memory composer.
type Server struct {
	config   Config
	store    store.Store
	composer *memory.Composer
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The store is injected separately from the composer so the memory
// inspection endpoints can read directly without going through a turn.
func NewServer(config Config, st store.Store, composer *memory.Composer, logger *slog.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if composer == nil {
		return nil, errors.New("composer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	s := &Server{
		config:   config,
		store:    st,
		composer: composer,
		logger:   logger,
		app:      app,
	}

	app.Get("/health", s.handleHealth)
	app.Post("/api/chat", s.handleChat)
	app.Get("/api/memory/:user_id", s.handleMemory)
	app.Get("/api/aggregate/:user_id", s.handleAggregate)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
