package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/config"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/routes"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app          *fiber.App
	cfg          config.Config
	store        storage.Store
	cache        *redis.Client
	closeStreams context.CancelFunc
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, store storage.Store, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
		// Event streams stay open; idle connections are still reaped.
		IdleTimeout:           2 * time.Minute,
		DisableStartupMessage: !cfg.IsDev(),
	})

	streamCtx, closeStreams := context.WithCancel(context.Background())
	deps := routes.Deps{Cfg: cfg, Store: store, Cache: cache, Logger: logger, StreamCtx: streamCtx}
	if err := routes.Setup(app, deps); err != nil {
		closeStreams()
		return nil, err
	}

	return &Server{app: app, cfg: cfg, store: store, cache: cache, closeStreams: closeStreams}, nil
}

// App exposes the underlying Fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown ends open event streams and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeStreams()
	return s.app.ShutdownWithContext(ctx)
}
