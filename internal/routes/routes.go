package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/cardano-ai-auditor/midnight-wallet/internal/config"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/ledger"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/middleware"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/notification"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/storage"
	"github.com/cardano-ai-auditor/midnight-wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Store  storage.Store
	Cache  *redis.Client
	Logger *slog.Logger
	// StreamCtx ends open event streams when cancelled.
	StreamCtx context.Context
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("storage backend is required")
	}
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger, "/healthz"))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	led := ledger.New(context.Background(), d.Store,
		ledger.WithKey(d.Cfg.BalanceKey),
		ledger.WithLogger(d.Logger.With(slog.String("component", "ledger"))),
	)
	watcher := notification.NewBalanceWatcher(notification.NewLoggerNotifier(d.Logger), led.Key(), d.Logger)
	led.OnBalanceChange(watcher.Observe)

	walletSvc := wallet.NewService(led)
	walletHandler := wallet.NewHandler(walletSvc, d.StreamCtx, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, walletHandler, middleware.RateLimit(d.Cache, d.Cfg.RateLimit, "wallet"))

	return nil
}
