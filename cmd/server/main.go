package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/go-redis/redis/v8"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samuelAmenu/vbcs-backend/internal/alert"
	"github.com/samuelAmenu/vbcs-backend/internal/bus"
	"github.com/samuelAmenu/vbcs-backend/internal/circle"
	"github.com/samuelAmenu/vbcs-backend/internal/classifier"
	"github.com/samuelAmenu/vbcs-backend/internal/config"
	"github.com/samuelAmenu/vbcs-backend/internal/database"
	"github.com/samuelAmenu/vbcs-backend/internal/directory"
	"github.com/samuelAmenu/vbcs-backend/internal/handlers"
	"github.com/samuelAmenu/vbcs-backend/internal/logging"
	"github.com/samuelAmenu/vbcs-backend/internal/middleware"
	"github.com/samuelAmenu/vbcs-backend/internal/presence"
	"github.com/samuelAmenu/vbcs-backend/internal/routes"
	"github.com/samuelAmenu/vbcs-backend/internal/services"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Event bus: Redis-backed when configured, in-process hub otherwise
	var mux bus.Multiplexer
	var redisBus *bus.RedisBus
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		redisBus = bus.NewRedisBus(client)
		mux = redisBus
		slog.Info("event bus: redis", "addr", cfg.RedisAddr)
	} else {
		mux = bus.NewHub()
		slog.Info("event bus: in-process hub")
	}

	// Core services
	identityStore := store.NewGormStore(database.DB)
	circleDirectory := circle.NewDirectory(identityStore, cfg.InviteTTL)
	presenceRouter := presence.NewRouter(identityStore, mux, cfg.StoreTimeout)
	lostController := alert.NewController(identityStore)
	sosBroadcaster := alert.NewBroadcaster(identityStore, mux)
	numberClassifier := classifier.New(
		classifier.NewGormReportStore(database.DB),
		directory.NewGormDirectory(database.DB),
	)
	authService := services.NewAuthService(database.DB, identityStore, cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	circleHandler := handlers.NewCircleHandler(circleDirectory)
	safetyHandler := handlers.NewSafetyHandler(lostController, sosBroadcaster)
	lookupHandler := handlers.NewLookupHandler(numberClassifier)
	healthHandler := handlers.NewHealthHandler()
	wsHandler := handlers.NewWSHandler(cfg, presenceRouter, lostController, sosBroadcaster)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	routes.Setup(app, cfg, authHandler, circleHandler, safetyHandler, lookupHandler, healthHandler, wsHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if redisBus != nil {
		if err := redisBus.Close(); err != nil {
			slog.Error("event bus close error", "error", err)
		}
	}

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
