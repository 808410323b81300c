package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/postgres/v3"

	"cems/internal/api"
	"cems/internal/config"
	"cems/internal/database"
	"cems/internal/logger"
	"cems/internal/middleware"
	"cems/internal/repository"
	"cems/internal/telemetry"
	"cems/internal/validator"
)

func main() {
	cfg := config.Load()
	logger.New(cfg)

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Session storage shares the application database.
	sessionStorage := postgres.New(postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		Username: cfg.Database.User,
		Password: cfg.Database.Password,
		Table:    "sessions",
		Reset:    false,
	})

	store := session.New(session.Config{
		Storage:        sessionStorage,
		KeyLookup:      "cookie:" + cfg.Session.CookieName,
		CookiePath:     "/",
		CookieSecure:   cfg.Session.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     cfg.Session.Expiration,
	})

	repo := repository.NewPostgresRepository(db)
	handler := api.NewHandler(store, repo, validator.New())

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: true,
	})

	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.Logger())
	if cfg.Telemetry.Enabled {
		app.Use(telemetry.FiberMiddleware(cfg.Telemetry.ServiceName))
	}

	// Rate limiting for the credential endpoints.
	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts. Please try again later.",
			})
		},
	})

	api.RegisterRoutes(app, &handler, store, repo, api.RouterConfig{
		AuthLimiter: authLimiter,
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	go func() {
		slog.Info("Starting HTTP server", "addr", addr)
		if err := app.Listen(addr); err != nil && !errors.Is(err, fiber.ErrServiceUnavailable) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}

	slog.Info("Server exited")
}
