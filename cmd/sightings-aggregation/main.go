package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/wildmap/sightings-aggregation/internal/api/http"
	"github.com/wildmap/sightings-aggregation/internal/cache"
	"github.com/wildmap/sightings-aggregation/internal/config"
	"github.com/wildmap/sightings-aggregation/internal/scheduler"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
	"github.com/wildmap/sightings-aggregation/internal/sightings/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Response cache with configured TTL and capacity sweep.
	respCache := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheEvictCount)

	// Provider registry. A provider missing its credential is excluded here
	// so requests degrade to the remaining provider instead of failing.
	var provs []sightings.Provider

	if cfg.AvianAPIKey != "" {
		provs = append(provs, providers.NewAvianClient(httpClient, cfg.AvianAPIKey))
	} else {
		log.Println("avian provider disabled: AVIAN_API_KEY not set")
	}
	provs = append(provs, providers.NewMultiTaxaClient(httpClient))

	// Core service orchestrating providers, dedup and the cache.
	service := sightings.NewService(respCache, provs)

	// Scheduler that keeps configured hot viewports cached.
	sched := scheduler.New(cfg.WarmViewports, cfg.WarmInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sightings-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sightings-aggregation",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
