package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/meteo-dashboard/internal/api/http"
	"github.com/i474232898/meteo-dashboard/internal/barometer"
	"github.com/i474232898/meteo-dashboard/internal/config"
	"github.com/i474232898/meteo-dashboard/internal/logging"
	"github.com/i474232898/meteo-dashboard/internal/scheduler"
	"github.com/i474232898/meteo-dashboard/internal/sodar"
	"github.com/i474232898/meteo-dashboard/internal/store"
	"github.com/i474232898/meteo-dashboard/internal/weather"
	"github.com/i474232898/meteo-dashboard/internal/weather/upstream"
)

const appName = "meteo-dashboard"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logging.New(cfg, appName)
	slog.SetDefault(lg)

	// Shared HTTP client for data API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := upstream.NewClient(httpClient, cfg.UpstreamURL, upstream.BackoffConfig{
		MaxRetries:      cfg.UpstreamMaxRetries,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	})

	// In-memory snapshot store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	service := weather.NewService(memStore, client, weather.Options{
		PageSize:    cfg.PageSize,
		SnapshotTTL: cfg.SnapshotTTL,
		Logger:      lg,
	})

	sched := scheduler.New(cfg.RefreshInterval, service, lg)
	if err := sched.Start(); err != nil {
		lg.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, service)

	// The importers' stores can serve the data API from the same process.
	var (
		pressure httpapi.PressureStore
		wind     httpapi.WindStore
	)
	if cfg.BarometerDBPath != "" {
		repo, err := barometer.NewSQLiteRepository(cfg.BarometerDBPath, lg)
		if err != nil {
			lg.Error("failed to open barometer database", "path", cfg.BarometerDBPath, "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		pressure = repo
	}
	if cfg.Influx.Enabled() {
		influxStore, err := sodar.NewInfluxStore(cfg.Influx)
		if err != nil {
			lg.Error("failed to create influx client", "addr", cfg.Influx.Addr, "error", err)
			os.Exit(1)
		}
		defer influxStore.Close()
		if err := influxStore.Ping(time.Second); err != nil {
			lg.Warn("influx not reachable", "addr", cfg.Influx.Addr, "error", err)
		}
		wind = influxStore
	}
	if pressure != nil || wind != nil {
		httpapi.RegisterSourceRoutes(app, pressure, wind)
	}

	go func() {
		lg.Info("listening", "port", cfg.Port, "source", client.Name(), "upstream", cfg.UpstreamURL)
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", "error", err)
	}
}
