/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the wage arrears API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, YAML file, environment)
  2. Initialize logger and SQLite reference-data cache
  3. Create fetchers, loader and API handler
  4. Start the reference-data refresh scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional; environment alone works)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (shutdown_timeout)
  3. Stop the scheduler and close the database
  4. Exit

ENVIRONMENT:
  ARREARS_ENV, ARREARS_DB_PATH, ARREARS_HTTP_ADDRESS and the rest listed
  in config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
  - source/loader.go: Reference data
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/warp/wage-arrears/api"
	"github.com/warp/wage-arrears/config"
	"github.com/warp/wage-arrears/source"
	"github.com/warp/wage-arrears/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("ARREARS_CONFIG"), "YAML configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := setupLogger(cfg.Env)
	defer log.Sync()
	zap.ReplaceGlobals(log)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	client := &http.Client{Timeout: cfg.FetchTimeout}
	loader := source.NewLoader(store,
		source.NewXMLCalendar(client).WithURL(cfg.CalendarURL),
		source.NewCBRKeyRates(client).WithURL(cfg.KeyRateURL),
		log.Named("source"),
	)

	handler := api.NewHandler(store, loader, log.Named("api"))
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		Timeout:        cfg.Timeout,
	})

	scheduler := api.NewRefreshScheduler(loader, log.Named("scheduler"))
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout + cfg.FetchTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", zap.String("address", cfg.Address), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func setupLogger(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	switch env {
	case config.EnvProd:
		log, err = zap.NewProduction()
	default:
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}
