// Package main provides the HTTP server for the loan decision API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/handlers"
	"loan-decision-explainer/internal/metrics"
	"loan-decision-explainer/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger first
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := handlers.Bootstrap(ctx, cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to start", utils.Error(err))
	}
	defer deps.Close()

	metrics.Init()

	api := handlers.NewAPI(deps.Pipeline, deps.APIOptions())
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           newHandler(api, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	utils.Logger.Info("Loan decision API server starting",
		utils.String("addr", srv.Addr),
		utils.String("model", deps.Pipeline.Info.Name),
		utils.String("modelVersion", deps.Pipeline.Info.Version),
		utils.Bool("database", deps.DB != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Server failed", utils.Error(err))
		}
	case <-ctx.Done():
		utils.Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Logger.Error("Graceful shutdown failed", utils.Error(err))
		}
	}
}

// newHandler mounts the API and the metrics endpoint behind CORS.
func newHandler(api *handlers.API, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", api.Routes())
	mux.Handle("GET /metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
	})

	return c.Handler(mux)
}
