// Package api serves the leader file catalog, decoder and archive over
// HTTP.
//
// Routes under /api/v1 require the X-API-Key header. /metrics is left open
// for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the router with all routes configured
func NewRouter(server *Server) http.Handler {
	metrics := server.metrics
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(server.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(server.config.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Catalog
		r.Get("/layouts", metrics.InstrumentHandler("GET", "/api/v1/layouts", server.handleListLayouts))
		r.Get("/layouts/{name}", metrics.InstrumentHandler("GET", "/api/v1/layouts/{name}", server.handleGetLayout))

		// Decoding
		r.Post("/decode", metrics.InstrumentHandler("POST", "/api/v1/decode", server.handleDecode))

		// Archive
		r.Post("/scans", metrics.InstrumentHandler("POST", "/api/v1/scans", server.handleIngest))
		r.Get("/scans", metrics.InstrumentHandler("GET", "/api/v1/scans", server.handleListScans))
		r.Get("/scans/{id}", metrics.InstrumentHandler("GET", "/api/v1/scans/{id}", server.handleGetScan))
		r.Delete("/scans/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/scans/{id}", server.handleDeleteScan))
		r.Get("/scans/{id}/records/{index}", metrics.InstrumentHandler("GET", "/api/v1/scans/{id}/records/{index}", server.handleGetRecord))
	})

	return r
}

// NewRegistry returns a metrics registry with the Go runtime and process
// collectors registered
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// StartServer starts the HTTP server with all routes configured and blocks
// until ctx is cancelled or the listener fails
func StartServer(ctx context.Context, archive IArchive, config ServerConfig) error {
	if config.Registry == nil {
		config.Registry = NewRegistry()
	}
	metrics := NewMetrics(config.Registry)
	server := NewServer(archive, config, metrics)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.log.WithFields(logrus.Fields{
		"addr":    addr,
		"metrics": fmt.Sprintf("http://%s/metrics", addr),
	}).Info("starting ceos REST API server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
