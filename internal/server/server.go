// Package server exposes the georef client over HTTP for the address
// selectors of the order forms.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carroceria-sur/taller/internal/config"
	"github.com/carroceria-sur/taller/pkg/georef"
)

// Server is the HTTP API.
type Server struct {
	client   georef.Client
	cfg      config.ServerConfig
	limits   georef.Limits
	registry *prometheus.Registry
	router   chi.Router
}

// New builds the router. limits caps the max query parameter per route.
// registry is exposed on the metrics path and may be nil, in which case no
// metrics route is mounted.
func New(client georef.Client, cfg config.ServerConfig, limits georef.Limits, registry *prometheus.Registry) *Server {
	s := &Server{
		client:   client,
		cfg:      cfg,
		limits:   limits.OrDefaults(),
		registry: registry,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(accessLog)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.registry != nil {
		path := s.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/georef", func(r chi.Router) {
		r.Get("/provincias", s.handleProvinces)
		r.Get("/provincias/{provinciaID}/localidades", s.handleLocalities)
		r.Get("/provincias/{provinciaID}/localidades/todas", s.handleAllLocalities)
		r.Get("/localidades", s.handleSearchLocalities)
		r.Get("/direcciones", s.handleNormalizeAddress)
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server: shutdown")
		}
		return nil
	case err := <-errCh:
		return eris.Wrap(err, "server: listen")
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
