package daemon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
	"github.com/swcstudio/fsl-continuum-sub003/internal/config"
	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/observability"
	ensemblerpc "github.com/swcstudio/fsl-continuum-sub003/internal/rpc/ensemble"
)

// Server hosts the ensemble daemon endpoints.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	engine   *ensemble.Engine
	registry *backend.Registry
	metrics  *observability.Metrics
}

// NewServer constructs a daemon instance.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics()

	engine, registry, err := ensemble.FromConfig(cfg, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, registry: registry, metrics: metrics}, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle(ensemblerpc.BackendsPath, ensemblerpc.BackendsHandler{Registry: s.registry, Tiers: s.engine.Router()})
	mux.Handle(ensemblerpc.RunPath, ensemblerpc.NewHandler(s.engine, s.metrics))

	if s.transport() == "ndjson" {
		return mux
	}
	path, handler := ensemblerpc.NewConnectHandler(s.engine, s.metrics)
	mux.Handle(path, handler)
	return h2c.NewHandler(mux, &http2.Server{})
}

func (s *Server) transport() string {
	return strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport))
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting fsl daemon",
			zap.String("addr", s.cfg.Server.Addr),
			zap.String("transport", s.transport()),
			zap.Int("backends", s.registry.Len()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down fsl daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"status":"ok","backends":%d}`, s.registry.Len())
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
