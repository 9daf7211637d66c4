package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/goran-ethernal/StakingIndexor/internal/logger"
	"github.com/goran-ethernal/StakingIndexor/pkg/api/docs"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
)

// Ensure docs are registered with swag
var _ = docs.SwaggerInfo

const shutdownCtxTimeout = 10 * time.Second

// Server represents the API HTTP server.
type Server struct {
	config   *config.APIConfig
	registry IndexerRegistry
	handler  *Handler
	server   *http.Server
	log      *logger.Logger
	addr     atomic.Value
}

// NewServer creates a new API server.
func NewServer(cfg *config.APIConfig, registry IndexerRegistry, log *logger.Logger) *Server {
	handler := NewHandler(registry, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /api/v1/indexers", handler.ListIndexers)

	mux.HandleFunc("GET /api/v1/indexers/{name}/events", handler.GetEvents)
	mux.HandleFunc("GET /api/v1/indexers/{name}/stats", handler.GetStats)
	mux.HandleFunc("GET /api/v1/indexers/{name}/events/timeseries", handler.GetEventsTimeseries)
	mux.HandleFunc("GET /api/v1/indexers/{name}/metrics", handler.GetMetrics)

	// Aggregates
	mux.HandleFunc("GET /api/v1/indexers/{name}/contracts/{address}", handler.GetContract)
	mux.HandleFunc("GET /api/v1/indexers/{name}/users", handler.ListUsers)
	mux.HandleFunc("GET /api/v1/indexers/{name}/users/{address}", handler.GetUser)
	mux.HandleFunc("GET /api/v1/indexers/{name}/stakers", handler.ListStakers)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)

	if cfg.CORS.Enabled {
		h = CORSMiddleware(cfg.CORS.AllowedOrigins)(h)
	}

	// Use configured timeouts (defaults already applied in config.ApplyDefaults)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}

	return &Server{
		config:   cfg,
		registry: registry,
		handler:  handler,
		server:   httpServer,
		log:      log,
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the bound listen address once Start is serving.
func (s *Server) Addr() string {
	addr, _ := s.addr.Load().(string)
	return addr
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API server is disabled")
		return nil
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.addr.Store(ln.Addr().String())
	s.log.Infof("Starting API server on %s", ln.Addr())

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("Shutting down API server...")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}

	s.log.Info("API server stopped")
	return nil
}
