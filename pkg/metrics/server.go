package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatewarden/gatewarden/internal/logger"
)

// Server exposes the metrics registry over HTTP at /metrics.
type Server struct {
	httpServer *http.Server
	stopOnce   sync.Once
}

// NewServer creates a metrics server listening on the given port.
// InitRegistry must have been called first.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{}))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Serve runs the metrics server until Stop is called. It blocks.
func (s *Server) Serve() error {
	logger.Info("Metrics server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the metrics server down. Safe to call more than
// once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}
