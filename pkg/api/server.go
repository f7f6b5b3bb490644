// Package api provides the Gatewarden HTTP server: routing, session
// resolution, access control enforcement and the content handlers behind
// them.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gatewarden/gatewarden/internal/logger"
)

// Server provides the Gatewarden HTTP server.
//
// The server supports graceful shutdown with configurable timeout.
type Server struct {
	server       *http.Server
	config       ServerConfig
	shutdownOnce sync.Once
}

// NewServer creates a new HTTP server.
//
// The server is created in a stopped state. Call Start() to begin
// serving requests.
//
// Defaults are applied here so the server works correctly even when
// created directly (e.g., in tests). This is idempotent with the
// defaults applied during config loading.
func NewServer(config ServerConfig, handler http.Handler) *Server {
	config.applyDefaults()

	server := &http.Server{
		Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("HTTP server shutdown signal received")
		// New context for the shutdown itself; the cancelled ctx would
		// abort it immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("HTTP server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			logger.Error("HTTP server shutdown error", logger.Err(err))
		} else {
			logger.Info("HTTP server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is configured to listen on.
func (s *Server) Port() int {
	return s.config.Port
}
