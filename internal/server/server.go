package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address, e.g. "0.0.0.0:8080".
	Addr string

	// MaxConnections caps concurrent connections at the listener.
	// Zero or negative means no cap.
	MaxConnections int

	// ShutdownGracePeriod is how long in-flight requests get to finish
	// once shutdown starts. Zero falls back to 10 seconds.
	ShutdownGracePeriod time.Duration
}

// Server runs the REST API with connection capping and graceful shutdown.
type Server struct {
	httpServer *http.Server
	opts       Options
	logger     *slog.Logger
}

// New creates a Server serving the given handler.
func New(handler http.Handler, opts Options, logger *slog.Logger) *Server {
	if opts.ShutdownGracePeriod <= 0 {
		opts.ShutdownGracePeriod = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		opts:   opts,
		logger: logger,
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
// It returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}

	if s.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConnections)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String(), "max_connections", s.opts.MaxConnections)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "grace_period", s.opts.ShutdownGracePeriod)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownGracePeriod)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return <-errCh
}
