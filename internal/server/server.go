// Package server wraps http.Server with env-driven configuration and
// graceful shutdown tied to context cancellation.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrMissingAddress is returned when no listen address is configured.
var ErrMissingAddress = errors.New("server address is required")

// Config holds server settings loaded from the environment.
type Config struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxHeaderBytes  int           `env:"SERVER_MAX_HEADER_BYTES" envDefault:"1048576"`
}

// Server runs an http.Server and shuts it down gracefully when the
// context is canceled.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger for lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.logger = log
		}
	}
}

// New creates a server from configuration.
func New(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}
	s := &Server{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run returns a function suitable for errgroup.Go that serves until the
// context is canceled, then drains connections within the shutdown
// timeout.
func (s *Server) Run(ctx context.Context, h http.Handler) func() error {
	return func() error {
		srv := &http.Server{
			Addr:           s.cfg.Addr,
			Handler:        h,
			ReadTimeout:    s.cfg.ReadTimeout,
			WriteTimeout:   s.cfg.WriteTimeout,
			IdleTimeout:    s.cfg.IdleTimeout,
			MaxHeaderBytes: s.cfg.MaxHeaderBytes,
		}

		errCh := make(chan error, 1)
		go func() {
			s.logger.InfoContext(ctx, "starting server", "addr", s.cfg.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		s.logger.Info("shutting down server", "timeout", s.cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
