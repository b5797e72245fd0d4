// Package api assembles the HTTP surface of the engine: routing,
// middleware, controllers and the server lifecycle.
package api

import (
	"context"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server wraps http.Server with the timeouts and shutdown behavior every
// binary wants.
type Server struct {
	inner *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// translated to nil so graceful shutdown reads as success.
func (s *Server) ListenAndServe() error {
	err := s.inner.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the shutdown budget.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.inner.Shutdown(ctx)
}
