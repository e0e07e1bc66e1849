// Package server exposes the HTTP API: live official-quote extraction,
// dashboard state, purchase-record CRUD, and CSV export/import.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"goldwatch/internal/logger"
)

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
}

// New builds the server and registers all routes on it.
func New(port string, readTimeout, writeTimeout time.Duration, h *Handlers) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	h.Register(engine)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      engine,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server")
	return s.srv.Shutdown(shutdownCtx)
}
