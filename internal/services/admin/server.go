package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/harlowe/wholesail/internal/platform/timeouts"
	"github.com/harlowe/wholesail/internal/services/shared/sessionauth"
)

// Config defines the inputs for the operator process.
type Config struct {
	HTTPAddr string
	Handler  *Handler
	Sessions sessionauth.Verifier
}

// Server hosts the operator API.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewServer builds a configured operator server.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if config.Sessions == nil {
		return nil, errors.New("session verifier is required")
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           config.Handler.Routes(config.Sessions),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return &Server{httpAddr: httpAddr, httpServer: httpServer}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("admin server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("admin listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
