// Package server exposes analysis and chat sessions over HTTP, streaming chat
// answers as server-sent events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/julianshen/gitnote/internal/chat"
	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/fetch"
	"github.com/julianshen/gitnote/internal/models"
	"github.com/julianshen/gitnote/internal/provider"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Config      *config.Config
	Resolver    *models.Resolver
	Fetcher     fetch.Fetcher
	NewProvider provider.Factory
	Logger      zerolog.Logger
}

// Server is the gitnote HTTP API. Chat sessions live in memory for the
// lifetime of the process.
type Server struct {
	deps   Deps
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*chat.Session
}

// New creates a Server.
func New(d Deps) *Server {
	return &Server{
		deps:     d,
		logger:   d.Logger.With().Str("component", "server").Logger(),
		sessions: make(map[string]*chat.Session),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/models", s.handleListModels)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)

	mux.HandleFunc("POST /api/chats", s.handleCreateChat)
	mux.HandleFunc("GET /api/chats/{id}", s.handleGetChat)
	mux.HandleFunc("POST /api/chats/{id}/messages", s.handleSendMessage)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// WriteTimeout stays 0 so chat streams are not cut off.
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) session(id string) (*chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
