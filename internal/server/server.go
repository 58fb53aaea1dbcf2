// ABOUTME: HTTP front end for the retrieval engine built on a chi router
// ABOUTME: Serializes engine access with a mutex; every response carries a request id
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/harper/biorag/internal/assistant"
	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/rag"
)

// RequestIDHeader carries the per-request id
const RequestIDHeader = "X-Request-ID"

// Engine is the engine surface the server exposes
type Engine interface {
	Answer(ctx context.Context, question string) models.Answer
	Search(ctx context.Context, question string, k int) ([]models.SearchResult, error)
	Generate(ctx context.Context, system, user string) (string, error)
	AddDocument(ctx context.Context, text string, metadata models.Metadata) (int, error)
	Save(path string) error
	Stats() rag.Stats
}

// Config holds HTTP server configuration
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SnapshotPath is where the corpus is saved after documents are added; empty skips saving
	SnapshotPath string
}

// Server wraps a chi router around one engine
type Server struct {
	router    chi.Router
	cfg       Config
	engine    Engine
	assistant *assistant.Assistant
	logger    *log.Logger

	// mu serializes all engine access; the engine is not safe for concurrent use
	mu sync.Mutex
}

// New creates a Server
func New(cfg Config, engine Engine, logger *log.Logger) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// generation with retries can take a while
		cfg.WriteTimeout = 5 * time.Minute
	}

	logger = logging.OrNop(logger).With("component", "server")
	s := &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
	}
	s.assistant = assistant.New(lockedEngine{s}, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.requestID)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Post("/query", s.handleQuery)
		r.Post("/search", s.handleSearch)
		r.Post("/research", s.handleResearch)
		r.Post("/papers", s.handleAddPaper)
	})
	s.router = r
	return s, nil
}

// Handler returns the underlying http.Handler for testing
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown. A serve failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return <-errCh
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// lockedEngine gives the assistant mutex-guarded engine access
type lockedEngine struct{ s *Server }

func (l lockedEngine) Search(ctx context.Context, q string, k int) ([]models.SearchResult, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.engine.Search(ctx, q, k)
}

func (l lockedEngine) Generate(ctx context.Context, system, user string) (string, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.engine.Generate(ctx, system, user)
}
