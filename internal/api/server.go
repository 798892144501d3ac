package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"vocalsub/internal/logging"
	"vocalsub/internal/pipeline"
	"vocalsub/internal/session"
)

// Runner starts pipeline runs. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, video string, progress pipeline.ProgressFunc) (string, error)
	Current() (pipeline.Run, bool)
}

// Options configures a Server.
type Options struct {
	Session *session.Session
	// Runner may be nil, in which case run routes answer 503.
	Runner Runner
	Hub    *ProgressHub
	Logger *slog.Logger
	// ExportDir overrides where edited exports are written.
	ExportDir string
}

// Server is the HTTP editing server.
type Server struct {
	session   *session.Session
	runner    Runner
	hub       *ProgressHub
	logger    *slog.Logger
	exportDir string

	mu       sync.Mutex
	running  bool
	runCtx   context.Context
	runGroup sync.WaitGroup

	listener net.Listener
	server   *http.Server
}

// New builds a server. A nil session starts empty.
func New(opts Options) *Server {
	if opts.Session == nil {
		opts.Session = session.New()
	}
	if opts.Hub == nil {
		opts.Hub = NewProgressHub(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		session:   opts.Session,
		runner:    opts.Runner,
		hub:       opts.Hub,
		logger:    logging.NewComponentLogger(logger, "api-server"),
		exportDir: opts.ExportDir,
		runCtx:    context.Background(),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transcript", s.handleTranscript)
	mux.HandleFunc("GET /api/blocks", s.handleBlocks)
	mux.HandleFunc("PATCH /api/segments/{id}", s.handleUpdateSegment)
	mux.HandleFunc("DELETE /api/segments/{id}", s.handleDeleteSegment)
	mux.HandleFunc("POST /api/speakers/rename", s.handleRenameSpeaker)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("POST /api/runs", s.handleStartRun)
	mux.HandleFunc("GET /api/runs/current", s.handleCurrentRun)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	return mux
}

// Start listens on bind and serves until ctx is cancelled. Runs started over
// the API inherit ctx.
func (s *Server) Start(ctx context.Context, bind string) error {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.runCtx = ctx
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and waits for background runs to return.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.runGroup.Wait()
}

// startRun launches a pipeline run on a worker goroutine. It fails with
// pipeline.ErrRunInProgress when a run is already active.
func (s *Server) startRun(video string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return pipeline.ErrRunInProgress
	}
	s.running = true
	ctx := s.runCtx
	s.mu.Unlock()

	s.runGroup.Add(1)
	go func() {
		defer s.runGroup.Done()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		output, err := s.runner.Run(ctx, video, s.hub.Publish)
		if err != nil {
			s.logger.Warn("pipeline run failed",
				logging.String(logging.FieldEventType, "api_run_failed"),
				logging.String("video", video),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the run error via /api/runs/current"),
				logging.String(logging.FieldImpact, "editing session unchanged"),
			)
			return
		}
		if err := s.session.Load(output); err != nil {
			s.logger.Error("failed to load run output", logging.String("path", output), logging.Error(err))
			return
		}
		s.logger.Info("run output loaded into session", logging.String("path", output))
	}()
	return nil
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}
