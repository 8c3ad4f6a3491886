package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"linkgist/internal/domain"
)

//go:embed templates
var templateFS embed.FS

// Runner executes one summarization request.
type Runner interface {
	Run(ctx context.Context, req domain.Request) (domain.Result, error)
}

// requestTimeoutMargin leaves time to render the outcome before the write
// deadline closes the connection.
const requestTimeoutMargin = 10 * time.Second

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	cfg     Config
	runner  Runner
	pages   *template.Template
	httpSrv *http.Server
	log     *slog.Logger
}

func New(cfg Config, runner Runner, log *slog.Logger) (*Server, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		pages:  pages,
		log:    log,
	}

	s.httpSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return s, nil
}

// run bounds a summarization by the write timeout so that no model calls
// are spent on a response that can no longer be delivered.
func (s *Server) run(r *http.Request, req domain.Request) (domain.Result, error) {
	ctx := r.Context()

	if timeout := requestTimeout(s.cfg.WriteTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return s.runner.Run(ctx, req)
}

func requestTimeout(writeTimeout time.Duration) time.Duration {
	switch {
	case writeTimeout <= 0:
		return 0
	case writeTimeout > 2*requestTimeoutMargin:
		return writeTimeout - requestTimeoutMargin
	default:
		return writeTimeout / 2
	}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)

	return s.recoveryMiddleware(s.loggingMiddleware(mux))
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Server is started", "addr", s.cfg.Addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /summarize", s.handleSummarizeForm)
	mux.HandleFunc("POST /api/v1/summarize", s.handleAPISummarize)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, page, data); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to execute template",
			"error", err,
			"page", page)
	}
}
