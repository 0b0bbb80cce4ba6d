// Package devserver serves built output with live reload.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapsite/internal/notifier"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Defaults.
const (
	DefaultHost         = "localhost"
	DefaultPort         = 2345
	DefaultPortAttempts = 50
)

// Live reload endpoints.
const (
	EventsPath = "/__livereload"
	ClientPath = "/__livereload.js"
)

// Config holds dev server configuration.
type Config struct {
	Host string
	Port int
	// PortAttempts is how many consecutive ports Listen tries, starting at Port.
	PortAttempts int
	// Roots are served in order; the first root holding a path wins.
	Roots      []string
	LiveReload bool
	// Notifier is optional; the server creates one when nil.
	Notifier *notifier.Notifier
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Server serves the output roots.
type Server struct {
	host     string
	port     int
	attempts int
	roots    []string
	reload   bool
	notifier *notifier.Notifier
	logger   *slog.Logger
	handler  http.Handler
	bound    atomic.Int64
}

// New creates a server. Nothing is bound until Listen.
func New(cfg Config) *Server {
	s := &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		attempts: cfg.PortAttempts,
		roots:    cfg.Roots,
		reload:   cfg.LiveReload,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}
	if s.host == "" {
		s.host = DefaultHost
	}
	if s.attempts <= 0 {
		s.attempts = DefaultPortAttempts
	}
	if s.port == 0 {
		s.attempts = 1
	}
	if s.notifier == nil {
		s.notifier = notifier.New()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestLogger(&logFormatter{logger: s.logger}),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if s.reload {
		r.Get(EventsPath, s.handleEvents)
		r.Get(ClientPath, handleClient)
	}
	r.Get("/*", s.handleStatic)
	r.Head("/*", s.handleStatic)
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen binds host:port. When the port is taken it tries the following
// ports, up to the configured number of attempts.
func (s *Server) Listen() (net.Listener, error) {
	var lastErr error
	for i := 0; i < s.attempts; i++ {
		port := s.port + i
		ln, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(port)))
		if err != nil {
			lastErr = err
			s.logger.Debug("port unavailable", "port", port, "error", err)
			continue
		}
		if addr, ok := ln.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
		s.bound.Store(int64(port))
		if port != s.port && s.port != 0 {
			s.logger.Info("port in use, using next free port", "requested", s.port, "port", port)
		}
		return ln, nil
	}
	return nil, &core.ServerBindError{Host: s.host, Port: s.port, Attempts: s.attempts, Err: lastErr}
}

// Port returns the bound port, or 0 before Listen succeeds.
func (s *Server) Port() int {
	return int(s.bound.Load())
}

// URL returns the address browsers should open.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s/", net.JoinHostPort(s.host, strconv.Itoa(s.Port())))
}

// Notify tells every connected browser to reload.
func (s *Server) Notify() {
	s.logger.Debug("notifying live reload clients", "clients", s.notifier.Clients())
	s.notifier.Notify()
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("serving", "url", s.URL(), "roots", s.roots, "live_reload", s.reload)

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		s.notifier.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dev server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// logFormatter routes chi request logs through slog.
type logFormatter struct {
	logger *slog.Logger
}

func (f *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &logEntry{logger: f.logger, method: r.Method, path: r.URL.Path}
}

type logEntry struct {
	logger *slog.Logger
	method string
	path   string
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.logger.Debug("request", "method", e.method, "path", e.path, "status", status, "bytes", bytes, "elapsed", elapsed)
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panicked", "method", e.method, "path", e.path, "panic", v, "stack", string(stack))
}
