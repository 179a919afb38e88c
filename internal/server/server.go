package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/multierr"

	"github.com/thqm-go/thqm/internal/auth"
	"github.com/thqm-go/thqm/internal/logging"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// Config holds the immutable startup configuration of a Server.
type Config struct {
	// Addr is the address to listen on, e.g. "0.0.0.0:8000".
	Addr string
	// Oneshot stops the server after the first selection.
	Oneshot bool
	// NoShutdown disables the shutdown command.
	NoShutdown bool
	// Credentials enables basic auth when both fields are set.
	Credentials auth.Credentials
	// Page is the rendered HTML served on "/".
	Page []byte
	// Assets holds the static files served for unmatched paths.
	Assets fs.FS
	// HiddenAssets are asset paths never served, e.g. the page template.
	HiddenAssets []string
	// Output receives selected entries, one per line. Defaults to stdout.
	Output io.Writer
	// Logger defaults to the package-level logger.
	Logger *logging.Logger
}

// Server is the thqm web server.
type Server struct {
	cfg     Config
	log     *logging.Logger
	handler http.Handler
	hidden  map[string]bool

	outMu  sync.Mutex
	output io.Writer

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	started  bool

	done     chan struct{}
	stopOnce sync.Once
	reason   string
	selected atomic.Bool
}

// NewServer creates a new Server instance.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	s := &Server{
		cfg:    *cfg,
		log:    cfg.Logger,
		output: cfg.Output,
		hidden: make(map[string]bool, len(cfg.HiddenAssets)),
		done:   make(chan struct{}),
	}
	if s.log == nil {
		s.log = logging.Default()
	}
	if s.output == nil {
		s.output = os.Stdout
	}
	for _, name := range cfg.HiddenAssets {
		s.hidden[name] = true
	}
	s.handler = s.routes()

	return s, nil
}

// Handler returns the HTTP handler serving every route, auth included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes configures the HTTP routes.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(auth.Middleware(s.cfg.Credentials))

	r.Get("/", s.handleRoot)
	r.Get("/select/{entry}", s.handleSelectPath)
	r.Get("/cmd/{command}", s.handleCmdPath)

	// Everything else, any method included, is a static asset lookup.
	r.NotFound(s.handleStatic)
	r.MethodNotAllowed(s.handleStatic)

	return r
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// Run listens on the configured address and serves until ctx is cancelled
// or a handler requests termination. It then shuts the server down and
// returns nil. Listen and serve failures are returned as errors.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.started = true
	srv := s.server
	s.mu.Unlock()

	s.log.Info("server listening", "addr", listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("stopping server", "reason", "context done")
	case <-s.done:
		s.log.Info("stopping server", "reason", s.Reason())
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	return s.Stop()
}

// Stop gracefully shuts down the server and flushes the output.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if shutdownErr := s.server.Shutdown(ctx); shutdownErr != nil {
		err = multierr.Append(err, fmt.Errorf("shutdown error: %w", shutdownErr))
	}
	err = multierr.Append(err, s.flush())

	s.started = false
	return err
}

// Done is closed once a handler has requested termination.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Reason returns why termination was requested, or "" if it was not.
func (s *Server) Reason() string {
	select {
	case <-s.done:
		return s.reason
	default:
		return ""
	}
}

// ListenAddr returns the actual address the server is listening on.
// Useful when port 0 is used to get an available port.
// Returns empty string if not started.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// terminate records reason and closes Done. Only the first call counts.
func (s *Server) terminate(reason string) {
	s.stopOnce.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// report writes entry followed by a newline to the output.
func (s *Server) report(entry string) error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := fmt.Fprintln(s.output, entry); err != nil {
		return err
	}
	return s.flushLocked()
}

// flush flushes a buffered output. Writes to an *os.File are unbuffered.
func (s *Server) flush() error {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.flushLocked()
}

func (s *Server) flushLocked() error {
	if f, ok := s.output.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
	}
	return nil
}
