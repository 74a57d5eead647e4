package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/dmitrymomot/conntrack/pkg/logger"
)

// Server wraps http.Server with context-driven graceful shutdown.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr
	once sync.Once
	err  error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Server for cfg.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg.withDefaults(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run listens on the configured address and serves handler until ctx is done,
// then shuts down gracefully within the shutdown timeout.
// A failure to listen is wrapped with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	s.srv = &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.addr = ln.Addr()
	srv := s.srv
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var serveErr error
	select {
	case <-ctx.Done():
		if err := s.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.ErrorContext(ctx, "http server shutdown failed", logger.Error(err))
		}
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, serveErr)
	}
	s.logger.InfoContext(ctx, "http server stopped")
	return nil
}

// Addr returns the bound address once Run has started listening, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown stops the server gracefully. Repeated calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.err = errors.Join(ErrShutdown, err)
		}
	})
	return s.err
}
