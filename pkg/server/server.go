// Package server exposes case studies and interactive views over HTTP.
//
// Stateless renders take the interaction state as query parameters:
//
//	GET /api/studies/grain/render.svg?route=export&selected=mills
//
// Views hold interaction state between requests. They live in memory only
// and expire after a period without access:
//
//	POST /api/views            {"study": "grain"}
//	POST /api/views/{id}/click {"node": "mills"}
//	GET  /api/views/{id}/render.png
//
// A websocket at /api/views/{id}/live accepts the same events as JSON
// messages and answers each with the new state.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/matzehuels/chaintwin/pkg/cache"
	"github.com/matzehuels/chaintwin/pkg/studies"
)

// Defaults.
const (
	DefaultViewTTL       = 30 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultMaxViews      = 1000
	DefaultCacheTTL      = 24 * time.Hour
	shutdownTimeout      = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	registry      *studies.Registry
	cache         cache.Cache
	keyer         cache.Keyer
	cacheTTL      time.Duration
	views         *viewStore
	sweepInterval time.Duration
	mounts        *rate.Limiter
	logger        *log.Logger
	router        chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCache caches rendered artifacts in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Server) { s.cache, s.cacheTTL = c, ttl }
}

// WithKeyer overrides the artifact key scheme, e.g. to namespace a shared
// Redis instance with cache.NewScopedKeyer.
func WithKeyer(k cache.Keyer) Option {
	return func(s *Server) { s.keyer = k }
}

// WithViewTTL sets how long an idle view is kept.
func WithViewTTL(d time.Duration) Option {
	return func(s *Server) { s.views.ttl = d }
}

// WithMaxViews bounds the number of live views. Mounting beyond the bound
// evicts the least recently used view.
func WithMaxViews(n int) Option {
	return func(s *Server) { s.views.max = n }
}

// WithSweepInterval sets how often expired views are dropped.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Server) { s.sweepInterval = d }
}

// WithMountRate limits view mounts to perSecond with the given burst. A
// non-positive rate means unlimited.
func WithMountRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if !(perSecond > 0) {
			s.mounts = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.mounts = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Server) { s.views.now = now }
}

// New creates a server over the studies in reg.
func New(reg *studies.Registry, opts ...Option) *Server {
	s := &Server{
		registry:      reg,
		cache:         cache.NewNullCache(),
		keyer:         cache.NewDefaultKeyer(),
		cacheTTL:      DefaultCacheTTL,
		views:         newViewStore(DefaultViewTTL, DefaultMaxViews),
		sweepInterval: DefaultSweepInterval,
		mounts:        rate.NewLimiter(rate.Inf, 0),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired views are swept in the background.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr, "studies", s.registry.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.sweepLoop(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) sweepLoop(ctx context.Context) {
	t := time.NewTicker(s.sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.views.sweep(ctx); n > 0 {
				s.logger.Debug("swept views", "expired", n, "live", s.views.len())
			}
		}
	}
}
