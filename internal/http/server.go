// Package http hosts the transaction screens as server-rendered HTML pages
// plus a small JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	applog "tally/internal/log"
	"tally/internal/screens"
	appweb "tally/web"
)

const (
	readinessTimeout       = 2 * time.Second
	rateLimitCleanupPeriod = 5 * time.Minute
	requestIDHeader        = "X-Request-ID"
)

// Backend is what the screens need: a loader for the dashboard and a
// creator for the add form. services.TransactionService implements it.
type Backend interface {
	screens.Opener
	screens.Creator
}

type Server struct {
	http.Server
	templates   *template.Template
	backend     Backend
	logger      *applog.Logger
	rateLimiter *rateLimiter
	ready       func(context.Context) error
}

type Option func(*Server)

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentHTTP)
		}
	}
}

// WithRateLimit sets the number of POST requests allowed per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimiter = newRateLimiter(perMinute) }
}

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, backend Backend, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		backend:     backend,
		logger:      applog.Discard(),
		rateLimiter: newRateLimiter(defaultRateLimit),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err.Error())
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("GET /{$}", s.wrap(s.handleIndex))
	mux.Handle("GET /dashboard", s.wrap(s.handleDashboard))
	mux.Handle("GET /add-transaction", s.wrap(s.handleAddForm))
	mux.Handle("POST /add-transaction", s.wrap(s.handleAddSubmit))
	mux.Handle("GET /transaction-detail", s.wrap(s.handleDetail))
	mux.Handle("POST /logout", s.wrap(s.handleLogout))
	mux.Handle("GET /api/transactions", s.wrap(s.handleAPITransactions))

	return s
}

// RunMaintenance cleans rate limiter state until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context) error {
	s.rateLimiter.run(ctx, rateLimitCleanupPeriod)
	return nil
}

// wrap adds request IDs, a request-scoped logger, POST rate limiting,
// security headers and request logging.
func (s *Server) wrap(next http.HandlerFunc) http.Handler {
	secured := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := applog.FromContext(ctx)
		clientIP := extractClientIP(r)

		w.Header().Set(requestIDHeader, r.Header.Get(requestIDHeader))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.NewFields().
					WithClientIP(clientIP).
					WithHTTPRequest(r.Method, r.URL.Path, r.Header.Get("User-Agent")).
					WithComponent(applog.ComponentRateLimit).
					ToSlice()...)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		applog.NewStructuredLogger(logger).
			LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})

	withID := applog.RequestIDMiddleware(func(r *http.Request) string {
		return r.Header.Get(requestIDHeader)
	})(secured)
	withLogger := applog.Middleware(s.logger)(withID)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Incoming IDs are not trusted.
		r.Header.Set(requestIDHeader, generateRequestID())
		withLogger.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
