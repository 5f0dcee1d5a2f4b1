// Package httpapi exposes the sync server: push/fetch of budget records
// and login, over plain JSON HTTP.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"budgetbox/internal/amqp"
	"budgetbox/internal/auth"
	"budgetbox/internal/log"
	"budgetbox/internal/remote"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// loginRateLimit caps login attempts per IP per minute.
const loginRateLimit = 10

// EventPublisher announces accepted pushes. A nil publisher disables the
// announcement without affecting the sync path.
type EventPublisher interface {
	PublishBudgetSynced(ctx context.Context, msg *amqp.BudgetSyncedMessage) error
}

type Server struct {
	http.Server

	store   remote.Store
	auth    *auth.Authenticator
	events  EventPublisher
	metrics *Metrics
	limiter *rateLimiter
}

func NewServer(addr string, store remote.Store, authn *auth.Authenticator, events EventPublisher, logger *log.Logger) *Server {
	s := &Server{
		store:   store,
		auth:    authn,
		events:  events,
		metrics: NewMetrics(),
		limiter: newRateLimiter(loginRateLimit, time.Minute),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Post("/sync", s.handlePush)
	r.Get("/sync", s.handleFetch)
	r.With(s.limitLogins).Post("/login", s.handleLogin)

	s.Addr = addr
	s.Handler = r
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16

	return s
}

// requestLogger emits one structured line per handled request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
		logger.Info("request handled",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, ww.Status(),
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldRequestID, chimw.GetReqID(r.Context()))
	})
}

// limitLogins guards the login route against credential stuffing.
func (s *Server) limitLogins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !s.limiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many login attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
