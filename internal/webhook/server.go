package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/novantia/pressgate/internal/log"
	"github.com/novantia/pressgate/internal/metrics"
	"github.com/novantia/pressgate/internal/store"
)

// Config holds the resolved pipeline limits for the server.
type Config struct {
	Listen string
	Secret string

	MaxBodyBytes       int64
	RateLimitMax       int
	RateLimitWindow    time.Duration
	TimestampTolerance time.Duration
	ReplayTTL          time.Duration
	StoreTimeout       time.Duration
	MaxBatchSize       int
}

// Server is the webhook HTTP server and the wiring of the pipeline stages.
type Server struct {
	config   Config
	store    store.Store
	limiter  *RateLimiter
	replay   *ReplayGuard
	dispatch *Dispatcher
	logger   *slog.Logger
	server   *http.Server
}

// New wires the pipeline. A nil store is allowed: the store-backed stages
// fail open per their own policy.
func New(config Config, st store.Store, handler ArticleHandler, logger *slog.Logger) *Server {
	return &Server{
		config:   config,
		store:    st,
		limiter:  NewRateLimiter(st, config.RateLimitMax, config.RateLimitWindow, config.StoreTimeout, logger),
		replay:   NewReplayGuard(st, config.TimestampTolerance, config.ReplayTTL, config.StoreTimeout, logger),
		dispatch: NewDispatcher(handler, logger),
		logger:   logger,
	}
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post("/webhook", s.handlePost)
	r.Get("/webhook", s.handleGet)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// loggingMiddleware logs HTTP requests (excludes sensitive payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", log.Sanitize(r.RemoteAddr),
		)
	})
}

// handlePost runs the full ingestion pipeline. Stages execute strictly in
// order; the first failure short-circuits everything after it.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Payload guard: declared length checked before any read.
	if r.ContentLength > s.config.MaxBodyBytes {
		s.writeReject(w, reject(KindPayloadTooLarge))
		return
	}

	// Access gate: the one stage that never fails open.
	if !ValidateBearer(r.Header.Get("Authorization"), s.config.Secret) {
		s.writeReject(w, reject(KindUnauthenticated))
		return
	}

	clientID := clientIdentifier(r)
	if !s.limiter.Allow(ctx, clientID) {
		s.writeReject(w, reject(KindRateLimitExceeded))
		return
	}

	// Senders lying about Content-Length still can't exceed the ceiling.
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes+1))
	if err != nil {
		s.writeReject(w, reject(KindInternal))
		return
	}
	if int64(len(body)) > s.config.MaxBodyBytes {
		s.writeReject(w, reject(KindPayloadTooLarge))
		return
	}

	env, verr := ParseEnvelope(body, s.config.MaxBatchSize)
	if verr != nil {
		s.writeReject(w, verr)
		return
	}

	fp := Fingerprint(env.EventType, env.Timestamp, env.ArticleIDs())
	if verr := s.replay.Check(ctx, env.Timestamp, fp); verr != nil {
		s.writeReject(w, verr)
		return
	}

	count, verr := s.dispatch.Dispatch(ctx, env)
	if verr != nil {
		s.writeReject(w, verr)
		return
	}

	receipt := uuid.NewString()
	s.logger.Info("event accepted",
		"event_type", log.Sanitize(env.EventType),
		"count", count,
		"receipt_id", receipt,
		"client_id", log.Sanitize(clientID),
	)
	metrics.RequestsTotal.WithLabelValues("accepted").Inc()

	s.writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "articles accepted",
		Processed: Processed{
			Count:     count,
			ReceiptID: receipt,
		},
	})
}

// handleGet serves the authenticated introspection payload.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !ValidateBearer(r.Header.Get("Authorization"), s.config.Secret) {
		s.writeReject(w, reject(KindUnauthenticated))
		return
	}

	backend := "none"
	if s.store != nil {
		backend = s.store.Name()
	}

	s.writeJSON(w, http.StatusOK, Introspection{
		EventTypes:   []string{EventTypePublishArticles},
		MaxBatchSize: s.config.MaxBatchSize,
		RateLimit: IntrospectionLimit{
			MaxRequests:   s.config.RateLimitMax,
			WindowSeconds: int(s.config.RateLimitWindow.Seconds()),
		},
		TimestampToleranceS: int(s.config.TimestampTolerance.Seconds()),
		StoreBackend:        backend,
	})
}

// clientIdentifier derives the rate-limit key: first hop of
// X-Forwarded-For, else the peer address, else "unknown".
func clientIdentifier(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeReject(w http.ResponseWriter, verr *Error) {
	metrics.RequestsTotal.WithLabelValues(verr.Outcome()).Inc()
	if verr.Kind == KindRateLimitExceeded {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.config.RateLimitWindow.Seconds())))
	}
	s.writeJSON(w, verr.Status(), ErrorResponse{Error: verr.Message()})
}
