// Package http exposes the schedule engine as a small JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/currency"
	"tally/internal/log"
)

// Store is the repository surface the API needs.
type Store interface {
	ListAccounts(ctx context.Context) ([]core.Account, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	SaveTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	MarkCompleted(ctx context.Context, id int64) (core.Transaction, error)
	GetRates(ctx context.Context) (currency.RateTable, error)
}

type Server struct {
	http.Server
	store        Store
	baseCurrency string
	windowDays   int
	logger       *log.Logger
	rateLimiter  *rateLimiter

	dashboardCache *cache.LRU[DashboardResponse]
	scheduleCache  *cache.LRU[ScheduleResponse]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and response caches, returning a
// ready-to-run http.Server.
func NewServer(addr string, store Store, baseCurrency string, windowDays int, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:          store,
		baseCurrency:   currency.Normalize(baseCurrency),
		windowDays:     windowDays,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRU[DashboardResponse](16, time.Minute),
		scheduleCache:  cache.NewLRU[ScheduleResponse](64, time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.scheduleCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("/api/schedule", s.withMiddleware(s.handleSchedule))
	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withMiddleware(s.handleTransactionAction))

	return s
}

// Shutdown stops the HTTP server and the cache and rate-limiter
// cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidate drops cached responses after a write.
func (s *Server) invalidate() {
	s.dashboardCache.Clear()
	s.scheduleCache.Clear()
}

// withMiddleware adds security headers, rate limiting, and request
// logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Writes are rate limited, reads are not
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
