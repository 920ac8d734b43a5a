package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
	"github.com/yndnr/opslab-go/pkg/cmap"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one is outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID propagates the caller's X-Request-ID or assigns a new ULID, and
// stores it on the request context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = ulid.Make().String()
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := logger.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover turns a panic into a 500 JSON response. It must be outermost so
// that inner middleware observe the panic first.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.WithContext(r.Context()).Error("panic recovered",
					"request_id", logger.RequestIDFromContext(r.Context()),
					"error", p,
					"path", r.URL.Path,
					"headers_sent", wrapped.wroteHeader,
					"stack", string(debug.Stack()),
				)
				// The status line is already out; leave the partial response as is.
				if wrapped.wroteHeader {
					return
				}
				writeError(w, http.StatusInternalServerError, domain.ErrInternalServer.Code, "Internal server error")
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// AccessLog logs one entry per completed request.
func AccessLog(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			l := log.WithContext(r.Context())
			switch status := wrapped.status(); {
			case status >= 500:
				l.Error("request completed with error", attrs...)
			case status >= 400:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
		})
	}
}

// RequestMetricsConfig configures RequestMetrics.
type RequestMetricsConfig struct {
	Metrics *metric.AppMetrics

	// Endpoint names the route serving r. It must return a value from a
	// small fixed set.
	Endpoint func(r *http.Request) string

	// PanicKind is the error_type counted when the handler panics.
	PanicKind domain.ErrorKind

	Logger logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// RequestMetrics counts and times every request. The measurement is
// finalised in a deferred call so it also runs when the handler panics; in
// that case the status is recorded as 500, PanicKind is counted, and the
// panic continues to the enclosing Recover.
func RequestMetrics(cfg RequestMetricsConfig) Middleware {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	kind := cfg.PanicKind
	if kind == "" {
		kind = domain.KindUnhandledException
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := now()
			endpoint := cfg.Endpoint(r)
			wrapped := wrapResponseWriter(w)

			defer func() {
				status := wrapped.status()
				p := recover()
				if p != nil {
					status = http.StatusInternalServerError
					if err := cfg.Metrics.RecordError(kind); err != nil {
						log.Warn("metric update failed", "error", err)
					}
				}
				if err := cfg.Metrics.RecordRequest(methodLabel(r.Method), endpoint, status, now().Sub(start)); err != nil {
					log.Warn("metric update failed", "error", err)
				}
				if p != nil {
					panic(p)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// MethodOther labels requests whose method is not a standard HTTP method.
const MethodOther = "other"

// methodLabel keeps the method label bounded to the standard verbs.
func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect,
		http.MethodOptions, http.MethodTrace:
		return m
	}
	return MethodOther
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// Rate is the sustained requests per second allowed per client IP.
	Rate float64
	// Burst defaults to the ceiling of Rate.
	Burst int
	// IdleTTL is how long an idle client's limiter is kept. Default 5m.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimit applies a token bucket per client IP and answers 429 when it is
// empty.
func RateLimit(cfg RateLimitConfig) Middleware {
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.Rate+0.999))
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	clients := cmap.New[*clientLimiter]()
	var lastSweep atomic.Int64

	get := func(ip string, now time.Time) *rate.Limiter {
		nowNano := now.UnixNano()
		if last := lastSweep.Load(); nowNano-last > int64(ttl) && lastSweep.CompareAndSwap(last, nowNano) {
			cutoff := nowNano - int64(ttl)
			clients.DeleteFunc(func(_ string, c *clientLimiter) bool {
				return c.lastSeen.Load() < cutoff
			})
		}

		c := clients.GetOrCreate(ip, func() *clientLimiter {
			return &clientLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), burst)}
		})
		c.lastSeen.Store(nowNano)
		return c.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !get(getClientIP(r), time.Now()).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited.Code, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MetricsAuth requires "Authorization: Bearer <token>" when token is
// non-empty.
func MetricsAuth(token string) Middleware {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="metrics"`)
				writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Code, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *responseWriter) status() int {
	return w.statusCode
}

// writeError writes a middleware-generated {"error": ...} response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
