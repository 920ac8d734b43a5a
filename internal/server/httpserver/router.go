package httpserver

import (
	"fmt"
	"net/http"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/server/httpserver/handler"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
)

// EndpointUnknown labels requests that matched no route.
const EndpointUnknown = "unknown"

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler
	Metrics *metric.AppMetrics
	Logger  logger.Logger

	// MetricsAuthToken protects the exposition route when set.
	MetricsAuthToken string

	// RateLimit is requests/second per client IP; 0 disables limiting.
	RateLimit float64
	RateBurst int

	// PanicErrorKind is the error_type counted for handler panics.
	PanicErrorKind domain.ErrorKind

	// AccessLog enables one log entry per request.
	AccessLog bool
}

// NewRouter mounts the handler routes behind the middleware chain:
//
//	Recover -> RequestID -> AccessLog -> RequestMetrics -> RateLimit -> mux
//
// A route pattern that conflicts with another, such as a metrics path equal
// to a built-in route, is reported as an error.
func NewRouter(cfg *RouterConfig) (http.Handler, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	mux := http.NewServeMux()
	names := make(map[string]string)
	for _, rt := range cfg.Handler.Routes() {
		var h http.Handler = rt.Handler
		if rt.Name == handler.EndpointMetrics {
			h = MetricsAuth(cfg.MetricsAuthToken)(h)
		}
		if err := handle(mux, rt.Pattern, h); err != nil {
			return nil, err
		}
		names[rt.Pattern] = rt.Name
	}

	endpoint := func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			if name, ok := names[pattern]; ok {
				return name
			}
		}
		return EndpointUnknown
	}

	middlewares := []Middleware{
		Recover(log),
		RequestID(),
	}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(log))
	}
	middlewares = append(middlewares, RequestMetrics(RequestMetricsConfig{
		Metrics:   cfg.Metrics,
		Endpoint:  endpoint,
		PanicKind: cfg.PanicErrorKind,
		Logger:    log,
	}))
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(RateLimitConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst}))
	}

	return Chain(mux, middlewares...), nil
}

// handle registers h on mux, turning the registration panic for invalid or
// conflicting patterns into an error.
func handle(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("route %q: %v", pattern, p)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}
