package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/opslab-go/internal/core/domain"
	"github.com/yndnr/opslab-go/internal/sysstat"
	"github.com/yndnr/opslab-go/internal/telemetry/logger"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Health warnings and their thresholds.
const (
	WarnHighCPU    = "High CPU usage"
	WarnHighMemory = "High memory usage"

	CPUWarnThreshold    = 90.0
	MemoryWarnThreshold = 90.0
)

// Simulated error draw boundaries: r < ServerFaultRate is a server fault,
// r < ClientFaultRate a client fault, anything else succeeds.
const (
	ServerFaultRate = 0.2
	ClientFaultRate = 0.3
)

// Business hours are inclusive, in the local time of the clock.
const (
	businessHourStart = 9
	businessHourEnd   = 17
)

// Rand is the random source used by Simulator. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Config holds the simulation parameters.
type Config struct {
	// LoadMin and LoadMax bound the busy-wait duration of SimulateLoad.
	LoadMin time.Duration
	LoadMax time.Duration

	// HealthCPUInterval is the CPU sampling window used by Health.
	HealthCPUInterval time.Duration
}

// DefaultConfig returns the stock simulation parameters.
func DefaultConfig() Config {
	return Config{
		LoadMin:           500 * time.Millisecond,
		LoadMax:           3 * time.Second,
		HealthCPUInterval: time.Second,
	}
}

// Validate checks the simulation parameters.
func (c Config) Validate() error {
	if c.LoadMin < 0 || c.LoadMax < c.LoadMin {
		return domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("load range [%s, %s] is invalid", c.LoadMin, c.LoadMax))
	}
	if c.HealthCPUInterval < 0 {
		return domain.ErrInvalidArgument.WithDetails("health cpu interval must be >= 0")
	}
	return nil
}

// Simulator implements the health policy and the simulated workloads.
// It is safe for concurrent use.
type Simulator struct {
	cfg     Config
	stats   sysstat.Source
	metrics *metric.AppMetrics
	logger  logger.Logger
	now     func() time.Time

	randMu sync.Mutex
	rand   Rand
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand replaces the random source. Calls are serialised, so r need not
// be safe for concurrent use.
func WithRand(r Rand) Option {
	return func(s *Simulator) { s.rand = r }
}

// WithClock replaces the wall clock used for timestamps and hour of day.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithLogger sets the logger used for instrument failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// NewSimulator creates a Simulator.
func NewSimulator(cfg Config, stats sysstat.Source, metrics *metric.AppMetrics, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stats == nil || metrics == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("stat source and metrics are required")
	}

	s := &Simulator{
		cfg:     cfg,
		stats:   stats,
		metrics: metrics,
		logger:  logger.Default(),
		now:     time.Now,
		rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) float64() float64 {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rand.Float64()
}

// intRange returns a uniform integer in [lo, hi].
func (s *Simulator) intRange(lo, hi int) int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return lo + s.rand.IntN(hi-lo+1)
}

// record logs instrument failures; they never fail a request.
func (s *Simulator) record(err error) {
	if err != nil {
		s.logger.Warn("metric update failed", "error", err)
	}
}

// SeedActiveUsers sets the active users gauge to a uniform value in
// [10, 50]. It is called once at startup.
func (s *Simulator) SeedActiveUsers() int {
	n := s.intRange(10, 50)
	s.record(s.metrics.SetActiveUsers(n))
	return n
}

// ============================================================================
// Health
// ============================================================================

// HealthReport is the outcome of a health check.
type HealthReport struct {
	Status        string
	Timestamp     time.Time
	CPUPercent    float64
	MemoryPercent float64
	Warnings      []string
}

// Health samples the host and classifies it. Each utilisation figure above
// its threshold adds a warning and makes the status degraded. A failed read
// is counted as a health_check error and returned.
func (s *Simulator) Health(ctx context.Context) (*HealthReport, error) {
	cpu, err := s.stats.CPUPercent(ctx, s.cfg.HealthCPUInterval)
	if err != nil {
		s.record(s.metrics.RecordError(domain.KindHealthCheck))
		return nil, err
	}
	mem, err := s.stats.MemoryPercent(ctx)
	if err != nil {
		s.record(s.metrics.RecordError(domain.KindHealthCheck))
		return nil, err
	}

	r := &HealthReport{
		Status:        StatusHealthy,
		Timestamp:     s.now(),
		CPUPercent:    cpu,
		MemoryPercent: mem,
	}
	if cpu > CPUWarnThreshold {
		r.Warnings = append(r.Warnings, WarnHighCPU)
	}
	if mem > MemoryWarnThreshold {
		r.Warnings = append(r.Warnings, WarnHighMemory)
	}
	if len(r.Warnings) > 0 {
		r.Status = StatusDegraded
	}
	return r, nil
}

// ============================================================================
// Load
// ============================================================================

// LoadResult is the outcome of a load simulation.
type LoadResult struct {
	// Elapsed is the measured busy time, not the drawn target.
	Elapsed     time.Duration
	ActiveUsers int
	Timestamp   time.Time
}

// SimulateLoad keeps a CPU busy for a duration drawn uniformly from the
// configured range, then sets the active users gauge to a uniform value in
// [20, 100]. Cancelling ctx stops the work early; that is counted as a
// load_simulation error and returned as ErrLoadInterrupted.
func (s *Simulator) SimulateLoad(ctx context.Context) (*LoadResult, error) {
	span := s.cfg.LoadMax - s.cfg.LoadMin
	target := s.cfg.LoadMin + time.Duration(s.float64()*float64(span))

	elapsed, err := spin(ctx, target)
	if err != nil {
		s.record(s.metrics.RecordError(domain.KindLoadSimulation))
		return nil, domain.ErrLoadInterrupted.
			WithDetails(fmt.Sprintf("stopped after %s of %s", elapsed.Round(time.Millisecond), target.Round(time.Millisecond))).
			WithCause(err)
	}

	users := s.intRange(20, 100)
	s.record(s.metrics.SetActiveUsers(users))

	return &LoadResult{Elapsed: elapsed, ActiveUsers: users, Timestamp: s.now()}, nil
}

// spinSink keeps the busy loop from being optimised away.
var spinSink atomic.Int64

// spin burns CPU until d has elapsed on the monotonic clock or ctx is done.
func spin(ctx context.Context, d time.Duration) (time.Duration, error) {
	start := time.Now()
	acc := 0
	for {
		elapsed := time.Since(start)
		if elapsed >= d {
			spinSink.Store(int64(acc))
			return elapsed, nil
		}
		if err := ctx.Err(); err != nil {
			return elapsed, err
		}
		for i := range 1000 {
			acc += i * i
		}
	}
}

// ============================================================================
// Errors
// ============================================================================

// SimulateError draws once from the random source. Server and client faults
// are counted under server_error and client_error and returned as
// ErrSimulatedServerFault and ErrSimulatedClientFault. On success it
// returns a value in [1, 100].
func (s *Simulator) SimulateError(_ context.Context) (int, error) {
	r := s.float64()
	switch {
	case r < ServerFaultRate:
		s.record(s.metrics.RecordError(domain.KindServerError))
		return 0, domain.ErrSimulatedServerFault
	case r < ClientFaultRate:
		s.record(s.metrics.RecordError(domain.KindClientError))
		return 0, domain.ErrSimulatedClientFault
	default:
		return s.intRange(1, 100), nil
	}
}

// ============================================================================
// User activity
// ============================================================================

// Activity is the outcome of a user activity simulation.
type Activity struct {
	ActiveUsers int
	Hour        int
	Timestamp   time.Time
}

// UserActivity sets the active users gauge according to the hour of day:
// [30, 80] during business hours (09:00 to 17:59), [5, 25] otherwise.
func (s *Simulator) UserActivity(_ context.Context) *Activity {
	now := s.now()
	hour := now.Hour()

	var users int
	if hour >= businessHourStart && hour <= businessHourEnd {
		users = s.intRange(30, 80)
	} else {
		users = s.intRange(5, 25)
	}
	s.record(s.metrics.SetActiveUsers(users))

	return &Activity{ActiveUsers: users, Hour: hour, Timestamp: now}
}

// ============================================================================
// Exposition support
// ============================================================================

// RefreshSystemStats samples the host over interval and publishes the CPU
// and memory gauges.
func (s *Simulator) RefreshSystemStats(ctx context.Context, interval time.Duration) error {
	cpu, err := s.stats.CPUPercent(ctx, interval)
	if err != nil {
		return err
	}
	mem, err := s.stats.MemoryPercent(ctx)
	if err != nil {
		return err
	}
	return s.metrics.SetSystemStats(cpu, mem)
}
