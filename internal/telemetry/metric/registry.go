package metric

import (
	"iter"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yndnr/opslab-go/internal/core/domain"
)

// Registry holds named instruments and exposes their state.
//
// A Registry is constructed explicitly and passed to the components that
// need it; there is no package-level default. Tests build a fresh one each.
type Registry struct {
	mu          sync.RWMutex
	instruments map[string]Instrument
	reg         *prometheus.Registry
}

// Option configures a Registry.
type Option func(*Registry)

// WithRuntimeCollectors adds the Go runtime and process collectors
// (go_*, process_*) to the registry.
func WithRuntimeCollectors() Option {
	return func(r *Registry) {
		r.reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		instruments: make(map[string]Instrument),
		reg:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds inst. It fails with ErrDuplicateMetric if the name is taken,
// either by another instrument or by a runtime collector.
func (r *Registry) Register(inst Instrument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := inst.Name()
	if _, ok := r.instruments[name]; ok {
		return domain.ErrDuplicateMetric.WithDetails(name)
	}

	// Names and labels are validated at construction, so a rejection here
	// is a collision with a collector registered outside this map.
	if err := r.reg.Register(inst.collector()); err != nil {
		return domain.ErrDuplicateMetric.WithDetails(name).WithCause(err)
	}

	r.instruments[name] = inst
	return nil
}

// Names returns the registered instrument names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.instruments))
	for name := range r.instruments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a lazy sequence of the current series, grouped by metric
// name in lexical order. Nothing is read until the sequence is ranged over,
// and every range reads afresh. Instruments are read independently; there
// is no cross-instrument atomicity. A read failure is yielded once as an
// error and ends the sequence.
func (r *Registry) Snapshot() iter.Seq2[Sample, error] {
	return func(yield func(Sample, error) bool) {
		families, err := r.reg.Gather()
		if err != nil {
			yield(Sample{}, domain.ErrGatherFailed.WithCause(err))
			return
		}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				if !yield(sampleFromDTO(mf, m), nil) {
					return
				}
			}
		}
	}
}
