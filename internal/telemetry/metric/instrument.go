package metric

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/yndnr/opslab-go/internal/core/domain"
)

// Type is the exposition type of a metric.
type Type string

const (
	TypeCounter   Type = "counter"
	TypeGauge     Type = "gauge"
	TypeHistogram Type = "histogram"
	TypeSummary   Type = "summary"
	TypeUntyped   Type = "untyped"
)

var (
	metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNameRE  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Instrument is a typed metric primitive that can be added to a Registry.
type Instrument interface {
	Name() string
	Help() string
	Type() Type
	LabelKeys() []string

	collector() prometheus.Collector
}

// desc is the immutable identity shared by all instruments.
type desc struct {
	name   string
	help   string
	labels []string
}

func newDesc(name, help string, labels []string) (desc, error) {
	if !metricNameRE.MatchString(name) {
		return desc{}, domain.ErrInvalidInstrument.WithDetails(fmt.Sprintf("metric name %q", name))
	}
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if !labelNameRE.MatchString(l) || strings.HasPrefix(l, "__") {
			return desc{}, domain.ErrInvalidInstrument.WithDetails(fmt.Sprintf("%s: label name %q", name, l))
		}
		if _, dup := seen[l]; dup {
			return desc{}, domain.ErrInvalidInstrument.WithDetails(fmt.Sprintf("%s: duplicate label %q", name, l))
		}
		seen[l] = struct{}{}
	}
	return desc{name: name, help: help, labels: slices.Clone(labels)}, nil
}

func (d desc) Name() string { return d.name }

func (d desc) Help() string { return d.help }

// LabelKeys returns the declared label schema in order.
func (d desc) LabelKeys() []string { return slices.Clone(d.labels) }

// checkLabels rejects label sets whose arity differs from the schema.
func (d desc) checkLabels(lvs []string) error {
	if len(lvs) != len(d.labels) {
		return d.invalid("got %d label values for labels %v", len(lvs), d.labels)
	}
	return nil
}

func (d desc) invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", d.name, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf(format, args...)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Counter is a monotonically non-decreasing value per label set.
type Counter struct {
	desc
	vec *prometheus.CounterVec
}

// NewCounter creates a counter with the given label schema.
func NewCounter(name, help string, labelKeys ...string) (*Counter, error) {
	d, err := newDesc(name, help, labelKeys)
	if err != nil {
		return nil, err
	}
	c := &Counter{
		desc: d,
		vec:  prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, d.labels),
	}
	if len(d.labels) == 0 {
		c.vec.WithLabelValues()
	}
	return c, nil
}

// Type implements Instrument.
func (c *Counter) Type() Type { return TypeCounter }

func (c *Counter) collector() prometheus.Collector { return c.vec }

// Inc adds one to the series identified by lvs.
func (c *Counter) Inc(lvs ...string) error {
	return c.Add(1, lvs...)
}

// Add adds delta to the series identified by lvs. The series is created at
// zero on first use. delta must be finite and non-negative.
func (c *Counter) Add(delta float64, lvs ...string) error {
	if !finite(delta) || delta < 0 {
		return c.invalid("counter delta must be a finite value >= 0, got %v", delta)
	}
	if err := c.checkLabels(lvs); err != nil {
		return err
	}
	m, err := c.vec.GetMetricWithLabelValues(lvs...)
	if err != nil {
		return c.invalid("%v", err)
	}
	m.Add(delta)
	return nil
}

// Value returns the current value of a series, zero if it was never written.
func (c *Counter) Value(lvs ...string) (float64, error) {
	m, err := readSeries(c.desc, c.vec, lvs)
	if err != nil || m == nil {
		return 0, err
	}
	return m.GetCounter().GetValue(), nil
}

// Gauge is a last-write-wins value per label set.
type Gauge struct {
	desc
	vec *prometheus.GaugeVec
}

// NewGauge creates a gauge with the given label schema.
func NewGauge(name, help string, labelKeys ...string) (*Gauge, error) {
	d, err := newDesc(name, help, labelKeys)
	if err != nil {
		return nil, err
	}
	g := &Gauge{
		desc: d,
		vec:  prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, d.labels),
	}
	if len(d.labels) == 0 {
		g.vec.WithLabelValues()
	}
	return g, nil
}

// Type implements Instrument.
func (g *Gauge) Type() Type { return TypeGauge }

func (g *Gauge) collector() prometheus.Collector { return g.vec }

// Set overwrites the series identified by lvs. value must be finite.
func (g *Gauge) Set(value float64, lvs ...string) error {
	if !finite(value) {
		return g.invalid("gauge value must be finite, got %v", value)
	}
	if err := g.checkLabels(lvs); err != nil {
		return err
	}
	m, err := g.vec.GetMetricWithLabelValues(lvs...)
	if err != nil {
		return g.invalid("%v", err)
	}
	m.Set(value)
	return nil
}

// Value returns the last written value of a series, zero if never written.
func (g *Gauge) Value(lvs ...string) (float64, error) {
	m, err := readSeries(g.desc, g.vec, lvs)
	if err != nil || m == nil {
		return 0, err
	}
	return m.GetGauge().GetValue(), nil
}

// Histogram counts observations into buckets fixed at construction.
type Histogram struct {
	desc
	buckets []float64
	vec     *prometheus.HistogramVec
}

// NewHistogram creates a histogram. A nil buckets slice selects
// prometheus.DefBuckets. Bucket bounds must be finite and strictly
// increasing; an implicit +Inf bucket is always present.
func NewHistogram(name, help string, buckets []float64, labelKeys ...string) (*Histogram, error) {
	d, err := newDesc(name, help, labelKeys)
	if err != nil {
		return nil, err
	}
	if slices.Contains(d.labels, "le") {
		return nil, domain.ErrInvalidInstrument.WithDetails(name + `: "le" is reserved for histogram buckets`)
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	if len(buckets) == 0 {
		return nil, domain.ErrInvalidInstrument.WithDetails(name + ": no buckets")
	}
	for i, b := range buckets {
		if !finite(b) {
			return nil, domain.ErrInvalidInstrument.WithDetails(fmt.Sprintf("%s: bucket %v is not finite", name, b))
		}
		if i > 0 && b <= buckets[i-1] {
			return nil, domain.ErrInvalidInstrument.WithDetails(fmt.Sprintf("%s: buckets must be strictly increasing", name))
		}
	}
	bs := slices.Clone(buckets)
	h := &Histogram{
		desc:    d,
		buckets: bs,
		vec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: slices.Clone(bs),
		}, d.labels),
	}
	if len(d.labels) == 0 {
		h.vec.WithLabelValues()
	}
	return h, nil
}

// Type implements Instrument.
func (h *Histogram) Type() Type { return TypeHistogram }

func (h *Histogram) collector() prometheus.Collector { return h.vec }

// Buckets returns a copy of the bucket upper bounds.
func (h *Histogram) Buckets() []float64 { return slices.Clone(h.buckets) }

// Observe records value into the series identified by lvs. value must be
// finite.
func (h *Histogram) Observe(value float64, lvs ...string) error {
	if !finite(value) {
		return h.invalid("observation must be finite, got %v", value)
	}
	if err := h.checkLabels(lvs); err != nil {
		return err
	}
	o, err := h.vec.GetMetricWithLabelValues(lvs...)
	if err != nil {
		return h.invalid("%v", err)
	}
	o.Observe(value)
	return nil
}

// Distribution returns the current state of a series. ok is false when the
// series has never been observed.
func (h *Histogram) Distribution(lvs ...string) (dist Distribution, ok bool, err error) {
	m, err := readSeries(h.desc, h.vec, lvs)
	if err != nil || m == nil {
		return Distribution{}, false, err
	}
	return distributionFromDTO(m), true, nil
}

// readSeries collects c and returns the series whose labels equal lvs, or
// nil if it does not exist yet. It never creates a series.
func readSeries(d desc, c prometheus.Collector, lvs []string) (*dto.Metric, error) {
	if err := d.checkLabels(lvs); err != nil {
		return nil, err
	}

	ch := make(chan prometheus.Metric)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var found *dto.Metric
	for pm := range ch {
		if found != nil {
			continue
		}
		m := &dto.Metric{}
		if err := pm.Write(m); err != nil {
			continue
		}
		if labelsEqual(m.GetLabel(), d.labels, lvs) {
			found = m
		}
	}
	return found, nil
}

func labelsEqual(pairs []*dto.LabelPair, keys, values []string) bool {
	if len(pairs) != len(keys) {
		return false
	}
	want := make(map[string]string, len(keys))
	for i, k := range keys {
		want[k] = values[i]
	}
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; !ok || v != p.GetValue() {
			return false
		}
	}
	return true
}
