package metric

import (
	"fmt"
	"io"
	"iter"
	"math"
	"sort"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"github.com/yndnr/opslab-go/internal/core/domain"
)

// Format is the text exposition format written by Serialize.
var Format = expfmt.NewFormat(expfmt.TypeTextPlain)

// ContentType is the MIME type advertised for serialized metrics.
var ContentType = string(Format)

// Label is one name/value pair of a series.
type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Labels is the ordered label set of a series.
type Labels []Label

// Get returns the value of the named label or "".
func (ls Labels) Get(name string) string {
	for _, l := range ls {
		if l.Name == name {
			return l.Value
		}
	}
	return ""
}

// Map returns the labels as a map.
func (ls Labels) Map() map[string]string {
	m := make(map[string]string, len(ls))
	for _, l := range ls {
		m[l.Name] = l.Value
	}
	return m
}

// String renders the labels in exposition syntax, e.g. {a="1",b="2"}.
func (ls Labels) String() string {
	if len(ls) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, l := range ls {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Name)
		b.WriteString("=")
		b.WriteString(strconv.Quote(l.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound float64 `json:"upper_bound"`
	Count      uint64  `json:"count"`
}

// Quantile is one summary quantile.
type Quantile struct {
	Quantile float64 `json:"quantile"`
	Value    float64 `json:"value"`
}

// Distribution is the state of a histogram or summary series. Buckets are
// cumulative and exclude the implicit +Inf bucket, whose count is Count.
type Distribution struct {
	Count     uint64     `json:"count"`
	Sum       float64    `json:"sum"`
	Buckets   []Bucket   `json:"buckets,omitempty"`
	Quantiles []Quantile `json:"quantiles,omitempty"`
}

// Sample is the state of one series at the time it was read.
type Sample struct {
	Name         string        `json:"name"`
	Help         string        `json:"help,omitempty"`
	Type         Type          `json:"type"`
	Labels       Labels        `json:"labels,omitempty"`
	Value        float64       `json:"value"`
	Distribution *Distribution `json:"distribution,omitempty"`
}

// Serialize writes the samples of snap in the text exposition format.
// Samples sharing a name must be adjacent; Registry.Snapshot guarantees
// this. The first error yielded by snap aborts serialization.
func Serialize(w io.Writer, snap iter.Seq2[Sample, error]) error {
	enc := expfmt.NewEncoder(w, Format)

	var cur *dto.MetricFamily
	done := make(map[string]struct{})
	flush := func() error {
		if cur == nil {
			return nil
		}
		done[cur.GetName()] = struct{}{}
		err := enc.Encode(cur)
		cur = nil
		return err
	}

	for s, err := range snap {
		if err != nil {
			return err
		}
		if cur == nil || cur.GetName() != s.Name {
			if err := flush(); err != nil {
				return fmt.Errorf("encode metrics: %w", err)
			}
			if _, again := done[s.Name]; again {
				return fmt.Errorf("%s: %w", s.Name,
					domain.ErrInvalidArgument.WithDetails("samples of one metric are not adjacent"))
			}
			t, err := s.Type.dto()
			if err != nil {
				return err
			}
			cur = &dto.MetricFamily{
				Name: ptr(s.Name),
				Help: ptr(s.Help),
				Type: t.Enum(),
			}
		}
		m, err := s.toDTO()
		if err != nil {
			return err
		}
		cur.Metric = append(cur.Metric, m)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	return nil
}

func (t Type) dto() (dto.MetricType, error) {
	switch t {
	case TypeCounter:
		return dto.MetricType_COUNTER, nil
	case TypeGauge:
		return dto.MetricType_GAUGE, nil
	case TypeHistogram:
		return dto.MetricType_HISTOGRAM, nil
	case TypeSummary:
		return dto.MetricType_SUMMARY, nil
	case TypeUntyped:
		return dto.MetricType_UNTYPED, nil
	default:
		return 0, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown metric type %q", t))
	}
}

func typeFromDTO(t dto.MetricType) Type {
	switch t {
	case dto.MetricType_COUNTER:
		return TypeCounter
	case dto.MetricType_GAUGE:
		return TypeGauge
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		return TypeHistogram
	case dto.MetricType_SUMMARY:
		return TypeSummary
	default:
		return TypeUntyped
	}
}

func (s Sample) toDTO() (*dto.Metric, error) {
	m := &dto.Metric{}
	for _, l := range s.Labels {
		m.Label = append(m.Label, &dto.LabelPair{Name: ptr(l.Name), Value: ptr(l.Value)})
	}

	switch s.Type {
	case TypeCounter:
		m.Counter = &dto.Counter{Value: ptr(s.Value)}
	case TypeGauge:
		m.Gauge = &dto.Gauge{Value: ptr(s.Value)}
	case TypeUntyped:
		m.Untyped = &dto.Untyped{Value: ptr(s.Value)}
	case TypeHistogram:
		d := s.dist()
		h := &dto.Histogram{SampleCount: ptr(d.Count), SampleSum: ptr(d.Sum)}
		for _, b := range d.Buckets {
			h.Bucket = append(h.Bucket, &dto.Bucket{
				UpperBound:      ptr(b.UpperBound),
				CumulativeCount: ptr(b.Count),
			})
		}
		m.Histogram = h
	case TypeSummary:
		d := s.dist()
		sm := &dto.Summary{SampleCount: ptr(d.Count), SampleSum: ptr(d.Sum)}
		for _, q := range d.Quantiles {
			sm.Quantile = append(sm.Quantile, &dto.Quantile{Quantile: ptr(q.Quantile), Value: ptr(q.Value)})
		}
		m.Summary = sm
	default:
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown metric type %q", s.Type))
	}
	return m, nil
}

func (s Sample) dist() Distribution {
	if s.Distribution == nil {
		return Distribution{}
	}
	return *s.Distribution
}

func sampleFromDTO(mf *dto.MetricFamily, m *dto.Metric) Sample {
	s := Sample{
		Name: mf.GetName(),
		Help: mf.GetHelp(),
		Type: typeFromDTO(mf.GetType()),
	}
	for _, lp := range m.GetLabel() {
		s.Labels = append(s.Labels, Label{Name: lp.GetName(), Value: lp.GetValue()})
	}

	switch s.Type {
	case TypeCounter:
		s.Value = m.GetCounter().GetValue()
	case TypeGauge:
		s.Value = m.GetGauge().GetValue()
	case TypeHistogram, TypeSummary:
		d := distributionFromDTO(m)
		s.Distribution = &d
	default:
		s.Value = m.GetUntyped().GetValue()
	}
	return s
}

func distributionFromDTO(m *dto.Metric) Distribution {
	if h := m.GetHistogram(); h != nil {
		d := Distribution{Count: h.GetSampleCount(), Sum: h.GetSampleSum()}
		for _, b := range h.GetBucket() {
			if math.IsInf(b.GetUpperBound(), +1) {
				continue
			}
			d.Buckets = append(d.Buckets, Bucket{UpperBound: b.GetUpperBound(), Count: b.GetCumulativeCount()})
		}
		return d
	}
	if sm := m.GetSummary(); sm != nil {
		d := Distribution{Count: sm.GetSampleCount(), Sum: sm.GetSampleSum()}
		for _, q := range sm.GetQuantile() {
			d.Quantiles = append(d.Quantiles, Quantile{Quantile: q.GetQuantile(), Value: q.GetValue()})
		}
		return d
	}
	return Distribution{}
}

// ParseText parses text exposition format into samples sorted by metric
// name. Series keep the order in which they appear in the input.
func ParseText(r io.Reader) ([]Sample, error) {
	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("parse exposition: %w", err)
	}

	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Sample
	for _, name := range names {
		mf := families[name]
		for _, m := range mf.GetMetric() {
			out = append(out, sampleFromDTO(mf, m))
		}
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }
