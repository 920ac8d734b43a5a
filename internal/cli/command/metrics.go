package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/opslab-go/internal/cli/connection"
	"github.com/yndnr/opslab-go/internal/cli/output"
	"github.com/yndnr/opslab-go/internal/telemetry/metric"
)

// MetricsCommand returns the metrics command.
func MetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Scrape the exposition endpoint and list series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Exposition route on the server",
				Value: "/metrics",
			},
			&cli.StringSliceFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Only show metrics whose name starts with this prefix (repeatable)",
			},
		},
		Action: metrics,
	}
}

// Series is one scraped series in the metrics command's output.
type Series struct {
	Name   string            `json:"name" yaml:"name"`
	Type   string            `json:"type" yaml:"type"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Value  float64           `json:"value" yaml:"value"`
	Count  uint64            `json:"count,omitempty" yaml:"count,omitempty"`
	Sum    float64           `json:"sum,omitempty" yaml:"sum,omitempty"`

	labels string
}

// SeriesList is the metrics command's output.
type SeriesList []Series

// Table implements output.Tabular.
func (l SeriesList) Table() *output.Table {
	t := output.NewTable("NAME", "LABELS", "TYPE", "VALUE")
	for _, s := range l {
		value := output.FormatFloat(s.Value)
		if s.Type == string(metric.TypeHistogram) || s.Type == string(metric.TypeSummary) {
			value = fmt.Sprintf("count=%d sum=%s", s.Count, output.FormatFloat(s.Sum))
		}
		t.AddRow(s.Name, output.Dash(s.labels), s.Type, value)
	}
	return t
}

// seriesFrom converts parsed samples, keeping those whose name starts
// with one of prefixes (all when prefixes is empty).
func seriesFrom(samples []metric.Sample, prefixes []string) SeriesList {
	out := make(SeriesList, 0, len(samples))
	for _, s := range samples {
		if !matchesPrefix(s.Name, prefixes) {
			continue
		}
		row := Series{
			Name:   s.Name,
			Type:   string(s.Type),
			Value:  s.Value,
			labels: strings.Trim(s.Labels.String(), "{}"),
		}
		if len(s.Labels) > 0 {
			row.Labels = s.Labels.Map()
		}
		if s.Distribution != nil {
			row.Count = s.Distribution.Count
			row.Sum = s.Distribution.Sum
		}
		out = append(out, row)
	}
	// ParseText sorts by name; keep series of one metric in label order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].labels < out[j].labels
	})
	return out
}

func matchesPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func metrics(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}

	resp, err := client.Get(c.Context, c.String("path"))
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	text, err := connection.ReadText(resp)
	if err != nil {
		return err
	}

	samples, err := metric.ParseText(strings.NewReader(text))
	if err != nil {
		return err
	}

	return Print(c, seriesFrom(samples, c.StringSlice("filter")))
}
