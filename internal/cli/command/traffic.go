package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/opslab-go/internal/cli/connection"
	"github.com/yndnr/opslab-go/internal/cli/output"
)

// DefaultTrafficEndpoints are the routes hit when --endpoint is not given.
var DefaultTrafficEndpoints = []string{"/simulate-error", "/user-activity", "/health"}

// TrafficCommand returns the traffic command.
func TrafficCommand() *cli.Command {
	return &cli.Command{
		Name:  "traffic",
		Usage: "Send requests to the server at a fixed rate and summarize the responses",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Requests per second",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Total number of requests",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Requests in flight at once",
				Value: 4,
			},
			&cli.StringSliceFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Usage:   "Route to request, round-robin when repeated (default: " + strings.Join(DefaultTrafficEndpoints, ", ") + ")",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not show progress",
			},
		},
		Action: traffic,
	}
}

// TrafficPlan describes one traffic run.
type TrafficPlan struct {
	Endpoints   []string
	Rate        float64
	Count       int
	Concurrency int
}

// Validate checks the plan's bounds.
func (p TrafficPlan) Validate() error {
	switch {
	case len(p.Endpoints) == 0:
		return errors.New("at least one endpoint is required")
	case p.Rate <= 0:
		return errors.New("--rate must be positive")
	case p.Count < 1:
		return errors.New("--count must be at least 1")
	case p.Concurrency < 1:
		return errors.New("--concurrency must be at least 1")
	}
	for _, e := range p.Endpoints {
		if !strings.HasPrefix(e, "/") {
			return fmt.Errorf("endpoint %q must start with /", e)
		}
	}
	return nil
}

// TrafficRow counts responses for one endpoint and status.
type TrafficRow struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Status   string `json:"status" yaml:"status"`
	Count    int    `json:"count" yaml:"count"`
}

// TrafficSummary is the traffic command's output.
type TrafficSummary struct {
	Sent    int           `json:"sent" yaml:"sent"`
	Elapsed time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Rows    []TrafficRow  `json:"responses" yaml:"responses"`
}

// Table implements output.Tabular.
func (s TrafficSummary) Table() *output.Table {
	t := output.NewTable("ENDPOINT", "STATUS", "COUNT")
	for _, r := range s.Rows {
		t.AddRow(r.Endpoint, r.Status, strconv.Itoa(r.Count))
	}
	return t
}

// statusTransportError labels requests that never got a response.
const statusTransportError = "error"

// RunTraffic issues plan.Count requests, spaced by a token-bucket limiter,
// across plan.Concurrency workers. onDone is called after each request.
// Cancelling ctx stops issuing new requests; the summary covers what was
// sent.
func RunTraffic(ctx context.Context, client *connection.HTTPClient, plan TrafficPlan, onDone func()) (TrafficSummary, error) {
	if err := plan.Validate(); err != nil {
		return TrafficSummary{}, err
	}

	limiter := rate.NewLimiter(rate.Limit(plan.Rate), 1)
	jobs := make(chan string)

	var (
		mu     sync.Mutex
		counts = make(map[[2]string]int)
		sent   int
	)
	record := func(endpoint, status string) {
		mu.Lock()
		counts[[2]string{endpoint, status}]++
		sent++
		mu.Unlock()
		if onDone != nil {
			onDone()
		}
	}

	var wg sync.WaitGroup
	for range plan.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for endpoint := range jobs {
				record(endpoint, hit(ctx, client, endpoint))
			}
		}()
	}

	start := time.Now()
	var err error
	for i := range plan.Count {
		if err = limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case jobs <- plan.Endpoints[i%len(plan.Endpoints)]:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	summary := TrafficSummary{Sent: sent, Elapsed: time.Since(start)}
	for k, n := range counts {
		summary.Rows = append(summary.Rows, TrafficRow{Endpoint: k[0], Status: k[1], Count: n})
	}
	sort.Slice(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i], summary.Rows[j]
		if a.Endpoint != b.Endpoint {
			return a.Endpoint < b.Endpoint
		}
		return a.Status < b.Status
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}
	return summary, nil
}

// hit requests endpoint and returns the status code, or
// statusTransportError when no response arrived.
func hit(ctx context.Context, client *connection.HTTPClient, endpoint string) string {
	resp, err := client.Get(ctx, endpoint)
	if err != nil {
		return statusTransportError
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return strconv.Itoa(resp.StatusCode)
}

func traffic(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}

	plan := TrafficPlan{
		Endpoints:   c.StringSlice("endpoint"),
		Rate:        c.Float64("rate"),
		Count:       c.Int("count"),
		Concurrency: c.Int("concurrency"),
	}
	if len(plan.Endpoints) == 0 {
		plan.Endpoints = DefaultTrafficEndpoints
	}

	var (
		bar    *output.ProgressBar
		onDone func()
	)
	if !c.Bool("quiet") && c.App.ErrWriter != nil && ParseGlobalFlags(c).Output == output.FormatTable {
		bar = output.NewProgressBar(c.App.ErrWriter, "traffic", plan.Count)
		onDone = func() { bar.Increment(1) }
	}

	summary, err := RunTraffic(c.Context, client, plan, onDone)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	return Print(c, summary)
}
