package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/opslab-go/internal/cli/connection"
)

// runApp runs the CLI with args and returns what it printed.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := App()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"opslab-cli"}, args...))
	return stdout.String(), stderr.String(), err
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func TestApp_BadOutputFormat(t *testing.T) {
	_, _, err := runApp(t, "--output", "xml", "health")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"status":    "degraded",
			"timestamp": 1700000000.5,
			"system":    map[string]any{"cpu_percent": 95.5, "memory_percent": 40},
			"warnings":  []string{"High CPU usage"},
		})
	}))
	defer srv.Close()

	t.Run("table", func(t *testing.T) {
		out, _, err := runApp(t, "--server", srv.URL, "health")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		for _, want := range []string{"degraded", "95.5", "40.0", "High CPU usage", srv.URL} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := runApp(t, "--server", srv.URL, "-o", "json", "health")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		var got HealthResult
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decode: %v\n%s", err, out)
		}
		if got.Status != "degraded" || got.CPUPercent != 95.5 || len(got.Warnings) != 1 {
			t.Errorf("result = %+v", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := runApp(t, "--server", srv.URL, "-o", "yaml", "health")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !strings.Contains(out, "status: degraded") || !strings.Contains(out, "cpu_percent: 95.5") {
			t.Errorf("yaml output:\n%s", out)
		}
	})
}

func TestHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusInternalServerError, map[string]string{
			"status": "unhealthy",
			"error":  "system stats unavailable",
		})
	}))
	defer srv.Close()

	out, _, err := runApp(t, "--server", srv.URL, "health")

	var exit cli.ExitCoder
	if !errors.As(err, &exit) || exit.ExitCode() != 1 {
		t.Fatalf("Run() error = %v, want exit code 1", err)
	}
	if !strings.Contains(out, "unhealthy") || !strings.Contains(out, "system stats unavailable") {
		t.Errorf("output:\n%s", out)
	}
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, _, err := runApp(t, "--server", url, "--timeout", "1s", "health"); err == nil {
		t.Error("Run() expected error for unreachable server")
	}
}

const exposition = `# HELP app_requests_total Total requests
# TYPE app_requests_total counter
app_requests_total{endpoint="home",method="GET",status="200"} 1
app_requests_total{endpoint="health",method="GET",status="200"} 3
# HELP app_active_users Active users
# TYPE app_active_users gauge
app_active_users 42
# HELP app_request_duration_seconds Request latency
# TYPE app_request_duration_seconds histogram
app_request_duration_seconds_bucket{le="0.1"} 2
app_request_duration_seconds_bucket{le="+Inf"} 3
app_request_duration_seconds_sum 0.5
app_request_duration_seconds_count 3
`

func metricsServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" && r.URL.Path != "/internal/metrics" {
			http.NotFound(w, r)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.Header().Set("X-Error-Code", "APP-SYS-4010")
			jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(exposition))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMetrics(t *testing.T) {
	srv := metricsServer(t, "")

	out, _, err := runApp(t, "--server", srv.URL, "-o", "json", "metrics")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var got []Series
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(got) != 4 {
		t.Fatalf("got %d series, want 4: %+v", len(got), got)
	}
	if got[0].Name != "app_active_users" || got[0].Value != 42 {
		t.Errorf("first series = %+v", got[0])
	}
	if got[1].Type != "histogram" || got[1].Count != 3 || got[1].Sum != 0.5 {
		t.Errorf("histogram series = %+v", got[1])
	}
	if got[2].Labels["endpoint"] != "health" || got[3].Labels["endpoint"] != "home" {
		t.Errorf("request series not in label order: %+v %+v", got[2], got[3])
	}
}

func TestMetrics_FilterTable(t *testing.T) {
	srv := metricsServer(t, "")

	out, _, err := runApp(t, "--server", srv.URL, "metrics", "--path", "/internal/metrics", "--filter", "app_requests")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], `endpoint="health"`) || !strings.Contains(lines[1], "3") {
		t.Errorf("row = %q", lines[1])
	}
	if strings.Contains(out, "app_active_users") {
		t.Error("filter did not exclude app_active_users")
	}
}

func TestMetrics_Token(t *testing.T) {
	srv := metricsServer(t, "s3cret")

	if _, _, err := runApp(t, "--server", srv.URL, "metrics"); err == nil || !strings.Contains(err.Error(), "APP-SYS-4010") {
		t.Errorf("Run() without token error = %v", err)
	}
	if _, _, err := runApp(t, "--server", srv.URL, "--token", "s3cret", "metrics"); err != nil {
		t.Errorf("Run() with token error = %v", err)
	}
}

func TestSeriesList_Table(t *testing.T) {
	tbl := SeriesList{
		{Name: "g", Type: "gauge", Value: 1.5},
		{Name: "h", Type: "histogram", Count: 2, Sum: 0.25, labels: `method="GET"`},
	}.Table()

	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	if tbl.Rows[0][1] != "-" || tbl.Rows[0][3] != "1.5" {
		t.Errorf("gauge row = %v", tbl.Rows[0])
	}
	if tbl.Rows[1][3] != "count=2 sum=0.25" {
		t.Errorf("histogram row = %v", tbl.Rows[1])
	}
}

// countingServer answers /ok with 200 and everything else with 500.
type countingServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newCountingServer(t *testing.T) *countingServer {
	cs := &countingServer{hits: make(map[string]int)}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.hits[r.URL.Path]++
		cs.mu.Unlock()
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func TestTraffic(t *testing.T) {
	cs := newCountingServer(t)

	out, stderr, err := runApp(t, "--server", cs.URL, "-o", "json",
		"traffic", "--rate", "1000", "--count", "6", "--concurrency", "2",
		"--endpoint", "/ok", "--endpoint", "/fail")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stderr != "" {
		t.Errorf("progress written for json output: %q", stderr)
	}

	var got TrafficSummary
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Sent != 6 {
		t.Errorf("Sent = %d, want 6", got.Sent)
	}
	want := []TrafficRow{
		{Endpoint: "/fail", Status: "500", Count: 3},
		{Endpoint: "/ok", Status: "200", Count: 3},
	}
	if len(got.Rows) != len(want) {
		t.Fatalf("rows = %+v, want %+v", got.Rows, want)
	}
	for i := range want {
		if got.Rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got.Rows[i], want[i])
		}
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.hits["/ok"] != 3 || cs.hits["/fail"] != 3 {
		t.Errorf("server hits = %v", cs.hits)
	}
}

func TestTraffic_TableWithProgress(t *testing.T) {
	cs := newCountingServer(t)

	out, stderr, err := runApp(t, "--server", cs.URL, "traffic", "--rate", "1000", "--count", "2", "-e", "/ok")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stderr, "(2/2)") {
		t.Errorf("progress = %q", stderr)
	}
	if !strings.Contains(out, "ENDPOINT") || !strings.Contains(out, "/ok") {
		t.Errorf("table:\n%s", out)
	}
}

func TestTrafficPlan_Validate(t *testing.T) {
	ok := TrafficPlan{Endpoints: []string{"/x"}, Rate: 1, Count: 1, Concurrency: 1}

	tests := []struct {
		name   string
		mutate func(*TrafficPlan)
	}{
		{"no endpoints", func(p *TrafficPlan) { p.Endpoints = nil }},
		{"relative endpoint", func(p *TrafficPlan) { p.Endpoints = []string{"health"} }},
		{"zero rate", func(p *TrafficPlan) { p.Rate = 0 }},
		{"zero count", func(p *TrafficPlan) { p.Count = 0 }},
		{"zero concurrency", func(p *TrafficPlan) { p.Concurrency = 0 }},
	}

	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() = %v for a valid plan", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ok
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestRunTraffic_Cancelled(t *testing.T) {
	cs := newCountingServer(t)
	client, err := connection.NewHTTPClient(connection.Options{Server: cs.URL})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := RunTraffic(ctx, client, TrafficPlan{
		Endpoints: []string{"/ok"}, Rate: 1, Count: 10, Concurrency: 1,
	}, nil)
	if err != nil {
		t.Errorf("RunTraffic() error = %v, cancellation should not be an error", err)
	}
	if summary.Sent != 0 {
		t.Errorf("Sent = %d, want 0", summary.Sent)
	}
}
