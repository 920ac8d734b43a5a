package command

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/opslab-go/internal/cli/connection"
	"github.com/yndnr/opslab-go/internal/cli/output"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health (exit status 1 when unhealthy)",
		Action: health,
	}
}

// HealthResult is the health command's output.
type HealthResult struct {
	Target        string   `json:"target" yaml:"target"`
	Status        string   `json:"status" yaml:"status"`
	CPUPercent    float64  `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent" yaml:"memory_percent"`
	Warnings      []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Healthy reports whether the server answered healthy or degraded.
func (r HealthResult) Healthy() bool {
	return r.Status == "healthy" || r.Status == "degraded"
}

// Table implements output.Tabular.
func (r HealthResult) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("target", r.Target)
	t.AddRow("status", r.Status)
	if r.Error != "" {
		t.AddRow("error", r.Error)
		return t
	}
	t.AddRow("cpu_percent", fmt.Sprintf("%.1f", r.CPUPercent))
	t.AddRow("memory_percent", fmt.Sprintf("%.1f", r.MemoryPercent))
	t.AddRow("warnings", output.Dash(strings.Join(r.Warnings, ", ")))
	return t
}

func health(c *cli.Context) error {
	client, err := NewClient(c)
	if err != nil {
		return err
	}

	resp, err := client.Get(c.Context, "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		System struct {
			CPUPercent    float64 `json:"cpu_percent"`
			MemoryPercent float64 `json:"memory_percent"`
		} `json:"system"`
		Warnings []string `json:"warnings"`
	}
	if err := connection.ParseResponse(resp, &body, http.StatusOK, http.StatusInternalServerError); err != nil {
		return err
	}

	result := HealthResult{
		Target:        client.BaseURL(),
		Status:        body.Status,
		CPUPercent:    body.System.CPUPercent,
		MemoryPercent: body.System.MemoryPercent,
		Warnings:      body.Warnings,
		Error:         body.Error,
	}
	if err := Print(c, result); err != nil {
		return err
	}

	if !result.Healthy() {
		return cli.Exit("server is "+result.Status, 1)
	}
	return nil
}
