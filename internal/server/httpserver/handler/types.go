package handler

import "time"

// unixSeconds renders t as fractional seconds since the epoch.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// SystemStats is the system section of a health response.
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// HealthResponse is the body of a successful GET /health.
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp float64     `json:"timestamp"`
	System    SystemStats `json:"system"`
	Warnings  []string    `json:"warnings,omitempty"`
}

// UnhealthyResponse is the body of a failed GET /health.
type UnhealthyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// LoadResponse is the body of GET /simulate-load.
type LoadResponse struct {
	Message   string  `json:"message"`
	Duration  string  `json:"duration"`
	Timestamp float64 `json:"timestamp"`
}

// SuccessResponse is the body of a successful GET /simulate-error.
type SuccessResponse struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

// ActivityResponse is the body of GET /user-activity.
type ActivityResponse struct {
	ActiveUsers int     `json:"active_users"`
	Hour        int     `json:"hour"`
	Timestamp   float64 `json:"timestamp"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// ErrorResponse is the body of every other failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
