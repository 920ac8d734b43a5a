package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("APP-TEST-1000", "test message"),
			expected: "[APP-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("APP-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[APP-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("APP-TEST-1000", "message 1")
	err2 := NewDomainError("APP-TEST-1000", "message 2")
	err3 := NewDomainError("APP-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_IsThroughDetailsAndWrapping(t *testing.T) {
	err := fmt.Errorf("counter app_errors_total: %w",
		ErrInvalidArgument.WithDetails("negative delta -1"))

	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("errors.Is should see through WithDetails and fmt wrapping")
	}
	if errors.Is(err, ErrDuplicateMetric) {
		t.Error("errors.Is should not match a different sentinel")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("open /proc/stat: no such file")
	err := ErrStatUnavailable.WithCause(cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	errNoCause := NewDomainError("APP-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("APP-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
}

func TestDomainError_WithCauseKeepsSentinel(t *testing.T) {
	cause := fmt.Errorf("cause")
	wrapped := ErrStatUnavailable.WithCause(cause)

	if wrapped.Cause != cause {
		t.Errorf("WithCause() should set cause, got %v", wrapped.Cause)
	}
	if ErrStatUnavailable.Cause != nil {
		t.Error("WithCause() must not mutate the sentinel")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrStatUnavailable, "APP-STAT-5030"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrSimulatedClientFault), "APP-SIM-4000"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrInvalidArgument, "APP-ARG-4000"},
		{ErrDuplicateMetric, "APP-METRIC-4090"},
		{ErrInvalidInstrument, "APP-METRIC-4001"},
		{ErrGatherFailed, "APP-METRIC-5000"},
		{ErrStatUnavailable, "APP-STAT-5030"},
		{ErrSimulatedServerFault, "APP-SIM-5000"},
		{ErrSimulatedClientFault, "APP-SIM-4000"},
		{ErrLoadInterrupted, "APP-SIM-4990"},
		{ErrInternalServer, "APP-SYS-5000"},
		{ErrRateLimited, "APP-SYS-4290"},
		{ErrUnauthorized, "APP-SYS-4010"},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
		if seen[tt.code] {
			t.Errorf("duplicate code %s", tt.code)
		}
		seen[tt.code] = true
	}
}

func TestErrorKind_String(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindHealthCheck:        "health_check",
		KindLoadSimulation:     "load_simulation",
		KindServerError:        "server_error",
		KindClientError:        "client_error",
		KindMetricsError:       "metrics_error",
		KindUnhandledException: "unhandled_exception",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("String() = %q, want %q", k.String(), want)
		}
	}
}
