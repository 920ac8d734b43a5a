// Package domain defines the core error taxonomy for opslab.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form APP-<AREA>-<NNNN> where the last digits follow the
// HTTP status family the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "APP-ARG-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates bad instrument input: a negative counter
	// delta, a non-finite observation, or a label set that does not match the
	// instrument's declared label keys. Values are rejected, never clamped.
	ErrInvalidArgument = NewDomainError("APP-ARG-4000", "invalid argument")
)

// ============================================================================
// Metric Registry Errors (METRIC)
// ============================================================================

var (
	// ErrDuplicateMetric indicates an instrument name is already registered.
	// It is fatal at startup.
	ErrDuplicateMetric = NewDomainError("APP-METRIC-4090", "duplicate metric")

	// ErrInvalidInstrument indicates an instrument definition is malformed
	// (empty name, bad bucket layout, duplicate label keys).
	ErrInvalidInstrument = NewDomainError("APP-METRIC-4001", "invalid instrument definition")

	// ErrGatherFailed indicates the registry could not read instrument state.
	ErrGatherFailed = NewDomainError("APP-METRIC-5000", "metrics gather failed")
)

// ============================================================================
// System Stat Errors (STAT)
// ============================================================================

var (
	// ErrStatUnavailable indicates the external system-stat source failed.
	ErrStatUnavailable = NewDomainError("APP-STAT-5030", "system stats unavailable")
)

// ============================================================================
// Simulation Errors (SIM)
// ============================================================================

var (
	// ErrSimulatedServerFault is the intentional 5xx branch of /simulate-error.
	ErrSimulatedServerFault = NewDomainError("APP-SIM-5000", "Internal server error")

	// ErrSimulatedClientFault is the intentional 4xx branch of /simulate-error.
	ErrSimulatedClientFault = NewDomainError("APP-SIM-4000", "Bad request")

	// ErrLoadInterrupted indicates the load simulation was cancelled before
	// its busy-wait completed.
	ErrLoadInterrupted = NewDomainError("APP-SIM-4990", "load simulation interrupted")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("APP-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("APP-SYS-4290", "too many requests")

	// ErrUnauthorized indicates missing or wrong metrics credentials.
	ErrUnauthorized = NewDomainError("APP-SYS-4010", "unauthorized")
)
