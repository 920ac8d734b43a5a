package domain

// ErrorKind is the error_type label value of app_errors_total.
type ErrorKind string

// Error kinds recorded by handlers and middleware.
const (
	KindHealthCheck        ErrorKind = "health_check"
	KindLoadSimulation     ErrorKind = "load_simulation"
	KindServerError        ErrorKind = "server_error"
	KindClientError        ErrorKind = "client_error"
	KindMetricsError       ErrorKind = "metrics_error"
	KindUnhandledException ErrorKind = "unhandled_exception"
)

// String returns the label value.
func (k ErrorKind) String() string {
	return string(k)
}
