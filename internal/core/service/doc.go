// Package service implements the behaviour behind the opslab endpoints.
//
// Simulator owns the health policy and the load, error and activity
// simulations. It records into metric.AppMetrics and reads host figures
// from a sysstat.Source; randomness and the wall clock are injected so
// tests can pin them. HTTP concerns live in internal/server/httpserver.
package service
