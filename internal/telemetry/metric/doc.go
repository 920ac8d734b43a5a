// Package metric provides the instrument set and registry of opslab.
//
// This package implements metrics collection and exposition on top of
// prometheus/client_golang:
//
//   - instrument.go: label-schema validated Counter, Gauge and Histogram
//   - registry.go: explicitly constructed Registry with duplicate detection
//   - sample.go: lazy Snapshot sequence and text exposition via expfmt
//   - app.go: the application instruments (requests, latency, users, errors)
//
// Every mutation of a series is atomic with respect to concurrent callers;
// client_golang keeps per-series atomic values and a per-vector label map,
// so no registry-wide lock is taken on the hot path.
//
// A Snapshot reads instruments independently. Two series read during the
// same exposition are not guaranteed to reflect a single instant.
package metric
