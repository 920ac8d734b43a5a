package sysstat

import (
	"context"
	"sync"
	"time"
)

// Fixed is a Source that returns preset readings. It is safe for concurrent
// use; the fields may be changed between calls with Set.
type Fixed struct {
	mu     sync.Mutex
	cpu    float64
	memory float64
	err    error
}

// NewFixed returns a Source reporting cpu and memory.
func NewFixed(cpu, memory float64) *Fixed {
	return &Fixed{cpu: cpu, memory: memory}
}

// Set replaces the readings.
func (f *Fixed) Set(cpu, memory float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cpu, f.memory = cpu, memory
}

// Fail makes every subsequent read return err. A nil err clears it.
func (f *Fixed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// CPUPercent implements Source. interval is ignored.
func (f *Fixed) CPUPercent(_ context.Context, _ time.Duration) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.cpu, nil
}

// MemoryPercent implements Source.
func (f *Fixed) MemoryPercent(_ context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.memory, nil
}
