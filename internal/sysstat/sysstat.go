// Package sysstat reads host CPU and memory utilisation.
//
// The production Source parses /proc/stat and /proc/meminfo through
// github.com/prometheus/procfs. CPU utilisation is the busy share of the
// jiffies elapsed between two readings, matching what top and psutil report.
package sysstat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/procfs"

	"github.com/yndnr/opslab-go/internal/core/domain"
)

// Source reports host utilisation as percentages in [0, 100].
type Source interface {
	// CPUPercent samples CPU utilisation over interval. An interval of zero
	// compares against the previous call instead of sleeping; the first such
	// call has no baseline and reports 0.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)

	// MemoryPercent reports the share of physical memory in use.
	MemoryPercent(ctx context.Context) (float64, error)
}

// cpuTimes is the subset of /proc/stat's aggregate cpu line needed to
// compute utilisation.
type cpuTimes struct {
	busy  float64
	total float64
}

func cpuTimesFrom(s procfs.CPUStat) cpuTimes {
	idle := s.Idle + s.Iowait
	busy := s.User + s.Nice + s.System + s.IRQ + s.SoftIRQ + s.Steal
	return cpuTimes{busy: busy, total: busy + idle}
}

// percentBetween returns the busy share of the time elapsed from a to b.
func percentBetween(a, b cpuTimes) float64 {
	dt := b.total - a.total
	if dt <= 0 {
		return 0
	}
	p := (b.busy - a.busy) / dt * 100
	return clamp(p)
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// ProcSource reads utilisation from a procfs mount.
type ProcSource struct {
	fs procfs.FS

	mu   sync.Mutex
	last *cpuTimes
}

// NewProcSource opens the procfs mounted at mountPoint. An empty mountPoint
// selects procfs.DefaultMountPoint.
func NewProcSource(mountPoint string) (*ProcSource, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, domain.ErrStatUnavailable.WithDetails(mountPoint).WithCause(err)
	}
	return &ProcSource{fs: fs}, nil
}

func (p *ProcSource) read() (cpuTimes, error) {
	st, err := p.fs.Stat()
	if err != nil {
		return cpuTimes{}, domain.ErrStatUnavailable.WithDetails("read cpu stat").WithCause(err)
	}
	return cpuTimesFrom(st.CPUTotal), nil
}

// CPUPercent implements Source.
func (p *ProcSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	if interval < 0 {
		return 0, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("negative cpu sample interval %s", interval))
	}

	if interval == 0 {
		cur, err := p.read()
		if err != nil {
			return 0, err
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		prev := p.last
		p.last = &cur
		if prev == nil {
			return 0, nil
		}
		return percentBetween(*prev, cur), nil
	}

	start, err := p.read()
	if err != nil {
		return 0, err
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0, domain.ErrStatUnavailable.WithDetails("cpu sample interrupted").WithCause(ctx.Err())
	case <-timer.C:
	}

	end, err := p.read()
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.last = &end
	p.mu.Unlock()

	return percentBetween(start, end), nil
}

// MemoryPercent implements Source. When the kernel does not report
// MemAvailable it is estimated as MemFree + Buffers + Cached.
func (p *ProcSource) MemoryPercent(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.ErrStatUnavailable.WithCause(err)
	}

	mi, err := p.fs.Meminfo()
	if err != nil {
		return 0, domain.ErrStatUnavailable.WithDetails("read meminfo").WithCause(err)
	}
	if mi.MemTotal == nil || *mi.MemTotal == 0 {
		return 0, domain.ErrStatUnavailable.WithDetails("meminfo has no MemTotal")
	}

	total := float64(*mi.MemTotal)
	var avail float64
	if mi.MemAvailable != nil {
		avail = float64(*mi.MemAvailable)
	} else {
		avail = float64(deref(mi.MemFree) + deref(mi.Buffers) + deref(mi.Cached))
	}
	return clamp((total - avail) / total * 100), nil
}

func deref(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}
