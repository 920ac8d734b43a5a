// Package cmap provides a sharded, string-keyed concurrent map.
//
// Each shard has its own RWMutex, so lookups for different keys rarely
// contend. The HTTP rate limiter keeps one token bucket per client IP in a
// Map and sweeps idle entries with DeleteFunc.
//
// Usage:
//
//	m := cmap.New[*rate.Limiter]()
//	lim := m.GetOrCreate(ip, func() *rate.Limiter { return rate.NewLimiter(5, 10) })
package cmap
