// internal/metrics/aggregator.go

// Package metrics collects per-service call statistics for backend clients.
package metrics

import (
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/llm"
)

// ServiceStats accumulates call outcomes for one backend service.
type ServiceStats struct {
	Calls         int
	Errors        int
	TotalDuration time.Duration
}

// AverageDuration returns the mean call duration, or zero with no calls.
func (s ServiceStats) AverageDuration() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Calls)
}

// Aggregator accumulates statistics across all wrapped clients in a process.
type Aggregator struct {
	mu    sync.Mutex
	stats map[llm.ServiceType]*ServiceStats
}

var (
	instance *Aggregator
	once     sync.Once
)

// GetInstance returns the process-wide aggregator.
func GetInstance() *Aggregator {
	once.Do(func() {
		instance = NewAggregator()
	})
	return instance
}

// NewAggregator creates an isolated aggregator, useful in tests.
func NewAggregator() *Aggregator {
	return &Aggregator{stats: make(map[llm.ServiceType]*ServiceStats)}
}

// Record adds one call outcome for a service.
func (a *Aggregator) Record(service llm.ServiceType, duration time.Duration, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, ok := a.stats[service]
	if !ok {
		stats = &ServiceStats{}
		a.stats[service] = stats
	}
	stats.Calls++
	stats.TotalDuration += duration
	if err != nil {
		stats.Errors++
	}
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Aggregator) Snapshot() map[llm.ServiceType]ServiceStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[llm.ServiceType]ServiceStats, len(a.stats))
	for service, stats := range a.stats {
		out[service] = *stats
	}
	return out
}

// Reset clears all accumulated statistics.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = make(map[llm.ServiceType]*ServiceStats)
}
