// Package metrics tracks lockbot's operational counters.
package metrics

import "sync"

type Metrics struct {
	mu sync.RWMutex

	enqueued       int64
	passes         int64
	locked         int64
	exempted       int64
	lockFailures   int64
	adhocScheduled int64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncEnqueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued++
}

func (m *Metrics) IncPasses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes++
}

func (m *Metrics) AddLocked(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked += int64(n)
}

func (m *Metrics) AddExempted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exempted += int64(n)
}

func (m *Metrics) IncLockFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockFailures++
}

func (m *Metrics) IncAdhocScheduled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adhocScheduled++
}

// Snapshot returns all counters for the /metrics endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int64{
		"posts_enqueued":  m.enqueued,
		"passes_run":      m.passes,
		"posts_locked":    m.locked,
		"posts_exempted":  m.exempted,
		"lock_failures":   m.lockFailures,
		"adhoc_scheduled": m.adhocScheduled,
	}
}
