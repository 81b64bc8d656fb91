package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/tgaillard/pluscan/internal/model"
)

// Metrics counts terminal pipeline states for observability. Counters are
// process-wide and safe for concurrent multi-zone runs.
type Metrics struct {
	cacheHits     atomic.Int64
	deterministic atomic.Int64
	generative    atomic.Int64
	failures      atomic.Int64
	rulesTotal    atomic.Int64
	elapsedNanos  atomic.Int64
}

// NewMetrics creates zeroed metrics
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordDone tallies a successful terminal state
func (m *Metrics) RecordDone(method model.Method, elapsed time.Duration, ruleCount int) {
	switch method {
	case model.MethodCache:
		m.cacheHits.Add(1)
	case model.MethodDeterministic:
		m.deterministic.Add(1)
	case model.MethodGenerative:
		m.generative.Add(1)
	}
	m.rulesTotal.Add(int64(ruleCount))
	m.elapsedNanos.Add(int64(elapsed))
}

// RecordFailure tallies a failed request
func (m *Metrics) RecordFailure() {
	m.failures.Add(1)
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	CacheHits     int64         `json:"cache_hits"`
	Deterministic int64         `json:"deterministic"`
	Generative    int64         `json:"generative"`
	Failures      int64         `json:"failures"`
	RulesTotal    int64         `json:"rules_total"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Snapshot returns the current counter values
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		CacheHits:     m.cacheHits.Load(),
		Deterministic: m.deterministic.Load(),
		Generative:    m.generative.Load(),
		Failures:      m.failures.Load(),
		RulesTotal:    m.rulesTotal.Load(),
		Elapsed:       time.Duration(m.elapsedNanos.Load()),
	}
}
