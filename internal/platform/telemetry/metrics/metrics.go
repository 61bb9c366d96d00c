package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "starpatch"

// Metrics holds the patch engine collectors.
type Metrics struct {
	recomputes     prometheus.Counter
	hunksApplied   *prometheus.CounterVec
	hunksFailed    *prometheus.CounterVec
	hunksReverted  prometheus.Counter
	revertFailures prometheus.Counter
	activeDiffs    prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("metrics registerer is required")
	}
	m := &Metrics{
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "universe_recomputes_total",
			Help:      "Number of full universe recomputes.",
		}),
		hunksApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hunks_applied_total",
			Help:      "Number of hunks applied, by target kind.",
		}, []string{"target"}),
		hunksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hunks_failed_total",
			Help:      "Number of hunks that failed to apply, by error code.",
		}, []string{"code"}),
		hunksReverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hunks_reverted_total",
			Help:      "Number of hunks reverted.",
		}),
		revertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hunk_revert_failures_total",
			Help:      "Number of hunks that failed to revert.",
		}),
		activeDiffs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_diffs",
			Help:      "Number of diffs currently applied.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.recomputes,
		m.hunksApplied,
		m.hunksFailed,
		m.hunksReverted,
		m.revertFailures,
		m.activeDiffs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Recomputed counts one universe recompute.
func (m *Metrics) Recomputed() {
	if m == nil {
		return
	}
	m.recomputes.Inc()
}

// HunkApplied counts one applied hunk.
func (m *Metrics) HunkApplied(target string) {
	if m == nil {
		return
	}
	m.hunksApplied.WithLabelValues(target).Inc()
}

// HunkFailed counts one failed hunk.
func (m *Metrics) HunkFailed(code string) {
	if m == nil {
		return
	}
	m.hunksFailed.WithLabelValues(code).Inc()
}

// HunkReverted counts one reverted hunk.
func (m *Metrics) HunkReverted() {
	if m == nil {
		return
	}
	m.hunksReverted.Inc()
}

// RevertFailed counts one hunk that could not be reverted.
func (m *Metrics) RevertFailed() {
	if m == nil {
		return
	}
	m.revertFailures.Inc()
}

// SetActiveDiffs records the number of active diffs.
func (m *Metrics) SetActiveDiffs(n int) {
	if m == nil {
		return
	}
	m.activeDiffs.Set(float64(n))
}
