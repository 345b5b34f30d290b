package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics collects counters of the synchronization engine.
// All methods are safe to call on a nil receiver.
type SyncMetrics struct {
	pulls       *prometheus.CounterVec
	pushes      *prometheus.CounterVec
	publishes   prometheus.Counter
	emitted     prometheus.Counter
	ticksSkip   prometheus.Counter
	reconcileMs prometheus.Histogram
}

func newSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	sm := &SyncMetrics{
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitchat",
			Subsystem: "sync",
			Name:      "pull_total",
			Help:      "Pull operations by outcome.",
		}, []string{"outcome"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitchat",
			Subsystem: "sync",
			Name:      "push_total",
			Help:      "Push operations by outcome.",
		}, []string{"outcome"}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gitchat",
			Subsystem: "sync",
			Name:      "publish_attempts_total",
			Help:      "Publish attempts including the single retry.",
		}),
		emitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gitchat",
			Subsystem: "view",
			Name:      "emitted_entries_total",
			Help:      "Log entries handed to the presentation layer.",
		}),
		ticksSkip: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gitchat",
			Subsystem: "reconcile",
			Name:      "ticks_skipped_total",
			Help:      "Timer ticks coalesced because a synchronization was in flight.",
		}),
		reconcileMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gitchat",
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Duration of reconciliation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{sm.pulls, sm.pushes, sm.publishes, sm.emitted, sm.ticksSkip, sm.reconcileMs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

func (sm *SyncMetrics) ObservePull(outcome string) {
	if sm == nil {
		return
	}
	sm.pulls.WithLabelValues(outcome).Inc()
}

func (sm *SyncMetrics) ObservePush(outcome string) {
	if sm == nil {
		return
	}
	sm.pushes.WithLabelValues(outcome).Inc()
}

func (sm *SyncMetrics) PublishAttempt() {
	if sm == nil {
		return
	}
	sm.publishes.Inc()
}

func (sm *SyncMetrics) AddEmitted(n int) {
	if sm == nil || n <= 0 {
		return
	}
	sm.emitted.Add(float64(n))
}

func (sm *SyncMetrics) TickSkipped() {
	if sm == nil {
		return
	}
	sm.ticksSkip.Inc()
}

func (sm *SyncMetrics) ObserveReconcile(d time.Duration) {
	if sm == nil {
		return
	}
	sm.reconcileMs.Observe(d.Seconds())
}
