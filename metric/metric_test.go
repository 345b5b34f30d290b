package metric

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/config"
)

func TestSyncMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	sm, err := newSyncMetrics(reg)
	require.NoError(t, err)

	sm.ObservePull("success")
	sm.ObservePull("success")
	sm.ObservePush("transport_failure")
	sm.PublishAttempt()
	sm.AddEmitted(3)
	sm.AddEmitted(-1)
	sm.TickSkipped()
	sm.ObserveReconcile(time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(sm.pulls.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sm.pushes.WithLabelValues("transport_failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(sm.publishes))
	assert.Equal(t, float64(3), testutil.ToFloat64(sm.emitted))
	assert.Equal(t, float64(1), testutil.ToFloat64(sm.ticksSkip))

	_, err = newSyncMetrics(reg)
	require.Error(t, err, "double registration must fail")
}

func TestSyncMetrics_Nil(t *testing.T) {
	var sm *SyncMetrics
	assert.NotPanics(t, func() {
		sm.ObservePull("success")
		sm.ObservePush("success")
		sm.PublishAttempt()
		sm.AddEmitted(1)
		sm.TickSkipped()
		sm.ObserveReconcile(time.Second)
	})
}

func TestMetric_Component(t *testing.T) {
	a := new(app.App)
	conf := config.Default()
	m := New()
	a.Register(conf).Register(m)
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NotNil(t, m.Registry())
	require.NotNil(t, m.SyncMetrics())
	m.SyncMetrics().ObservePull("success")
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gitchat_sync_pull_total")
	assert.Contains(t, names, "gitchat_versions")
	require.NoError(t, a.Close(ctx))
}
