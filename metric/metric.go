package metric

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anyproto/gitchat/app"
	"github.com/anyproto/gitchat/app/logger"
	"github.com/anyproto/gitchat/config"
)

const CName = "common.metric"

var log = logger.NewNamed(CName)

func New() Metric {
	return new(metric)
}

type Metric interface {
	Registry() *prometheus.Registry
	SyncMetrics() *SyncMetrics
	app.ComponentRunnable
}

type configSource interface {
	GetMetric() config.Metric
}

type metric struct {
	registry *prometheus.Registry
	sync     *SyncMetrics
	config   config.Metric
	server   *http.Server
	appName  string
	version  string
}

func (m *metric) Init(a *app.App) (err error) {
	m.registry = prometheus.NewRegistry()
	m.config = a.MustComponent(config.CName).(configSource).GetMetric()
	m.appName = a.Name()
	m.version = a.Version()
	m.sync, err = newSyncMetrics(m.registry)
	return
}

func (m *metric) Name() string {
	return CName
}

func (m *metric) Run(ctx context.Context) (err error) {
	if err = m.registry.Register(collectors.NewBuildInfoCollector()); err != nil {
		return err
	}
	if err = m.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err = m.registry.Register(newVersionsCollector(m.appName, m.version)); err != nil {
		return err
	}
	if m.config.Addr == "" {
		return nil
	}
	lis, err := net.Listen("tcp", m.config.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serr := m.server.Serve(lis); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			log.Warn("metric server stopped", zap.Error(serr))
		}
	}()
	log.Info("metrics are served", zap.String("addr", lis.Addr().String()))
	return nil
}

func (m *metric) Registry() *prometheus.Registry {
	return m.registry
}

func (m *metric) SyncMetrics() *SyncMetrics {
	if m == nil {
		return nil
	}
	return m.sync
}

func (m *metric) Close(ctx context.Context) (err error) {
	if m.server != nil {
		return m.server.Shutdown(ctx)
	}
	return
}
