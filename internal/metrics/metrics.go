// Package metrics agrupa las métricas Prometheus del servicio: HTTP, etapas
// del pipeline, rate limiting y pool de Postgres.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec

	rateLimitedTotal *prometheus.CounterVec
}

// New registra las métricas en reg. Con reg nil usa el registry por defecto.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		}),

		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_total",
			Help: "Ejecuciones de cada etapa del pipeline por resultado",
		}, []string{"stage", "result"}), // result: ok|error

		// extracción y LLM tardan segundos
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duración de cada etapa del pipeline",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"stage"}),

		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"path"}),
	}

	if reg == nil {
		m.reg, m.gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	} else {
		m.reg, m.gatherer = reg, reg
	}

	var err error
	if m.httpRequestsTotal, err = registerOrExisting(m.reg, m.httpRequestsTotal); err != nil {
		return nil, err
	}
	if m.httpRequestDuration, err = registerOrExisting(m.reg, m.httpRequestDuration); err != nil {
		return nil, err
	}
	if m.httpInflight, err = registerOrExisting(m.reg, m.httpInflight); err != nil {
		return nil, err
	}
	if m.stageTotal, err = registerOrExisting(m.reg, m.stageTotal); err != nil {
		return nil, err
	}
	if m.stageDuration, err = registerOrExisting(m.reg, m.stageDuration); err != nil {
		return nil, err
	}
	if m.rateLimitedTotal, err = registerOrExisting(m.reg, m.rateLimitedTotal); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler sirve /metrics para el registry usado en New.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveStage implementa pipeline.Observer.
func (m *Metrics) ObserveStage(stage string, success bool, d time.Duration) {
	result := "ok"
	if !success {
		result = "error"
	}
	m.stageTotal.WithLabelValues(stage, result).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RateLimited cuenta un rechazo del limiter.
func (m *Metrics) RateLimited(path string) {
	m.rateLimitedTotal.WithLabelValues(path).Inc()
}

// RegisterPool expone gauges del pool de Postgres.
func (m *Metrics) RegisterPool(stat func() *pgxpool.Stat) error {
	_, err := registerOrExisting[prometheus.Collector](m.reg, newPoolCollector(stat))
	return err
}

// registerOrExisting registra c; si ya hay un collector igual en reg devuelve
// ese, así un segundo New sobre el mismo registry escribe en las series que
// se exponen.
func registerOrExisting[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, err
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("metrics: collector already registered with type %T", are.ExistingCollector)
	}
	return existing, nil
}

type poolCollector struct {
	stat         func() *pgxpool.Stat
	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(stat func() *pgxpool.Stat) *poolCollector {
	return &poolCollector{
		stat:         stat,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total", "Conexiones totales", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(s.TotalConns()))
}
