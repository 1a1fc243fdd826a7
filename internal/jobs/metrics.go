package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs          *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	overdueOrders *prometheus.GaugeVec
	expiredDeals  prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When
// the registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_job_runs_total",
			Help: "Background job runs by job and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_job_failures_total",
			Help: "Background job failures by job.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meridian_job_duration_seconds",
			Help:    "Background job duration by job.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		overdueOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "meridian_overdue_orders",
			Help: "Unpicked orders past their expected delivery date, by urgency.",
		}, []string{"urgency"}),
		expiredDeals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meridian_expired_deals_total",
			Help: "Special deals found past their end date by the expiry sweep.",
		}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.overdueOrders, m.expiredDeals)
	return m
}

// Tracker provides lifecycle instrumentation for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration and success/failure counts,
// and returns the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetOverdueOrders records the overdue order count for one urgency bucket.
func (m *Metrics) SetOverdueOrders(urgency string, count int) {
	if m == nil {
		return
	}
	m.overdueOrders.WithLabelValues(urgency).Set(float64(count))
}

// AddExpiredDeals counts deals swept past their end date.
func (m *Metrics) AddExpiredDeals(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.expiredDeals.Add(float64(count))
}
