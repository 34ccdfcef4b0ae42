package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Tick results.
const (
	ResultPublished    = "published"
	ResultSkipped      = "skipped"
	ResultNotConnected = "not_connected"
	ResultEncodeFailed = "encode_failed"
)

type Metrics struct {
	Ticks           *prometheus.CounterVec
	PublishFailures prometheus.Counter
	TickDuration    prometheus.Histogram
}

// New registers the publisher metrics on reg. connected backs the
// broker_connected gauge and may be nil.
func New(reg prometheus.Registerer, connected func() bool) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_publisher_ticks_total",
			Help: "Scheduled collect-and-publish runs by result.",
		}, []string{"result"}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kpi_publisher_publish_failures_total",
			Help: "Publishes the MQTT client reported as failed.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kpi_publisher_tick_duration_seconds",
			Help:    "Time spent collecting and handing a sample to the MQTT client.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	for _, r := range []string{ResultPublished, ResultSkipped, ResultNotConnected, ResultEncodeFailed} {
		m.Ticks.WithLabelValues(r)
	}

	collectors := []prometheus.Collector{m.Ticks, m.PublishFailures, m.TickDuration}
	if connected != nil {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "kpi_publisher_broker_connected",
			Help: "1 while the MQTT client is connected to the broker.",
		}, func() float64 {
			if connected() {
				return 1
			}
			return 0
		}))
	}

	reg.MustRegister(collectors...)

	return m
}

// Nop returns metrics registered on a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry(), nil)
}

func (m *Metrics) Tick(result string) {
	m.Ticks.WithLabelValues(result).Inc()
}
