package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per stage latency and per image outcomes. A nil *Metrics
// records nothing.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	images        *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "placa_stage_duration_seconds",
				Help:    "Duration of each plate pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"stage"},
		),
		images: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "placa_images_total",
				Help: "Images processed by outcome",
			},
			[]string{"status"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "placa_failures_total",
				Help: "Failed images by failure kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) recordOutcome(err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.images.WithLabelValues("ok").Inc()
		return
	}
	m.images.WithLabelValues("failed").Inc()
	m.failures.WithLabelValues(KindOf(err).String()).Inc()
}
