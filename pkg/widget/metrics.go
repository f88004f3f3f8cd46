package widget

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "perfsummary"

// Outcome labels for render metrics.
const (
	OutcomeRendered = "rendered"
	OutcomeFallback = "fallback"
)

// Metrics records render outcomes. A nil *Metrics records nothing.
type Metrics struct {
	renders  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the render metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "widget_renders_total",
				Help:      "Total number of settled widget renders",
			},
			[]string{"widget", "outcome"}, // outcome: rendered, fallback
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "widget_render_duration_seconds",
				Help:      "Time from render request to settlement in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"widget"},
		),
	}

	for _, c := range []prometheus.Collector{m.renders, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observe(widgetID, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.renders.WithLabelValues(widgetID, outcome).Inc()
	m.duration.WithLabelValues(widgetID).Observe(elapsed.Seconds())
}
