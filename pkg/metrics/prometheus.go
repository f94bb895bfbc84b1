package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements Recorder on a prometheus registry. All vectors
// are registered up front; an unknown metric name is a silent no-op.
type PrometheusRecorder struct {
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	// Millisecond buckets from 1ms to ~8s.
	durationBuckets := prometheus.ExponentialBuckets(1, 2, 14)

	return &PrometheusRecorder{
		counters: map[string]*prometheus.CounterVec{
			MetricProcessOutcome: factory.NewCounterVec(prometheus.CounterOpts{
				Name: MetricProcessOutcome,
				Help: "CDR file processing and delivery outcomes.",
			}, []string{"outcome"}),
			MetricVolumeBytes: factory.NewCounterVec(prometheus.CounterOpts{
				Name: MetricVolumeBytes,
				Help: "CDR byte volume by transfer direction and line validity.",
			}, []string{"direction", "validity"}),
		},
		histograms: map[string]*prometheus.HistogramVec{
			MetricProcessDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name:    MetricProcessDurationMs,
				Help:    "CDR file processing duration in milliseconds.",
				Buckets: durationBuckets,
			}, []string{"outcome"}),
			MetricPostDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
				Name:    MetricPostDurationMs,
				Help:    "Webhook post duration in milliseconds.",
				Buckets: durationBuckets,
			}, []string{"outcome"}),
		},
		gauges: map[string]*prometheus.GaugeVec{
			MetricSubscriberVolumeBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: MetricSubscriberVolumeBytes,
				Help: "Last observed per-subscriber byte volume.",
			}, []string{"direction", "group", "msisdn", "offset", "operator"}),
			MetricHealthcheckUp: factory.NewGaugeVec(prometheus.GaugeOpts{
				Name: MetricHealthcheckUp,
				Help: "Whether the last ping of a health-check target succeeded.",
			}, []string{"target"}),
		},
	}
}

func (r *PrometheusRecorder) CounterInc(name string, labels Labels) {
	if vec, ok := r.counters[name]; ok {
		vec.With(prometheus.Labels(labels)).Inc()
	}
}

func (r *PrometheusRecorder) CounterAdd(name string, value float64, labels Labels) {
	if vec, ok := r.counters[name]; ok {
		vec.With(prometheus.Labels(labels)).Add(value)
	}
}

func (r *PrometheusRecorder) HistogramObserve(name string, value float64, labels Labels) {
	if vec, ok := r.histograms[name]; ok {
		vec.With(prometheus.Labels(labels)).Observe(value)
	}
}

func (r *PrometheusRecorder) GaugeSet(name string, value float64, labels Labels) {
	if vec, ok := r.gauges[name]; ok {
		vec.With(prometheus.Labels(labels)).Set(value)
	}
}
