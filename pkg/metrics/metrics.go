package metrics

// Labels is one metric sample's label set.
type Labels map[string]string

// Metric names exposed for scraping. These are a compatibility surface for
// the dashboards built against the previous collector.
const (
	MetricProcessOutcome        = "cdr_process_outcome_total"
	MetricProcessDurationMs     = "cdr_process_duration_ms"
	MetricPostDurationMs        = "cdr_post_duration_ms"
	MetricVolumeBytes           = "cdr_volume_bytes_total"
	MetricSubscriberVolumeBytes = "cdr_subscriber_volume_bytes"
	MetricHealthcheckUp         = "healthcheck_up"
)

// Outcome label values recorded on MetricProcessOutcome.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidCDR     = "invalid_cdr"
	OutcomePostDataOK     = "post_data_success"
	OutcomePostDataFailed = "post_data_failed"
)

// Recorder is the metrics capability injected into the pipeline components.
// Implementations must be safe for concurrent use from in-flight file
// pipelines.
type Recorder interface {
	CounterInc(name string, labels Labels)
	CounterAdd(name string, value float64, labels Labels)
	HistogramObserve(name string, value float64, labels Labels)
	GaugeSet(name string, value float64, labels Labels)
}
