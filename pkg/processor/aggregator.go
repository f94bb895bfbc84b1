package processor

import (
	"strconv"

	"github.com/halytel/cdr-ingest/pkg/cdr"
	"github.com/halytel/cdr-ingest/pkg/metrics"
)

// Aggregator accumulates one file's line counts and byte totals. Valid and
// invalid totals are kept apart; they are never summed together.
type Aggregator struct {
	recorder metrics.Recorder
	info     *cdr.FileInfo

	validDownload   float64
	validUpload     float64
	invalidDownload float64
	invalidUpload   float64
}

func NewAggregator(recorder metrics.Recorder, info *cdr.FileInfo) *Aggregator {
	return &Aggregator{recorder: recorder, info: info}
}

// Observe records one parsed line. A NaN volume contributes zero to the
// running totals and gauges; the line itself keeps its NaN value, so the
// "unknown" signal survives on the emitted record while the sums stay
// numeric.
func (a *Aggregator) Observe(line cdr.Line) {
	download := volumeOrZero(line.VolumeDownload)
	upload := volumeOrZero(line.VolumeUpload)

	a.info.Total++
	if !line.Valid {
		a.info.Invalid++
		a.invalidDownload += download
		a.invalidUpload += upload
		return
	}

	a.validDownload += download
	a.validUpload += upload

	a.recorder.GaugeSet(metrics.MetricSubscriberVolumeBytes, download, a.subscriberLabels("download", line))
	a.recorder.GaugeSet(metrics.MetricSubscriberVolumeBytes, upload, a.subscriberLabels("upload", line))
}

// Finalize emits the four file-level byte totals in one pass.
func (a *Aggregator) Finalize() {
	for _, total := range []struct {
		direction string
		validity  string
		value     float64
	}{
		{"download", "valid", a.validDownload},
		{"upload", "valid", a.validUpload},
		{"download", "invalid", a.invalidDownload},
		{"upload", "invalid", a.invalidUpload},
	} {
		a.recorder.CounterAdd(metrics.MetricVolumeBytes, total.value, metrics.Labels{
			"direction": total.direction,
			"validity":  total.validity,
		})
	}
}

func (a *Aggregator) subscriberLabels(direction string, line cdr.Line) metrics.Labels {
	return metrics.Labels{
		"direction": direction,
		"group":     a.info.Group,
		"msisdn":    line.MSISDN,
		"offset":    strconv.Itoa(line.Nulli),
		"operator":  line.CodeOperator,
	}
}

func volumeOrZero(v cdr.Volume) float64 {
	if v.IsNaN() {
		return 0
	}
	return float64(v)
}
