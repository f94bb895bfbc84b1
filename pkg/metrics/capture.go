package metrics

import "sync"

// Sample is one recorded metric update.
type Sample struct {
	Name   string
	Value  float64
	Labels Labels
}

// CaptureRecorder is an in-memory Recorder for tests.
type CaptureRecorder struct {
	mu           sync.Mutex
	counters     []Sample
	observations []Sample
	gauges       []Sample
}

func NewCaptureRecorder() *CaptureRecorder {
	return &CaptureRecorder{}
}

func (r *CaptureRecorder) CounterInc(name string, labels Labels) {
	r.CounterAdd(name, 1, labels)
}

func (r *CaptureRecorder) CounterAdd(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, Sample{Name: name, Value: value, Labels: labels})
}

func (r *CaptureRecorder) HistogramObserve(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, Sample{Name: name, Value: value, Labels: labels})
}

func (r *CaptureRecorder) GaugeSet(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges = append(r.gauges, Sample{Name: name, Value: value, Labels: labels})
}

// CounterValue sums every update of a counter whose labels all match.
func (r *CaptureRecorder) CounterValue(name string, labels Labels) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0.0
	for _, sample := range r.counters {
		if sample.Name == name && labelsMatch(sample.Labels, labels) {
			total += sample.Value
		}
	}
	return total
}

// Gauges returns every gauge update for a metric name, in recording order.
func (r *CaptureRecorder) Gauges(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, sample := range r.gauges {
		if sample.Name == name {
			out = append(out, sample)
		}
	}
	return out
}

// Observations returns every histogram sample for a metric name.
func (r *CaptureRecorder) Observations(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, sample := range r.observations {
		if sample.Name == name {
			out = append(out, sample)
		}
	}
	return out
}

func labelsMatch(have, want Labels) bool {
	for key, value := range want {
		if have[key] != value {
			return false
		}
	}
	return true
}
