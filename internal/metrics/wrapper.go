package metrics

import "time"

// MetricsWrapper exposes Metrics through the narrow method sets the ml
// predictor and the pipeline depend on.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc() {
	w.m.MLPredictions.Inc()
}

func (w *MetricsWrapper) MLFailuresInc() {
	w.m.MLFailures.Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *MetricsWrapper) MLPredictionScoresObserve(v float64) {
	w.m.PredictionProbability.Observe(v)
}

func (w *MetricsWrapper) ObserveStage(stage string, d time.Duration) {
	w.m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SampleScored counts a classified sample. Its probability was already
// observed by the predictor through MLPredictionScoresObserve.
func (w *MetricsWrapper) SampleScored(flagged bool) {
	w.m.SamplesScored.Inc()
	if flagged {
		w.m.FlaggedSamples.Inc()
	}
	w.m.LastSuccess.SetToCurrentTime()
}

func (w *MetricsWrapper) InferenceFailed(reason string) {
	w.m.InferenceFailures.WithLabelValues(reason).Inc()
}

func (w *MetricsWrapper) UpdateCoverage(bins, unknown, missing int) {
	w.m.UpdateCoverage(bins, unknown, missing)
}
