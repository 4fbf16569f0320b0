// Package metrics provides Prometheus metrics for espre runs.
//
// espre is a one-shot command, so metrics are not served over HTTP. A run
// writes its registry to a node_exporter textfile-collector file when one is
// configured.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons used as the "reason" label of InferenceFailures.
const (
	ReasonEmptyFeatures  = "empty_features"
	ReasonDuplicateBin   = "duplicate_bin"
	ReasonSchemaMismatch = "schema_mismatch"
	ReasonModelNotLoaded = "model_not_loaded"
	ReasonInvalidProb    = "invalid_probability"
	ReasonInputShape     = "input_shape"
	ReasonExtraction     = "extraction"
	ReasonArtifact       = "artifact"
	ReasonInternal       = "internal"
)

// Pipeline stages used as the "stage" label of StageDuration.
const (
	StageArtifacts  = "artifacts"
	StageExtraction = "extraction"
	StageFeatures   = "features"
	StageInference  = "inference"
	StageReport     = "report"
)

// Metrics holds all Prometheus metrics for a scoring run.
type Metrics struct {
	// Run outcome metrics
	SamplesScored         prometheus.Counter     // Samples scored successfully
	InferenceFailures     *prometheus.CounterVec // Failed runs by reason
	PredictionProbability prometheus.Histogram   // Distribution of final probabilities
	FlaggedSamples        prometheus.Counter     // Samples above the flag threshold
	LastSuccess           prometheus.Gauge       // Unix time of the last successful run
	StageDuration         *prometheus.HistogramVec

	// Feature coverage metrics
	FeatureBins          prometheus.Gauge // Bins in the last feature table
	UnknownBins          prometheus.Gauge // Bins not in the reference windows
	SchemaColumnsMissing prometheus.Gauge // Schema columns filled with the default

	// Ensemble metrics
	MLPredictions prometheus.Counter   // Ensemble evaluations
	MLFailures    prometheus.Counter   // Ensemble evaluation failures
	MLLatency     prometheus.Histogram // Ensemble evaluation latency in seconds

	gatherer prometheus.Gatherer
}

// New creates metrics on a fresh registry, so a textfile holds only espre's
// series.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// WriteTextfile works only when registerer also implements prometheus.Gatherer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		SamplesScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "espre_samples_scored_total",
			Help: "Total number of samples scored successfully",
		}),
		InferenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "espre_inference_failures_total",
			Help: "Total number of failed scoring runs by reason",
		}, []string{"reason"}),
		PredictionProbability: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "espre_prediction_probability",
			Help:    "Distribution of positive-class probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		FlaggedSamples: factory.NewCounter(prometheus.CounterOpts{
			Name: "espre_flagged_samples_total",
			Help: "Total number of samples flagged as high risk",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "espre_last_success_timestamp_seconds",
			Help: "Unix time of the last successful scoring run",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "espre_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"stage"}),
		FeatureBins: factory.NewGauge(prometheus.GaugeOpts{
			Name: "espre_feature_bins_observed",
			Help: "Number of bins in the last feature table",
		}),
		UnknownBins: factory.NewGauge(prometheus.GaugeOpts{
			Name: "espre_feature_bins_unknown",
			Help: "Number of feature bins absent from the reference windows",
		}),
		SchemaColumnsMissing: factory.NewGauge(prometheus.GaugeOpts{
			Name: "espre_schema_columns_missing",
			Help: "Number of schema columns filled with the default value",
		}),
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "espre_ml_predictions_total",
			Help: "Total number of ensemble evaluations",
		}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "espre_ml_failures_total",
			Help: "Total number of ensemble evaluation failures",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "espre_ml_latency_seconds",
			Help:    "Ensemble evaluation latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// UpdateCoverage records how the last feature table met the reference
// windows and the training schema.
func (m *Metrics) UpdateCoverage(bins, unknown, missing int) {
	m.FeatureBins.Set(float64(bins))
	m.UnknownBins.Set(float64(unknown))
	m.SchemaColumnsMissing.Set(float64(missing))
}

// WriteTextfile writes every registered series to path in the text
// exposition format, atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m.gatherer == nil {
		return fmt.Errorf("metrics registry cannot be gathered")
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
