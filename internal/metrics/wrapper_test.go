package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_EnsembleCounters(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	// Initial value should be 0
	if v := testutil.ToFloat64(metrics.MLPredictions); v != 0 {
		t.Errorf("Expected initial counter value 0, got %f", v)
	}

	wrapper.MLPredictionsInc()
	wrapper.MLPredictionsInc()
	wrapper.MLFailuresInc()
	wrapper.MLLatencyObserve(0.002)
	wrapper.MLPredictionScoresObserve(0.7)

	if v := testutil.ToFloat64(metrics.MLPredictions); v != 2 {
		t.Errorf("Expected 2 predictions, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.MLFailures); v != 1 {
		t.Errorf("Expected 1 failure, got %f", v)
	}
	if n := testutil.CollectAndCount(metrics.MLLatency); n != 1 {
		t.Errorf("Expected latency histogram to be collected once, got %d", n)
	}
}

func TestMetricsWrapper_ProbabilityObservedOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWithRegistry(reg)
	wrapper := NewWrapper(metrics)

	// One sample: the predictor reports its score, then the pipeline counts it
	wrapper.MLPredictionScoresObserve(0.62)
	wrapper.SampleScored(false)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var count uint64
	found := false
	for _, f := range families {
		if f.GetName() == "espre_prediction_probability" {
			found = true
			count = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	if !found {
		t.Fatal("Expected espre_prediction_probability to be registered")
	}
	if count != 1 {
		t.Errorf("Expected one probability observation per sample, got %d", count)
	}
}

func TestMetricsWrapper_SampleScored(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	before := float64(time.Now().Unix())
	wrapper.SampleScored(false)
	wrapper.SampleScored(true)

	if v := testutil.ToFloat64(metrics.SamplesScored); v != 2 {
		t.Errorf("Expected 2 scored samples, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.FlaggedSamples); v != 1 {
		t.Errorf("Expected 1 flagged sample, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.LastSuccess); v < before {
		t.Errorf("Expected last success timestamp >= %f, got %f", before, v)
	}
}

func TestMetricsWrapper_FailuresByReason(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.InferenceFailed(ReasonEmptyFeatures)
	wrapper.InferenceFailed(ReasonEmptyFeatures)
	wrapper.InferenceFailed(ReasonSchemaMismatch)

	if v := testutil.ToFloat64(metrics.InferenceFailures.WithLabelValues(ReasonEmptyFeatures)); v != 2 {
		t.Errorf("Expected 2 empty_features failures, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.InferenceFailures.WithLabelValues(ReasonSchemaMismatch)); v != 1 {
		t.Errorf("Expected 1 schema_mismatch failure, got %f", v)
	}
}

func TestMetricsWrapper_StagesAndCoverage(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.ObserveStage(StageExtraction, 3*time.Second)
	wrapper.ObserveStage(StageInference, time.Millisecond)
	if n := testutil.CollectAndCount(metrics.StageDuration); n != 2 {
		t.Errorf("Expected 2 stage series, got %d", n)
	}

	wrapper.UpdateCoverage(2890, 3, 120)
	if v := testutil.ToFloat64(metrics.FeatureBins); v != 2890 {
		t.Errorf("Expected 2890 bins, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.UnknownBins); v != 3 {
		t.Errorf("Expected 3 unknown bins, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.SchemaColumnsMissing); v != 120 {
		t.Errorf("Expected 120 missing columns, got %f", v)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	metrics := New()
	NewWrapper(metrics).SampleScored(false)

	path := filepath.Join(t.TempDir(), "espre.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), "espre_samples_scored_total 1") {
		t.Errorf("textfile missing scored counter:\n%s", data)
	}
}

func TestMetrics_WriteTextfileWithoutGatherer(t *testing.T) {
	// A Registerer that cannot gather
	var reg prometheus.Registerer = registererOnly{prometheus.NewRegistry()}
	metrics := NewWithRegistry(reg)

	if err := metrics.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err == nil {
		t.Error("Expected error when the registry cannot be gathered")
	}
}

type registererOnly struct {
	r *prometheus.Registry
}

func (r registererOnly) Register(c prometheus.Collector) error   { return r.r.Register(c) }
func (r registererOnly) MustRegister(cs ...prometheus.Collector) { r.r.MustRegister(cs...) }
func (r registererOnly) Unregister(c prometheus.Collector) bool  { return r.r.Unregister(c) }
