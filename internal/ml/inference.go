package ml

import (
	"fmt"

	"espre/internal/features"

	"github.com/rs/zerolog/log"
)

// Engine composes feature building, schema alignment, ensemble prediction and
// classification for one sample at a time.
type Engine struct {
	builder    *features.Builder
	schema     *features.Schema
	predictor  *Predictor
	classifier Classifier
}

// NewEngine wires the core together. When the predictor already holds an
// ensemble, its width must equal the schema's.
func NewEngine(b *features.Builder, s *features.Schema, p *Predictor, c Classifier) (*Engine, error) {
	if b == nil || s == nil {
		return nil, fmt.Errorf("engine needs a feature builder and a schema")
	}
	if e := p.Ensemble(); e != nil && e.Width() != s.Len() {
		return nil, fmt.Errorf("%w: schema has %d columns, ensemble expects %d", ErrSchemaMismatch, s.Len(), e.Width())
	}
	return &Engine{builder: b, schema: s, predictor: p, classifier: c}, nil
}

// Schema returns the training schema in use.
func (e *Engine) Schema() *features.Schema { return e.schema }

// Classifier returns the configured classifier.
func (e *Engine) Classifier() Classifier { return e.classifier }

// Builder returns the feature builder.
func (e *Engine) Builder() *features.Builder { return e.builder }

// RunInference scores one sample. Any failure is returned unchanged in kind
// (match with errors.Is) and no result is produced.
func (e *Engine) RunInference(sampleID string, rows []features.BinRow) (PredictionResult, error) {
	res, _, err := e.Score(sampleID, rows)
	return res, err
}

// Score is RunInference that also reports how the sample met the schema. The
// coverage is filled in whenever the features could be built, even when
// prediction fails afterwards.
func (e *Engine) Score(sampleID string, rows []features.BinRow) (PredictionResult, features.Coverage, error) {
	wide, err := e.builder.Build(rows)
	if err != nil {
		return PredictionResult{}, features.Coverage{}, fmt.Errorf("build features for %s: %w", sampleID, err)
	}

	aligned := features.Align(wide, e.schema)
	cov := features.Measure(wide, e.schema)
	log.Debug().
		Str("sample", sampleID).
		Int("bins", len(rows)).
		Int("schema_present", cov.Present).
		Int("schema_missing", cov.Missing).
		Int("dropped", cov.Dropped).
		Msg("Features aligned to training schema")

	prob, err := e.predictor.PredictProba(aligned)
	if err != nil {
		return PredictionResult{}, cov, fmt.Errorf("predict %s: %w", sampleID, err)
	}

	label, flagged, err := e.classifier.Classify(prob)
	if err != nil {
		return PredictionResult{}, cov, fmt.Errorf("classify %s: %w", sampleID, err)
	}

	return PredictionResult{
		SampleID:    sampleID,
		Probability: prob,
		Label:       label,
		Flagged:     flagged,
	}, cov, nil
}
