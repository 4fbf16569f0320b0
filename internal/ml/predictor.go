package ml

import (
	"fmt"
	"math"
	"time"

	"espre/internal/features"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLLatencyObserve(float64)
	MLPredictionScoresObserve(float64)
}

// Predictor runs a loaded Ensemble. The zero value and a nil *Predictor are
// valid and report ErrModelNotLoaded.
type Predictor struct {
	ensemble *Ensemble
	metrics  MetricsInterface
}

// Scores carries the level-1 base probabilities alongside the final one.
type Scores struct {
	Base        map[string]float64
	Probability float64
}

func NewPredictor(e *Ensemble) *Predictor {
	return NewWithMetrics(e, nil)
}

func NewWithMetrics(e *Ensemble, metrics MetricsInterface) *Predictor {
	return &Predictor{ensemble: e, metrics: metrics}
}

// Ensemble returns the loaded ensemble, or nil.
func (p *Predictor) Ensemble() *Ensemble {
	if p == nil {
		return nil
	}
	return p.ensemble
}

// PredictProba returns the positive-class probability for x.
func (p *Predictor) PredictProba(x features.Aligned) (float64, error) {
	s, err := p.Predict(x)
	if err != nil {
		return 0, err
	}
	return s.Probability, nil
}

// Predict scores x with every base model, assembles the meta vector by base
// model name and returns the meta model's probability. It is a single
// deterministic attempt with no retries.
func (p *Predictor) Predict(x features.Aligned) (Scores, error) {
	if p == nil || p.ensemble == nil {
		return Scores{}, ErrModelNotLoaded
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	s, err := p.predict(x)
	if err != nil {
		if p.metrics != nil {
			p.metrics.MLFailuresInc()
		}
		return Scores{}, err
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc()
		p.metrics.MLPredictionScoresObserve(s.Probability)
	}

	log.Debug().
		Interface("base_probabilities", s.Base).
		Float64("probability", s.Probability).
		Msg("Ensemble prediction")
	return s, nil
}

func (p *Predictor) predict(x features.Aligned) (Scores, error) {
	e := p.ensemble
	if len(x.Values) != e.width || len(x.Columns) != len(x.Values) {
		return Scores{}, fmt.Errorf("%w: expected %d features, got %d values and %d columns",
			ErrInputShape, e.width, len(x.Values), len(x.Columns))
	}

	in := x.Values
	if e.scaler != nil {
		scaled, err := e.scaler.Transform(in)
		if err != nil {
			return Scores{}, err
		}
		in = scaled
	}

	level1 := make(map[string]float64, len(e.baseNames))
	for _, name := range e.baseNames {
		prob, err := e.base[name].PositiveProbability(in)
		if err != nil {
			return Scores{}, fmt.Errorf("base model %s: %w", name, err)
		}
		if err := CheckProbability(prob); err != nil {
			return Scores{}, fmt.Errorf("base model %s: %w", name, err)
		}
		level1[name] = prob
	}

	metaX, err := e.metaVector(level1)
	if err != nil {
		return Scores{}, err
	}
	prob, err := e.meta.PositiveProbability(metaX)
	if err != nil {
		return Scores{}, fmt.Errorf("meta model: %w", err)
	}
	if err := CheckProbability(prob); err != nil {
		return Scores{}, fmt.Errorf("meta model: %w", err)
	}

	return Scores{Base: level1, Probability: prob}, nil
}

// CheckProbability rejects NaN and values outside [0, 1].
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}
