package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Logistic is a fitted logistic regression: sigmoid(coef·x + intercept).
type Logistic struct {
	coef      []float64
	intercept float64
}

// NewLogistic copies the fitted parameters into a Logistic model.
func NewLogistic(coef []float64, intercept float64) (*Logistic, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("logistic model has no coefficients")
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("logistic coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("logistic intercept is not finite")
	}
	return &Logistic{coef: append([]float64(nil), coef...), intercept: intercept}, nil
}

func (m *Logistic) NumInputs() int { return len(m.coef) }

func (m *Logistic) PositiveProbability(x []float64) (float64, error) {
	if len(x) != len(m.coef) {
		return 0, fmt.Errorf("%w: logistic model expects %d inputs, got %d", ErrInputShape, len(m.coef), len(x))
	}
	return sigmoid(floats.Dot(m.coef, x) + m.intercept), nil
}

// sigmoid avoids overflow of exp for large negative z.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
