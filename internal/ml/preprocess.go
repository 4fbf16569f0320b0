package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// StandardScaler centres and scales each column with fitted statistics.
// Columns fitted with zero variance keep a scale of one.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler copies mean and scale, which must have equal length.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean has %d values, scale has %d", len(mean), len(scale))
	}
	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}
	for i := range s.scale {
		if math.IsNaN(s.mean[i]) || math.IsNaN(s.scale[i]) || s.scale[i] < 0 {
			return nil, fmt.Errorf("scaler column %d has invalid statistics", i)
		}
		if s.scale[i] == 0 {
			s.scale[i] = 1
		}
	}
	return s, nil
}

// Width returns the number of columns the scaler was fitted on.
func (s *StandardScaler) Width() int { return len(s.mean) }

// Transform returns a scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d inputs, got %d", ErrInputShape, len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	floats.SubTo(out, x, s.mean)
	floats.Div(out, s.scale)
	return out, nil
}
