package ml

import (
	"fmt"
	"sort"
	"time"
)

// EnsembleParts are the fitted pieces an Ensemble is assembled from.
type EnsembleParts struct {
	Version     string
	TrainedAt   time.Time
	SchemaWidth int
	Scaler      *StandardScaler // optional, applied before the base models
	Base        map[string]Model
	Meta        Model
	MetaInputs  []string // the meta model's input columns, by base model name
}

// Ensemble is a two-level stacked classifier. Its configuration (base model
// names and the meta model's input names) and fitted parameters are fixed at
// construction and there is no method that changes them.
type Ensemble struct {
	version    string
	trainedAt  time.Time
	width      int
	scaler     *StandardScaler
	base       map[string]Model
	baseNames  []string
	meta       Model
	metaInputs []string
}

// NewEnsemble checks widths and assembles an Ensemble. Whether the meta
// inputs name exactly the base models is checked by CheckCompatibility and
// again on every prediction.
func NewEnsemble(p EnsembleParts) (*Ensemble, error) {
	if len(p.Base) == 0 {
		return nil, fmt.Errorf("ensemble has no base models")
	}
	if p.Meta == nil {
		return nil, fmt.Errorf("ensemble has no meta model")
	}
	if p.SchemaWidth <= 0 {
		return nil, fmt.Errorf("ensemble schema width must be positive, got %d", p.SchemaWidth)
	}
	if p.Scaler != nil && p.Scaler.Width() != p.SchemaWidth {
		return nil, fmt.Errorf("scaler width %d does not match schema width %d", p.Scaler.Width(), p.SchemaWidth)
	}

	e := &Ensemble{
		version:    p.Version,
		trainedAt:  p.TrainedAt,
		width:      p.SchemaWidth,
		scaler:     p.Scaler,
		base:       make(map[string]Model, len(p.Base)),
		baseNames:  make([]string, 0, len(p.Base)),
		meta:       p.Meta,
		metaInputs: append([]string(nil), p.MetaInputs...),
	}
	for name, m := range p.Base {
		if name == "" {
			return nil, fmt.Errorf("base model with empty name")
		}
		if m == nil {
			return nil, fmt.Errorf("base model %s is nil", name)
		}
		if m.NumInputs() != p.SchemaWidth {
			return nil, fmt.Errorf("base model %s expects %d inputs, schema width is %d", name, m.NumInputs(), p.SchemaWidth)
		}
		e.base[name] = m
		e.baseNames = append(e.baseNames, name)
	}
	sort.Strings(e.baseNames)

	seen := make(map[string]bool, len(e.metaInputs))
	for _, name := range e.metaInputs {
		if seen[name] {
			return nil, fmt.Errorf("meta model input %q listed twice", name)
		}
		seen[name] = true
	}
	if p.Meta.NumInputs() != len(e.metaInputs) {
		return nil, fmt.Errorf("meta model expects %d inputs but names %d", p.Meta.NumInputs(), len(e.metaInputs))
	}
	return e, nil
}

// Version is the artifact version string.
func (e *Ensemble) Version() string { return e.version }

// TrainedAt is the training timestamp recorded in the artifact, if any.
func (e *Ensemble) TrainedAt() time.Time { return e.trainedAt }

// Width is the aligned feature width the base models consume.
func (e *Ensemble) Width() int { return e.width }

// BaseNames returns the base model names in sorted order.
func (e *Ensemble) BaseNames() []string { return append([]string(nil), e.baseNames...) }

// MetaInputs returns the meta model's input names in its column order.
func (e *Ensemble) MetaInputs() []string { return append([]string(nil), e.metaInputs...) }

// Scaled reports whether a preprocessor runs before the base models.
func (e *Ensemble) Scaled() bool { return e.scaler != nil }

// CheckCompatibility verifies that the meta model's inputs are exactly the
// base model names.
func (e *Ensemble) CheckCompatibility() error {
	if len(e.metaInputs) != len(e.baseNames) {
		return fmt.Errorf("%w: meta model expects %v, base models are %v", ErrSchemaMismatch, e.metaInputs, e.baseNames)
	}
	for _, name := range e.metaInputs {
		if _, ok := e.base[name]; !ok {
			return fmt.Errorf("%w: meta model expects %q, base models are %v", ErrSchemaMismatch, name, e.baseNames)
		}
	}
	return nil
}

// metaVector lays out base probabilities in the meta model's column order,
// looking each column up by name.
func (e *Ensemble) metaVector(level1 map[string]float64) ([]float64, error) {
	if err := e.CheckCompatibility(); err != nil {
		return nil, err
	}
	out := make([]float64, len(e.metaInputs))
	for i, name := range e.metaInputs {
		out[i] = level1[name]
	}
	return out, nil
}
