package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Model kinds understood in an ensemble artifact.
const (
	KindLogistic     = "logistic"
	KindTreeEnsemble = "tree_ensemble"
)

// artifactFile is the on-disk JSON layout of a stacked ensemble.
type artifactFile struct {
	Version      string               `json:"version"`
	TrainedAt    time.Time            `json:"trained_at"`
	SchemaWidth  int                  `json:"schema_width"`
	Preprocessor *scalerSpec          `json:"preprocessor,omitempty"`
	BaseModels   map[string]modelSpec `json:"base_models"`
	MetaModel    modelSpec            `json:"meta_model"`
}

type scalerSpec struct {
	Kind  string    `json:"kind"`
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type modelSpec struct {
	Kind string `json:"kind"`

	// meta model only
	Inputs []string `json:"inputs,omitempty"`

	// logistic
	Coef      []float64 `json:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty"`

	// tree_ensemble
	Aggregation  Aggregation `json:"aggregation,omitempty"`
	LearningRate *float64    `json:"learning_rate,omitempty"`
	Init         float64     `json:"init,omitempty"`
	Trees        []treeSpec  `json:"trees,omitempty"`
}

type treeSpec struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// LoadEnsemble reads a JSON ensemble artifact and verifies that the meta model
// consumes exactly the base models it ships with.
func LoadEnsemble(path string) (*Ensemble, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ensemble artifact: %w", err)
	}
	defer file.Close()

	var af artifactFile
	if err := json.NewDecoder(file).Decode(&af); err != nil {
		return nil, fmt.Errorf("decode ensemble artifact %s: %w", path, err)
	}

	e, err := af.build()
	if err != nil {
		return nil, fmt.Errorf("ensemble artifact %s: %w", path, err)
	}
	if err := e.CheckCompatibility(); err != nil {
		return nil, fmt.Errorf("ensemble artifact %s: %w", path, err)
	}

	log.Info().
		Str("model_path", path).
		Str("version", e.Version()).
		Strs("base_models", e.BaseNames()).
		Int("schema_width", e.Width()).
		Bool("scaled", e.Scaled()).
		Msg("Ensemble loaded")
	return e, nil
}

func (af *artifactFile) build() (*Ensemble, error) {
	width := af.SchemaWidth
	if width == 0 {
		// Older artifacts omit the width; take it from the first base model
		// that carries one.
		names := make([]string, 0, len(af.BaseModels))
		for name := range af.BaseModels {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if width = af.BaseModels[name].inferWidth(); width > 0 {
				break
			}
		}
	}

	parts := EnsembleParts{
		Version:     af.Version,
		TrainedAt:   af.TrainedAt,
		SchemaWidth: width,
		Base:        make(map[string]Model, len(af.BaseModels)),
		MetaInputs:  af.MetaModel.Inputs,
	}

	if af.Preprocessor != nil {
		if af.Preprocessor.Kind != "" && af.Preprocessor.Kind != "standard_scaler" {
			return nil, fmt.Errorf("unknown preprocessor kind %q", af.Preprocessor.Kind)
		}
		scaler, err := NewStandardScaler(af.Preprocessor.Mean, af.Preprocessor.Scale)
		if err != nil {
			return nil, fmt.Errorf("preprocessor: %w", err)
		}
		parts.Scaler = scaler
	}

	for name, spec := range af.BaseModels {
		m, err := spec.build(width)
		if err != nil {
			return nil, fmt.Errorf("base model %s: %w", name, err)
		}
		parts.Base[name] = m
	}

	meta, err := af.MetaModel.build(len(af.MetaModel.Inputs))
	if err != nil {
		return nil, fmt.Errorf("meta model: %w", err)
	}
	parts.Meta = meta

	return NewEnsemble(parts)
}

func (s modelSpec) inferWidth() int {
	switch s.Kind {
	case KindLogistic:
		return len(s.Coef)
	default:
		return 0
	}
}

func (s modelSpec) build(nInputs int) (Model, error) {
	switch s.Kind {
	case KindLogistic:
		if len(s.Coef) != nInputs {
			return nil, fmt.Errorf("logistic model has %d coefficients, expected %d", len(s.Coef), nInputs)
		}
		return NewLogistic(s.Coef, s.Intercept)
	case KindTreeEnsemble:
		trees := make([]Tree, len(s.Trees))
		for i, t := range s.Trees {
			trees[i] = Tree{
				Left:      t.ChildrenLeft,
				Right:     t.ChildrenRight,
				Feature:   t.Feature,
				Threshold: t.Threshold,
				Value:     t.Value,
			}
		}
		lr := 1.0
		if s.LearningRate != nil {
			lr = *s.LearningRate
		}
		agg := s.Aggregation
		if agg == "" {
			agg = AggregateMean
		}
		return NewTreeEnsemble(trees, agg, lr, s.Init, nInputs)
	case "":
		return nil, fmt.Errorf("model kind missing")
	default:
		return nil, fmt.Errorf("unknown model kind %q", s.Kind)
	}
}
