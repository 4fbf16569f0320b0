package pipeline

import (
	"context"
	"errors"
	"fmt"

	"espre/internal/cfg"
	"espre/internal/features"
	"espre/internal/fetch"
	"espre/internal/genome"
	"espre/internal/ml"
)

// ErrArtifact marks failures to obtain or parse the model, the schema or the
// window set.
var ErrArtifact = errors.New("artifact unavailable")

// Artifacts are the frozen inputs shared by every sample: the ensemble, the
// training schema and the reference windows.
type Artifacts struct {
	Ensemble *ml.Ensemble
	Schema   *features.Schema
	Windows  *genome.Windows
}

// LoadArtifacts resolves the model and schema (downloading URLs into dir)
// and reads all three artifacts. Windows are skipped when the path is empty.
func LoadArtifacts(ctx context.Context, s cfg.Settings, fetcher *fetch.Client, dir string) (*Artifacts, error) {
	modelPath, err := fetcher.Resolve(ctx, s.ModelPath, dir, "model")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	schemaPath, err := fetcher.Resolve(ctx, s.SchemaPath, dir, "schema")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}

	a := &Artifacts{}
	if a.Ensemble, err = ml.LoadEnsemble(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	if a.Schema, err = features.LoadSchema(schemaPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	if a.Ensemble.Width() != a.Schema.Len() {
		return nil, fmt.Errorf("%w: schema has %d columns, ensemble expects %d",
			ml.ErrSchemaMismatch, a.Schema.Len(), a.Ensemble.Width())
	}
	if s.WindowsPath != "" {
		if a.Windows, err = genome.ReadWindows(s.WindowsPath); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
		}
	}
	return a, nil
}
