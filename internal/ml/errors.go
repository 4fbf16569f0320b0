package ml

import "errors"

var (
	// ErrSchemaMismatch means the base models and the meta model, or the
	// training schema and the ensemble, disagree on column identity.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrModelNotLoaded is returned when inference runs before an ensemble
	// has been loaded.
	ErrModelNotLoaded = errors.New("ensemble model not loaded")

	// ErrInvalidProbability is returned for a NaN or out-of-range probability.
	ErrInvalidProbability = errors.New("invalid probability")

	// ErrInputShape is returned when an input vector has the wrong width.
	ErrInputShape = errors.New("input shape mismatch")
)
