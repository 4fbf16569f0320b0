package features

import "errors"

var (
	// ErrEmptyFeatures is returned when a sample resolves to zero genomic bins.
	ErrEmptyFeatures = errors.New("no bins resolved for sample")

	// ErrDuplicateBin is returned when one sample's table names a bin twice.
	ErrDuplicateBin = errors.New("duplicate bin id in feature table")
)
