package features

import (
	"errors"
	"fmt"
)

// Naming decides the wide column names derived from a bin id.
type Naming struct {
	RatioPrefix string
	GCPrefix    string
}

// DefaultNaming is the naming used when no configuration overrides it.
var DefaultNaming = Naming{RatioPrefix: "ratio_corrected_", GCPrefix: "GC_"}

// Validate rejects namings whose two column families could collide.
func (n Naming) Validate() error {
	if n.RatioPrefix == "" || n.GCPrefix == "" {
		return errors.New("column prefixes must not be empty")
	}
	if n.RatioPrefix == n.GCPrefix {
		return fmt.Errorf("ratio and GC prefixes must differ, both are %q", n.RatioPrefix)
	}
	return nil
}

// RatioColumn returns the ratio column name for a bin.
func (n Naming) RatioColumn(binID string) string { return n.RatioPrefix + binID }

// GCColumn returns the GC column name for a bin.
func (n Naming) GCColumn(binID string) string { return n.GCPrefix + binID }

// Wide is a single sample reshaped to one column per bin/feature pair.
type Wide map[string]float64

// Builder reshapes per-bin rows into a Wide vector.
type Builder struct {
	naming Naming
}

// NewBuilder returns a Builder using naming, which must be valid.
func NewBuilder(naming Naming) (*Builder, error) {
	if err := naming.Validate(); err != nil {
		return nil, err
	}
	return &Builder{naming: naming}, nil
}

// Naming returns the column naming in use.
func (b *Builder) Naming() Naming { return b.naming }

// Build emits exactly two columns per row, values passed through unchanged.
func (b *Builder) Build(rows []BinRow) (Wide, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFeatures
	}

	wide := make(Wide, 2*len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.BinID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBin, row.BinID)
		}
		seen[row.BinID] = struct{}{}

		wide[b.naming.RatioColumn(row.BinID)] = row.Ratio
		wide[b.naming.GCColumn(row.BinID)] = row.GC
	}
	return wide, nil
}
