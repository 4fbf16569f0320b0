package features

// Aligned is a single row whose columns are exactly a schema's, in schema
// order. Align is the only constructor that guarantees this.
type Aligned struct {
	Columns []string
	Values  []float64
}

// Len returns the number of values.
func (a Aligned) Len() int { return len(a.Values) }

// Wide converts the row back to name-keyed form.
func (a Aligned) Wide() Wide {
	w := make(Wide, len(a.Columns))
	for i, c := range a.Columns {
		w[c] = a.Values[i]
	}
	return w
}

// Coverage summarises how a wide vector met the schema.
type Coverage struct {
	Present int // schema columns found in the sample
	Missing int // schema columns filled with the default
	Dropped int // sample columns unknown to the schema
}

// MissingValue fills schema columns the sample did not produce.
const MissingValue = 0.0

// Align projects wide onto schema. Every schema column resolves to a value,
// unknown wide columns are discarded, and the result never depends on the
// iteration order of wide.
func Align(wide Wide, schema *Schema) Aligned {
	a := Aligned{
		Columns: schema.Columns(),
		Values:  make([]float64, schema.Len()),
	}
	for i, c := range a.Columns {
		if v, ok := wide[c]; ok {
			a.Values[i] = v
		} else {
			a.Values[i] = MissingValue
		}
	}
	return a
}

// Measure reports the coverage Align would observe for wide.
func Measure(wide Wide, schema *Schema) Coverage {
	var cov Coverage
	for _, c := range schema.columns {
		if _, ok := wide[c]; ok {
			cov.Present++
		} else {
			cov.Missing++
		}
	}
	cov.Dropped = len(wide) - cov.Present
	return cov
}
