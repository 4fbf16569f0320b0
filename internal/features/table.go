// Package features turns the per-bin table produced by the external feature
// extractor into the fixed-width vector a trained ensemble expects.
//
// The flow is Table -> Builder.Build (one wide row) -> Align (training schema
// order, missing columns filled with zero).
package features

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/gocarina/gocsv"
)

// Canonical header names written by the extractor script.
const (
	ColumnBinID = "bin_id"
	ColumnRatio = "ratio.corrected"
	ColumnGC    = "GC"
)

// headerAliases maps lower-cased header spellings onto the canonical names.
var headerAliases = map[string]string{
	"bin_id":          ColumnBinID,
	"bin":             ColumnBinID,
	"ratio.corrected": ColumnRatio,
	"ratio_corrected": ColumnRatio,
	"ratio":           ColumnRatio,
	"gc":              ColumnGC,
	"gc_content":      ColumnGC,
}

// BinRow is one genomic bin observed for the current sample.
type BinRow struct {
	BinID string  `csv:"bin_id"`
	Ratio float64 `csv:"ratio.corrected"`
	GC    float64 `csv:"GC"`
}

// Table holds the rows of one sample's feature file, in file order.
type Table struct {
	Rows []BinRow
}

// Len returns the number of observed bins.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// BinIDs returns the bin identifiers in file order.
func (t *Table) BinIDs() []string {
	ids := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		ids = append(ids, r.BinID)
	}
	return ids
}

// ReadTable parses the feature file at path. See ParseTable.
func ReadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature table %s: %w", path, err)
	}
	t, err := ParseTable(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feature table %s: %w", path, err)
	}
	return t, nil
}

// ParseTable reads a comma- or tab-delimited feature table. The header must
// carry a bin id column, a ratio column and a GC column; other columns are
// ignored. A header with no data rows yields an empty table, not an error.
func ParseTable(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Table{}, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	nr := &normalizingReader{r: cr}
	rows := []*BinRow{}
	if err := gocsv.UnmarshalCSV(nr, &rows); err != nil {
		if nr.err != nil {
			return nil, nr.err
		}
		return nil, err
	}

	t := &Table{Rows: make([]BinRow, 0, len(rows))}
	for i, row := range rows {
		row.BinID = strings.TrimSpace(row.BinID)
		if row.BinID == "" {
			return nil, fmt.Errorf("row %d: empty %s", i+1, ColumnBinID)
		}
		t.Rows = append(t.Rows, *row)
	}
	return t, nil
}

func detectDelimiter(data []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(data), '"')
	for _, delim := range delimiters {
		if delim == "\t" || delim == "," {
			return rune(delim[0])
		}
	}
	if bytes.Count(firstLine(data), []byte{'\t'}) > 0 {
		return '\t'
	}
	return ','
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

// normalizingReader rewrites the header row onto canonical column names and
// rejects headers that lack a required column.
type normalizingReader struct {
	r          *csv.Reader
	headerSeen bool
	err        error
}

func (n *normalizingReader) Read() ([]string, error) {
	rec, err := n.r.Read()
	if err != nil {
		return nil, err
	}
	if !n.headerSeen {
		n.headerSeen = true
		if rec, err = normalizeHeader(rec); err != nil {
			n.err = err
			return nil, err
		}
	}
	return rec, nil
}

func (n *normalizingReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := n.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func normalizeHeader(header []string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if canonical, ok := headerAliases[strings.ToLower(name)]; ok {
			if seen[canonical] {
				return nil, fmt.Errorf("header maps %q onto %s twice", name, canonical)
			}
			seen[canonical] = true
			name = canonical
		}
		out[i] = name
	}

	var missing []string
	for _, required := range []string{ColumnBinID, ColumnRatio, ColumnGC} {
		if !seen[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("feature table missing required columns: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
