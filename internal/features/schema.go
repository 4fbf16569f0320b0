package features

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Schema is the ordered column list a model was trained on. It cannot be
// changed after construction.
type Schema struct {
	columns []string
	index   map[string]int
}

// NewSchema copies columns into a Schema. Blank or repeated names are rejected
// since either would make alignment ambiguous.
func NewSchema(columns []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New("schema has no columns")
	}

	s := &Schema{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("schema column %d is blank", i)
		}
		if prev, dup := s.index[c]; dup {
			return nil, fmt.Errorf("schema column %q repeated at %d and %d", c, prev, i)
		}
		s.columns[i] = c
		s.index[c] = i
	}
	return s, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the column names in order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column returns the i-th column name.
func (s *Schema) Column(i int) string { return s.columns[i] }

// Index reports the position of a column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// LoadSchema reads a schema persisted either as a JSON array of strings or as
// plain text with one column name per line.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	cols, err := parseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return NewSchema(cols)
}

func parseSchema(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var cols []string
		if err := json.Unmarshal(trimmed, &cols); err != nil {
			return nil, err
		}
		return cols, nil
	}

	var cols []string
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols = append(cols, line)
	}
	return cols, sc.Err()
}
