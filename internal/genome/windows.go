// Package genome handles the fixed-size reference windows that feature bins
// are defined on.
package genome

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Window is a half-open BED interval [Start, End) on Chrom.
type Window struct {
	Chrom string
	Start int
	End   int
}

// BinID is the window's feature bin token, chrom and start joined by "_".
func (w Window) BinID() string {
	return w.Chrom + "_" + strconv.Itoa(w.Start)
}

// Windows is an ordered window set. It is not modified after construction.
type Windows struct {
	list  []Window
	index map[string]int
}

func NewWindows(ws []Window) (*Windows, error) {
	set := &Windows{
		list:  make([]Window, len(ws)),
		index: make(map[string]int, len(ws)),
	}
	for i, w := range ws {
		if w.Chrom == "" {
			return nil, fmt.Errorf("window %d has no chromosome", i)
		}
		if w.Start < 0 || w.End <= w.Start {
			return nil, fmt.Errorf("window %d (%s:%d-%d) is empty or negative", i, w.Chrom, w.Start, w.End)
		}
		id := w.BinID()
		if _, dup := set.index[id]; dup {
			return nil, fmt.Errorf("window %s listed twice", id)
		}
		set.index[id] = i
		set.list[i] = w
	}
	return set, nil
}

func (s *Windows) Len() int { return len(s.list) }

func (s *Windows) At(i int) Window { return s.list[i] }

// Lookup returns the window for a bin id.
func (s *Windows) Lookup(binID string) (Window, bool) {
	i, ok := s.index[binID]
	if !ok {
		return Window{}, false
	}
	return s.list[i], true
}

// Unknown returns the ids that name no window, in input order.
func (s *Windows) Unknown(binIDs []string) []string {
	var out []string
	for _, id := range binIDs {
		if _, ok := s.index[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// ReadWindows loads a window BED file.
func ReadWindows(path string) (*Windows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open windows: %w", err)
	}
	defer f.Close()

	ws, err := ParseWindows(f)
	if err != nil {
		return nil, fmt.Errorf("windows %s: %w", path, err)
	}
	return ws, nil
}

// ParseWindows reads tab-separated chrom, start, end lines. Extra columns,
// '#' comments and track/browser lines are ignored.
func ParseWindows(r io.Reader) (*Windows, error) {
	cr := newBEDReader(r)

	var ws []Window
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isHeader(rec) {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("record %d: expected at least 3 columns, got %d", line, len(rec))
		}
		start, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("record %d: bad start %q", line, rec[1])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("record %d: bad end %q", line, rec[2])
		}
		ws = append(ws, Window{Chrom: strings.TrimSpace(rec[0]), Start: start, End: end})
	}
	return NewWindows(ws)
}

// WriteBED writes the windows as three-column BED.
func WriteBED(w io.Writer, s *Windows) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	for _, win := range s.list {
		if err := cw.Write([]string{win.Chrom, strconv.Itoa(win.Start), strconv.Itoa(win.End)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func newBEDReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return true
	}
	first := strings.TrimSpace(rec[0])
	return first == "" || strings.HasPrefix(first, "track") || strings.HasPrefix(first, "browser")
}
