package genome

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ChromSize is one row of a chrom.sizes or FASTA .fai file.
type ChromSize struct {
	Name   string
	Length int
}

// ReadChromSizes loads the first two columns of a chrom.sizes or .fai file.
func ReadChromSizes(path string) ([]ChromSize, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chrom sizes: %w", err)
	}
	defer f.Close()

	sizes, err := ParseChromSizes(f)
	if err != nil {
		return nil, fmt.Errorf("chrom sizes %s: %w", path, err)
	}
	return sizes, nil
}

func ParseChromSizes(r io.Reader) ([]ChromSize, error) {
	cr := newBEDReader(r)

	var sizes []ChromSize
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
		if len(rec) < 2 {
			return nil, fmt.Errorf("record %d: expected name and length", line)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("record %d: bad length %q", line, rec[1])
		}
		sizes = append(sizes, ChromSize{Name: strings.TrimSpace(rec[0]), Length: n})
	}
	return sizes, nil
}

// PrimaryAssembly keeps chr1-chr22, chrX and chrY, with or without the "chr"
// prefix.
func PrimaryAssembly(chrom string) bool {
	name := strings.TrimPrefix(chrom, "chr")
	if name == "X" || name == "Y" {
		return true
	}
	n, err := strconv.Atoi(name)
	return err == nil && n >= 1 && n <= 22 && strconv.Itoa(n) == name
}

// MakeWindows tiles each kept chromosome with windows of the given width,
// in input order. The last window of a chromosome ends at its length. A nil
// keep keeps every chromosome.
func MakeWindows(sizes []ChromSize, width int, keep func(string) bool) (*Windows, error) {
	if width <= 0 {
		return nil, fmt.Errorf("window width must be positive, got %d", width)
	}

	var ws []Window
	for _, c := range sizes {
		if keep != nil && !keep(c.Name) {
			continue
		}
		for start := 0; start < c.Length; start += width {
			ws = append(ws, Window{Chrom: c.Name, Start: start, End: min(start+width, c.Length)})
		}
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("no windows generated")
	}
	return NewWindows(ws)
}
