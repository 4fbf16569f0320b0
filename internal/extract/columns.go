package extract

import (
	"bytes"
	"io"
	"strings"
)

// ColumnWriter projects each line written to it onto a subset of its columns
// before passing it on, optionally dropping leading header lines. Columns are
// 1-based; a column past the end of a line is written empty. Close flushes a
// final line that lacks a newline.
type ColumnWriter struct {
	w       io.Writer
	split   func(string) []string
	cols    []int
	skip    int
	pending []byte
	out     bytes.Buffer
}

// NewColumnWriter splits lines on tabs.
func NewColumnWriter(w io.Writer, skipLines int, cols ...int) *ColumnWriter {
	return &ColumnWriter{
		w:     w,
		split: func(s string) []string { return strings.Split(s, "\t") },
		cols:  cols,
		skip:  skipLines,
	}
}

// NewFieldWriter splits lines on runs of whitespace.
func NewFieldWriter(w io.Writer, skipLines int, cols ...int) *ColumnWriter {
	cw := NewColumnWriter(w, skipLines, cols...)
	cw.split = strings.Fields
	return cw
}

func (c *ColumnWriter) Write(p []byte) (int, error) {
	n := len(p)
	c.pending = append(c.pending, p...)
	for {
		i := bytes.IndexByte(c.pending, '\n')
		if i < 0 {
			break
		}
		c.project(c.pending[:i])
		c.pending = c.pending[i+1:]
	}
	if c.out.Len() > 0 {
		if _, err := c.w.Write(c.out.Bytes()); err != nil {
			return 0, err
		}
		c.out.Reset()
	}
	return n, nil
}

func (c *ColumnWriter) Close() error {
	if len(c.pending) > 0 {
		c.project(c.pending)
		c.pending = nil
	}
	if c.out.Len() == 0 {
		return nil
	}
	_, err := c.w.Write(c.out.Bytes())
	c.out.Reset()
	return err
}

func (c *ColumnWriter) project(line []byte) {
	if c.skip > 0 {
		c.skip--
		return
	}
	fields := c.split(strings.TrimSuffix(string(line), "\r"))
	for i, col := range c.cols {
		if i > 0 {
			c.out.WriteByte('\t')
		}
		if col >= 1 && col <= len(fields) {
			c.out.WriteString(fields[col-1])
		}
	}
	c.out.WriteByte('\n')
}
