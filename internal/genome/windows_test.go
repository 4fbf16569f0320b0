package genome

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindows(t *testing.T) {
	in := "track name=hg38_1Mb\n" +
		"# comment\n" +
		"chr1\t0\t1000000\n" +
		"chr1\t1000000\t2000000\tname\t0\t+\n" +
		"\n" +
		"chrX\t5000000\t6000000\n"

	ws, err := ParseWindows(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, ws.Len())

	assert.Equal(t, Window{Chrom: "chr1", Start: 1000000, End: 2000000}, ws.At(1))
	w, ok := ws.Lookup("chrX_5000000")
	assert.True(t, ok)
	assert.Equal(t, 6000000, w.End)

	assert.Equal(t, []string{"chr2_0", "chr1_5"}, ws.Unknown([]string{"chr1_0", "chr2_0", "chr1_5", "chrX_5000000"}))
	assert.Empty(t, ws.Unknown([]string{"chr1_0"}))
}

func TestParseWindows_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"two columns", "chr1\t0\n"},
		{"bad start", "chr1\tzero\t10\n"},
		{"bad end", "chr1\t0\tten\n"},
		{"empty interval", "chr1\t10\t10\n"},
		{"duplicate", "chr1\t0\t10\nchr1\t0\t20\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWindows(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestReadWindows_WriteBEDRoundTrip(t *testing.T) {
	ws, err := NewWindows([]Window{{"chr2", 0, 1000}, {"chr1", 0, 1000}, {"chr1", 1000, 1500}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBED(&buf, ws))
	assert.Equal(t, "chr2\t0\t1000\nchr1\t0\t1000\nchr1\t1000\t1500\n", buf.String())

	path := filepath.Join(t.TempDir(), "w.bed")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	back, err := ReadWindows(path)
	require.NoError(t, err)
	assert.Equal(t, ws.Len(), back.Len())
	for i := 0; i < ws.Len(); i++ {
		assert.Equal(t, ws.At(i), back.At(i))
	}

	_, err = ReadWindows(filepath.Join(t.TempDir(), "absent.bed"))
	assert.Error(t, err)
}

func TestWindow_BinID(t *testing.T) {
	assert.Equal(t, "chr1_0", Window{Chrom: "chr1", Start: 0, End: 10}.BinID())
	assert.Equal(t, "chrX_5000000", Window{Chrom: "chrX", Start: 5000000, End: 6000000}.BinID())
}
