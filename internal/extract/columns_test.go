package extract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnWriter_SplitWrites(t *testing.T) {
	var buf bytes.Buffer
	cw := NewColumnWriter(&buf, 1, 1, 3)

	// Lines arrive in arbitrary chunks
	for _, chunk := range []string{"h1\th2\th3\nA\tB", "\tC\nD\tE\tF\n", "G\tH\tI"} {
		n, err := cw.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, "A\tC\nD\tF\n", buf.String())

	require.NoError(t, cw.Close())
	assert.Equal(t, "A\tC\nD\tF\nG\tI\n", buf.String())
}

func TestColumnWriter_ShortLines(t *testing.T) {
	var buf bytes.Buffer
	cw := NewColumnWriter(&buf, 0, 1, 4)

	_, err := cw.Write([]byte("only\ttwo\r\n"))
	require.NoError(t, err)
	require.NoError(t, cw.Close())
	assert.Equal(t, "only\t\n", buf.String())
}

func TestFieldWriter_Whitespace(t *testing.T) {
	var buf bytes.Buffer
	cw := NewFieldWriter(&buf, 0, 2, 1)

	_, err := cw.Write([]byte("a  b\tc\n   x y\n"))
	require.NoError(t, err)
	require.NoError(t, cw.Close())
	assert.Equal(t, "b\ta\ny\tx\n", buf.String())
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{max: 5}
	n, err := tb.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = tb.Write([]byte("defg"))
	assert.Equal(t, "cdefg", tb.String())
	_, _ = tb.Write([]byte("0123456789"))
	assert.Equal(t, "56789", tb.String())
}
