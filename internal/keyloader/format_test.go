package keyloader

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		k, err := NewKey()
		require.NoError(t, err)
		require.True(t, Valid(k), k)
		require.Len(t, k, 29)
	}
}

func TestNewKey_RejectsBiasedBytes(t *testing.T) {
	orig := randReader
	t.Cleanup(func() { randReader = orig })

	// 255 and 252 are above the cutoff and must be skipped; 0 maps to 'A',
	// 35 maps to '9'.
	src := []byte{255, 252}
	for i := 0; i < 25; i++ {
		if i%2 == 0 {
			src = append(src, 0)
		} else {
			src = append(src, 35)
		}
	}
	randReader = bytes.NewReader(src)

	k, err := NewKey()
	require.NoError(t, err)
	assert.Equal(t, "A9A9A-9A9A9-A9A9A-9A9A9-A9A9A", k)
}

func TestNewKey_ReaderError(t *testing.T) {
	orig := randReader
	t.Cleanup(func() { randReader = orig })
	randReader = bytes.NewReader(nil)

	_, err := NewKey()
	assert.Error(t, err)
}

func TestGenerate_Distinct(t *testing.T) {
	keys, err := Generate(500)
	require.NoError(t, err)
	assert.Len(t, keys, 500)

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k])
		seen[k] = true
	}

	_, err = Generate(-1)
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABCDE-12345-FGHIJ-67890-KLMNO"))
	for _, bad := range []string{"", "abcde-12345-FGHIJ-67890-KLMNO", "ABCDE12345FGHIJ67890KLMNO", "ABCDE-12345-FGHIJ-67890", "ABCDE-12345-FGHIJ-67890-KLMNO-"} {
		assert.False(t, Valid(bad), bad)
	}
}

func TestWriteThenParseCSV(t *testing.T) {
	keys, err := Generate(10)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, keys))
	assert.True(t, strings.HasPrefix(buf.String(), CSVHeader+"\n"))

	got, err := ParseCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, keys, got)
}

func TestParseCSV(t *testing.T) {
	in := "\ufeffProduct Key\n" +
		"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE\n" +
		"\n" +
		" 11111-22222-33333-44444-55555 ,extra\n" +
		"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE\n"

	got, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE", "11111-22222-33333-44444-55555"}, got)
}

func TestParseCSV_NoHeader(t *testing.T) {
	got, err := ParseCSV(strings.NewReader("AAAAA-BBBBB-CCCCC-DDDDD-EEEEE\n"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseCSV_Malformed(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Product Key\nAAAAA-BBBBB-CCCCC-DDDDD-EEEEE\nnope\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_Error(t *testing.T) {
	assert.Error(t, WriteCSV(failingWriter{}, []string{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE"}))
}
