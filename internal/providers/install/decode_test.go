package install

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = "(function (g) { g.Lib = { version: '1.0.0' }; })(this);\n"

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestDecodeAcceptsScripts(t *testing.T) {
	tests := []struct {
		name string
		body func(t *testing.T) []byte
	}{
		{name: "plain", body: func(*testing.T) []byte { return []byte(script) }},
		{name: "bom", body: func(*testing.T) []byte { return append([]byte{0xEF, 0xBB, 0xBF}, script...) }},
		{name: "gzip", body: func(t *testing.T) []byte { return gzipped(t, []byte(script)) }},
		{name: "zstd", body: func(t *testing.T) []byte { return zstded(t, []byte(script)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Decode(tt.body(t))
			require.NoError(t, err)
			assert.Equal(t, script, src)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want error
	}{
		{name: "empty", body: []byte("  \n"), want: ErrRejected},
		{name: "html error page", body: []byte("<!DOCTYPE html><html><body>Not Found</body></html>"), want: ErrRejected},
		{name: "png", body: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"), want: ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.body)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeRejectsNestedCompression(t *testing.T) {
	body := gzipped(t, gzipped(t, gzipped(t, []byte(script))))
	_, err := Decode(body)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestDecodeTranscodesLegacyText(t *testing.T) {
	// ISO-8859-1 encoded comment and string literal
	latin1 := strings.Repeat("// Biblioth\xe8que de d\xe9monstration pour l'\xe9quipe fran\xe7aise\n", 8) +
		"var message = \"caf\xe9 cr\xe8me d\xe9j\xe0 vu\";\n"
	require.False(t, utf8.ValidString(latin1))

	src, err := Decode([]byte(latin1))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(src))
	assert.Contains(t, src, "café")
}
