package install

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxSourceSize bounds a decoded library source
const MaxSourceSize = 32 << 20

// maxLayers bounds nested compression
const maxLayers = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns a response body into UTF-8 script source
func Decode(body []byte) (string, error) {
	return decode(body, 0)
}

func decode(body []byte, layer int) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", fmt.Errorf("%w: empty body", ErrRejected)
	}
	if len(body) > MaxSourceSize {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(body)

	switch {
	case mtype.Is("application/gzip"), mtype.Is("application/zstd"):
		if layer >= maxLayers {
			return "", fmt.Errorf("%w: too many compression layers", ErrRejected)
		}
		data, err := decompress(body, mtype)
		if err != nil {
			return "", err
		}
		return decode(data, layer+1)
	case mtype.Is("text/html"):
		return "", fmt.Errorf("%w: got %s", ErrRejected, mtype.String())
	case !isText(mtype):
		return "", fmt.Errorf("%w: got %s", ErrRejected, mtype.String())
	}

	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return string(body), nil
	}
	return transcode(body)
}

func decompress(body []byte, mtype *mimetype.MIME) ([]byte, error) {
	var r io.Reader
	if mtype.Is("application/gzip") {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	} else {
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if len(data) > MaxSourceSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// isText reports whether mtype is plain text or derives from it
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectCharset returns the most likely charset of data
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "windows-1252"
	}
	return strings.ToLower(result.Charset)
}

// transcode converts legacy-encoded text to UTF-8
func transcode(body []byte) (string, error) {
	name := DetectCharset(body)
	if _, canonical := charset.Lookup(name); canonical == "" {
		name = "windows-1252"
	}

	r, err := charset.NewReader(bytes.NewReader(body), "text/javascript; charset="+name)
	if err != nil {
		return "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	return string(data), nil
}
