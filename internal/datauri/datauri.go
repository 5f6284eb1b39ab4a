// Package datauri converts raw bytes to and from the base64 data URI text
// form stored in FileRecord.Content.
package datauri

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMimeType is used when the source type is unknown.
const DefaultMimeType = "application/octet-stream"

var (
	ErrNotDataURI  = errors.New("not a data URI")
	ErrNotBase64   = errors.New("data URI is not base64 encoded")
	ErrBadEncoding = errors.New("invalid base64 payload")
)

// Encode returns data:<mime>;base64,<payload>.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// EncodeReader reads r to the end and encodes it.
func EncodeReader(mimeType string, r io.Reader) (string, int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read content: %w", err)
	}
	return Encode(mimeType, buf.Bytes()), n, nil
}

// Decode splits a data URI into its MIME type and the original bytes.
func Decode(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}

	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, ErrNotBase64
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}

	return mimeType, data, nil
}
