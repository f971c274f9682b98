package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// MaxDecodedSize bounds the output of Decode
const MaxDecodedSize = 16 << 20

// ErrInvalidPayload is returned when an nfeDadosMsgZip value cannot be decoded
var ErrInvalidPayload = errors.New("invalid compressed payload")

// Compressor encodes payloads for nfeDadosMsgZip
type Compressor struct {
	level int
	limit int64
}

// NewCompressor creates a compressor with the default gzip level
func NewCompressor() *Compressor {
	return NewCompressorWithLevel(gzip.DefaultCompression)
}

// NewCompressorWithLevel creates a compressor with a gzip level
func NewCompressorWithLevel(level int) *Compressor {
	return &Compressor{level: level, limit: MaxDecodedSize}
}

// Encode gzips data and returns it base64 encoded
func (c *Compressor) Encode(data []byte) (string, error) {
	var out bytes.Buffer

	b64 := base64.NewEncoder(base64.StdEncoding, &out)
	zw, err := gzip.NewWriterLevel(b64, c.level)
	if err != nil {
		return "", fmt.Errorf("gzip level %d: %w", c.level, err)
	}
	_, err = zw.Write(data)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := b64.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("compressing payload: %w", err)
	}
	return out.String(), nil
}

// Decode reverses Encode
func (c *Compressor) Decode(encoded string) ([]byte, error) {
	b64 := base64.NewDecoder(base64.StdEncoding, bytes.NewReader([]byte(encoded)))
	zr, err := gzip.NewReader(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, c.limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if int64(len(data)) > c.limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidPayload, c.limit)
	}
	return data, nil
}
