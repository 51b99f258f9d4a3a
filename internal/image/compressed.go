package image

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// MaxImageBytes caps the size of an image after decompression.
const MaxImageBytes = 256 << 20

// Compression identifies a wrapper format around image data.
type Compression string

const (
	CompressionNone  Compression = ""
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionXz    Compression = "xz"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// DetectCompression identifies the compression of data from its magic bytes.
func DetectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXz
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(header, bzip2Magic):
		return CompressionBzip2
	default:
		return CompressionNone
	}
}

// readImageData reads r fully, unwrapping one layer of gzip, bzip2 or xz
// compression when present.
func readImageData(r io.Reader) ([]byte, Compression, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, CompressionNone, fmt.Errorf("failed to read image header: %w", err)
	}

	kind := DetectCompression(header)
	var src io.Reader = br
	switch kind {
	case CompressionGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		src = gzr
	case CompressionBzip2:
		src = bzip2.NewReader(br)
	case CompressionXz:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("failed to create xz reader: %w", err)
		}
		src = xzr
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxImageBytes+1))
	if err != nil {
		if kind != CompressionNone {
			return nil, kind, fmt.Errorf("failed to decompress %s image: %w", kind, err)
		}
		return nil, kind, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, kind, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	return data, kind, nil
}
