package pool

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
)

// Compression identifies the encoding of a package index file.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGZIP Compression = "gz"
	CompressionXZ   Compression = "xz"
)

// indexEncodings is the read preference order for a Packages index. The
// plain file wins when present; aptly writes all three side by side.
var indexEncodings = []Compression{CompressionNone, CompressionGZIP, CompressionXZ}

// Extension returns the filename suffix for the encoding.
func (c Compression) Extension() string {
	switch c {
	case CompressionGZIP:
		return ".gz"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// Decompress decodes data according to the encoding.
func (c Compression) Decompress(data []byte) ([]byte, error) {
	switch c {
	case CompressionGZIP:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionXZ:
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	default:
		return data, nil
	}
}

// Compress encodes data according to the encoding.
func (c Compression) Compress(data []byte) ([]byte, error) {
	switch c {
	case CompressionGZIP:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionXZ:
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

// ReadIndex loads a Packages index from dir, trying the plain file first
// and the compressed variants after it. A directory with none of them
// returns a not found error.
func ReadIndex(dir string) ([]byte, error) {
	for _, enc := range indexEncodings {
		path := filepath.Join(dir, constants.PackagesFile+enc.Extension())
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
		decoded, err := enc.Decompress(data)
		if err != nil {
			return nil, errors.WrapParse("packages", path, err)
		}
		return decoded, nil
	}
	return nil, errors.NewNotFoundError("packages index", dir)
}
