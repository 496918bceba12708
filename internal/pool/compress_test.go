package pool_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feelpp/aptforge/internal/pool"
	pkgerrors "github.com/feelpp/aptforge/pkg/errors"
)

func TestCompressionRoundTrip(t *testing.T) {
	payload := []byte("Package: mmg\nVersion: 5.8.0\n")

	for _, enc := range []pool.Compression{pool.CompressionNone, pool.CompressionGZIP, pool.CompressionXZ} {
		t.Run(string(enc)+enc.Extension(), func(t *testing.T) {
			encoded, err := enc.Compress(payload)
			require.NoError(t, err)
			decoded, err := enc.Decompress(encoded)
			require.NoError(t, err)
			assert.Equal(t, payload, decoded)
		})
	}
}

func TestCompressionExtension(t *testing.T) {
	assert.Equal(t, "", pool.CompressionNone.Extension())
	assert.Equal(t, ".gz", pool.CompressionGZIP.Extension())
	assert.Equal(t, ".xz", pool.CompressionXZ.Extension())
}

func TestReadIndexPrefersPlainFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Packages"), []byte("plain"), 0o644))

	gz, err := pool.CompressionGZIP.Compress([]byte("compressed"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Packages.gz"), gz, 0o644))

	data, err := pool.ReadIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(data))
}

func TestReadIndexGzipOnly(t *testing.T) {
	dir := t.TempDir()
	gz, err := pool.CompressionGZIP.Compress([]byte("gz index"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Packages.gz"), gz, 0o644))

	data, err := pool.ReadIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, "gz index", string(data))
}

func TestReadIndexXZOnly(t *testing.T) {
	dir := t.TempDir()
	encoded, err := pool.CompressionXZ.Compress([]byte("xz index"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Packages.xz"), encoded, 0o644))

	data, err := pool.ReadIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, "xz index", string(data))
}

func TestReadIndexMissing(t *testing.T) {
	_, err := pool.ReadIndex(t.TempDir())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestReadIndexDamagedCompression(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Packages.gz"), []byte("not gzip"), 0o644))

	_, err := pool.ReadIndex(dir)
	require.Error(t, err)

	var parseErr *pkgerrors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
