package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveFetchesEscapedFileLocator(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "syntax"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "syntax", "My File.png"), []byte("img"), 0o644))

	archive, err := New(dir)
	require.NoError(t, err)

	res, err := archive.Fetch(context.Background(), "file://"+filepath.ToSlash(dir)+"/syntax/My%20File.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), res.Data)
	assert.Equal(t, "image/png", res.ContentType)

	res, err = archive.Fetch(context.Background(), "syntax/My%20File.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), res.Data)
}

func TestArchiveMissingFileErrors(t *testing.T) {
	archive, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = archive.Fetch(context.Background(), "missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
