package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStore_SaveAndList(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	n, err := store.Save("20240101120000_a.png", strings.NewReader("pngdata"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	data, err := os.ReadFile(store.Path("20240101120000_a.png"))
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(data))

	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ".keep"), nil, 0644))

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "20240101120000_a.png", files[0].Name)
	assert.Equal(t, int64(7), files[0].Size)
}

func TestLocalStore_PathStripsDirectories(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(store.Dir(), "evil.png"), store.Path("../../evil.png"))
}

func TestLocalStore_Remove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("a.png", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove("a.png"))

	_, err = os.Stat(store.Path("a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.png":  "image/png",
		"a.JPG":  "image/jpeg",
		"a.jpeg": "image/jpeg",
		"a.gif":  "image/gif",
		"a.bmp":  "image/bmp",
		"a.bin":  "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "images/a.png", ObjectKey("images", "a.png"))
	assert.Equal(t, "images/a.png", ObjectKey("/images/", "a.png"))
	assert.Equal(t, "a.png", ObjectKey("", "a.png"))
}
