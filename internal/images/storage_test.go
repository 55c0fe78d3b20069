package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SaveAndRead(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	data := []byte("jpeg bytes")
	require.NoError(t, storage.Save("abc_image_a.jpg", data))

	read, err := storage.Read("abc_image_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, read)

	// No temp file left behind
	_, err = os.Stat(filepath.Join(storage.Dir(), "abc_image_a.jpg.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestStorage_Read_NotFound(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Read("missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_Exists(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	assert.False(t, storage.Exists("missing.jpg"))

	require.NoError(t, storage.Save("present.jpg", []byte("data")))
	assert.True(t, storage.Exists("present.jpg"))
}

func TestStorage_RejectsTraversal(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name     string
		filename string
	}{
		{name: "empty", filename: ""},
		{name: "slash", filename: "dir/file.jpg"},
		{name: "backslash", filename: `dir\file.jpg`},
		{name: "dotdot", filename: "..secret.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, storage.Save(tt.filename, []byte("data")), ErrInvalidFilename)

			_, err := storage.Read(tt.filename)
			assert.ErrorIs(t, err, ErrInvalidFilename)

			assert.False(t, storage.Exists(tt.filename))
		})
	}
}

func TestStorage_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	_, err := NewStorage(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
