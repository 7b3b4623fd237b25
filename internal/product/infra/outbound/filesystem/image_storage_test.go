package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:8080/images"

func TestLocalImageStorage_UploadAndDelete(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	storage, err := NewLocalImageStorage(dir, baseURL+"/")
	require.NoError(t, err)

	// Act
	url, err := storage.Upload(context.Background(), "Silla.PNG", strings.NewReader("png-bytes"))

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, baseURL+"/"))
	assert.True(t, strings.HasSuffix(url, ".png"), "Se conserva la extensión en minúsculas")

	name := strings.TrimPrefix(url, baseURL+"/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, storage.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalImageStorage_DeleteIgnoresForeignOrMissing(t *testing.T) {
	storage, err := NewLocalImageStorage(t.TempDir(), baseURL)
	require.NoError(t, err)

	assert.NoError(t, storage.Delete(context.Background(), "https://cdn.example.com/a.png"))
	assert.NoError(t, storage.Delete(context.Background(), baseURL+"/no-existe.png"))
}

func TestLocalImageStorage_UploadCancelled(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalImageStorage(dir, baseURL)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = storage.Upload(ctx, "a.jpg", strings.NewReader("x"))

	assert.ErrorIs(t, err, context.Canceled)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "No quedan ficheros a medias")
}
