package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveStream_Files(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("saves file successfully", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "expenses", "EXP-1.pdf")
		content := []byte("PDF content here")

		_, err := fs.SaveStream(fullPath, bytes.NewReader(content))
		require.NoError(t, err)

		saved, err := os.ReadFile(fullPath)
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "overwrite", "file.txt")

		_, err := fs.SaveStream(fullPath, strings.NewReader("original"))
		require.NoError(t, err)
		_, err = fs.SaveStream(fullPath, strings.NewReader("updated"))
		require.NoError(t, err)

		content, _ := os.ReadFile(fullPath)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("saves empty file", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "empty.txt")
		n, err := fs.SaveStream(fullPath, strings.NewReader(""))
		require.NoError(t, err)
		assert.Zero(t, n)

		info, err := os.Stat(fullPath)
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())
	})
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("stream broken")
}

func TestLocalFileStorage_SaveStream(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("streams content and reports size", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "bills", "BILL-7.png")

		n, err := fs.SaveStream(fullPath, strings.NewReader("png bytes"))

		require.NoError(t, err)
		assert.Equal(t, int64(9), n)
		assert.FileExists(t, fullPath)
	})

	t.Run("removes partial file on stream failure", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "bills", "broken.pdf")

		_, err := fs.SaveStream(fullPath, &failingReader{})

		require.Error(t, err)
		assert.NoFileExists(t, fullPath)
	})

	t.Run("rejects paths outside base", func(t *testing.T) {
		_, err := fs.SaveStream(filepath.Join(tempDir, "..", "escape.txt"), strings.NewReader("x"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("accepts valid path within base", func(t *testing.T) {
		assert.NoError(t, fs.ValidatePath(filepath.Join(tempDir, "expenses", "file.pdf")))
	})

	t.Run("rejects path outside base directory", func(t *testing.T) {
		err := fs.ValidatePath("/etc/passwd")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})

	t.Run("rejects path with similar prefix", func(t *testing.T) {
		err := fs.ValidatePath(tempDir + "_malicious/file.txt")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})
}
