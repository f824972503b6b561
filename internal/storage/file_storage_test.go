package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	pdfHeader = []byte("%PDF-1.7\n%âãÏÓ\n1 0 obj\n")
)

func TestFileStorage_SavePNG(t *testing.T) {
	root := t.TempDir()
	st, err := NewFileStorage(root, 1)
	require.NoError(t, err)

	userID := uuid.New()
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 20000)...)

	stored, err := st.Save(context.Background(), userID, "../../receipt.png", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.FileType)
	assert.Equal(t, int64(len(body)), stored.FileSize)
	assert.Equal(t, "receipt.png", stored.FileName)
	assert.True(t, strings.HasPrefix(stored.URL, "/files/"+userID.String()+"/"))

	onDisk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Path)))
	require.NoError(t, err)
	assert.Equal(t, body, onDisk)

	require.NoError(t, st.Delete(context.Background(), stored.URL))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(stored.Path)))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorage_SavePDF(t *testing.T) {
	st, err := NewFileStorage(t.TempDir(), 1)
	require.NoError(t, err)

	stored, err := st.Save(context.Background(), uuid.New(), "work.pdf", bytes.NewReader(pdfHeader))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", stored.FileType)
}

func TestFileStorage_RejectsUnknownType(t *testing.T) {
	st, err := NewFileStorage(t.TempDir(), 1)
	require.NoError(t, err)

	_, err = st.Save(context.Background(), uuid.New(), "notes.txt", strings.NewReader("просто текст"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = st.Save(context.Background(), uuid.New(), "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestFileStorage_RejectsOversized(t *testing.T) {
	root := t.TempDir()
	st, err := NewFileStorage(root, 1)
	require.NoError(t, err)

	userID := uuid.New()
	body := append(append([]byte{}, pngHeader...), make([]byte, 1024*1024)...)
	_, err = st.Save(context.Background(), userID, "big.png", bytes.NewReader(body))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, userID.String()))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStorage_DeleteRejectsTraversal(t *testing.T) {
	st, err := NewFileStorage(t.TempDir(), 1)
	require.NoError(t, err)

	assert.Error(t, st.Delete(context.Background(), "/files/../../etc/passwd"))
	assert.NoError(t, st.Delete(context.Background(), "/files/missing/file.png"))
}

func TestFileStorage_Ping(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStorage(dir, 1)
	require.NoError(t, err)

	require.NoError(t, st.Ping(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
