package blobstore

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_Save(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	store := NewMem().WithClock(func() time.Time { return fixed })

	path, err := store.Save(context.Background(), "LIC-123", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/licenses/LIC-123-1700000000000.pdf", path)

	data, ok := store.Get(path)
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestSave_RejectsDisallowedContentType(t *testing.T) {
	store := NewMem()

	_, err := store.Save(context.Background(), "LIC-123", "image/png", strings.NewReader("png"))
	require.ErrorIs(t, err, ErrInvalidContentType)
}

func TestSave_RejectsMissingName(t *testing.T) {
	store := NewMem()

	_, err := store.Save(context.Background(), "   ", "application/pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrMissingFileName)
}

func TestSave_RejectsOversizedFile(t *testing.T) {
	store := NewMem()

	big := bytes.NewReader(make([]byte, MaxFileSize+1))
	_, err := store.Save(context.Background(), "LIC-123", "image/jpeg", big)
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDiskStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDisk(dir)
	require.NoError(t, err)

	path, err := store.Save(context.Background(), "LIC-9", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/uploads/licenses/LIC-9-"))
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}
