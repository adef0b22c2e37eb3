// Package blobstore persists doctor license documents. It defines the Store
// interface, a disk implementation used in production and an in-memory one
// for tests.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize caps license uploads at 10 MB, matching the legacy API's body
// limit.
const MaxFileSize = 10 * 1024 * 1024

// AllowedContentTypes lists the accepted license document MIME types.
var AllowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
}

// Store saves a document and returns the path under which it can be served.
type Store interface {
	Save(ctx context.Context, baseName, contentType string, r io.Reader) (string, error)
}

// DiskStore writes documents below a root directory with collision-free
// names.
type DiskStore struct {
	root string
	now  func() time.Time
}

// NewDisk builds a disk store rooted at dir, creating it if needed.
func NewDisk(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: dir, now: time.Now}, nil
}

func (s *DiskStore) Save(ctx context.Context, baseName, contentType string, r io.Reader) (string, error) {
	name, err := fileName(baseName, contentType, s.now())
	if err != nil {
		return "", err
	}

	data, err := readBounded(r)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write license document: %w", err)
	}
	return "/uploads/licenses/" + name, nil
}

// MemStore keeps documents in memory for tests.
type MemStore struct {
	mu    sync.Mutex
	now   func() time.Time
	blobs map[string][]byte
}

func NewMem() *MemStore {
	return &MemStore{now: time.Now, blobs: make(map[string][]byte)}
}

// WithClock overrides the clock used for generated names.
func (s *MemStore) WithClock(now func() time.Time) *MemStore {
	s.now = now
	return s
}

func (s *MemStore) Save(ctx context.Context, baseName, contentType string, r io.Reader) (string, error) {
	name, err := fileName(baseName, contentType, s.now())
	if err != nil {
		return "", err
	}
	data, err := readBounded(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs["/uploads/licenses/"+name] = data
	return "/uploads/licenses/" + name, nil
}

// Get returns a stored document, or false when absent.
func (s *MemStore) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[path]
	return b, ok
}

func fileName(baseName, contentType string, now time.Time) (string, error) {
	base := strings.TrimSpace(baseName)
	if base == "" {
		return "", ErrMissingFileName
	}
	ext, ok := AllowedContentTypes[contentType]
	if !ok {
		return "", ErrInvalidContentType
	}
	// License-number-based name plus timestamp keeps files traceable and
	// collision-free, like the legacy upload handler did.
	return fmt.Sprintf("%s-%d%s", base, now.UnixMilli(), ext), nil
}

func readBounded(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if n > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return buf.Bytes(), nil
}
