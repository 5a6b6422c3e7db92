package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one file per draft under a root directory
type FileStore struct {
	dir string
	ext string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted at it
func NewFileStore(dir, ext string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create draft directory: %w", err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FileStore{dir: dir, ext: ext}, nil
}

// Dir returns the root directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Read returns the draft text, or "" if the file does not exist
func (s *FileStore) Read(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.PathFor(id))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading draft %s: %w", id, err)
	}
	return string(data), nil
}

// Write replaces the draft file. The new content is written to a temporary
// file in the same directory and renamed over the old one.
func (s *FileStore) Write(ctx context.Context, id, text string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".draft-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file for draft %s: %w", id, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing draft %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing draft %s: %w", id, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("error writing draft %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.PathFor(id)); err != nil {
		return fmt.Errorf("error replacing draft %s: %w", id, err)
	}
	return nil
}

// PathFor converts a document identifier to its file path
func (s *FileStore) PathFor(id string) string {
	return filepath.Join(s.dir, id+s.ext)
}

// IDFromPath converts a file path back to a document identifier.
// ok is false for files that are not drafts of this store.
func (s *FileStore) IDFromPath(path string) (id string, ok bool) {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || filepath.Dir(rel) != "." {
		return "", false
	}
	if s.ext != "" && !strings.HasSuffix(rel, s.ext) {
		return "", false
	}
	id = strings.TrimSuffix(rel, s.ext)
	if ValidateID(id) != nil {
		return "", false
	}
	return id, true
}
