// Package upload keeps uploaded source files on local disk.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrOutsideRoot is returned for paths that do not belong to the store.
var ErrOutsideRoot = errors.New("upload: path outside upload directory")

// Store writes uploads under root/<owner>/<uuid>-<filename>.
type Store struct {
	root  string
	newID func() string
}

// New creates the upload directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: abs, newID: uuid.NewString}, nil
}

// Root returns the absolute upload directory.
func (s *Store) Root() string {
	return s.root
}

// Save copies content to a new file and returns its path.
// A partially written file is removed on error.
func (s *Store) Save(ctx context.Context, owner, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err //nolint:wrapcheck // context error
	}

	dir := filepath.Join(s.root, safeSegment(owner))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create owner dir: %w", err)
	}

	path := filepath.Join(dir, s.newID()+"-"+safeSegment(filepath.Base(filename)))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// Open opens a stored upload for reading.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path confined to root
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return f, nil
}

// Remove deletes a stored upload. Missing files are ignored.
func (s *Store) Remove(_ context.Context, path string) error {
	if err := s.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (s *Store) contains(path string) error {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(rel) {
		return fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	return nil
}

// safeSegment maps s to a single path element of [A-Za-z0-9._-].
func safeSegment(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
	if out == "" || strings.Trim(out, ".") == "" {
		return "_"
	}
	return out
}
