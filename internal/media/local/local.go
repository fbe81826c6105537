// Package local stores uploaded images as files in a single directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sakif/travel-journal/internal/media"
)

var _ media.Store = (*Store)(nil)

type Store struct {
	root string
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local: creating upload dir %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the directory files are stored in.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) path(name string) (string, error) {
	if !media.ValidName(name) {
		return "", media.ErrInvalidName
	}
	return filepath.Join(s.root, name), nil
}

// Save writes r to a new file. An existing file with the same name is an
// error; names come from media.NewFilename and never repeat.
func (s *Store) Save(ctx context.Context, name string, r io.Reader, _ int64, _ string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("local: creating %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("local: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("local: closing %s: %w", name, err)
	}
	return nil
}

func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, media.ErrNotExist
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, media.ErrNotExist
		}
		return nil, fmt.Errorf("local: opening %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("local: stat %s: %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, media.ErrNotExist
	}
	return f, nil
}

// Remove deletes the file. A missing file (or a name that can't exist in
// the store) reports false with no error.
func (s *Store) Remove(_ context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, nil
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("local: removing %s: %w", name, err)
	}
	return true, nil
}
