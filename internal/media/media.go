// Package media defines where uploaded story images live.
//
// A Store holds opaque, flat names (no directories). Two backends exist:
// local (a directory on disk) and minio (an S3-compatible bucket). The
// service layer picks the name and builds the public URL; stores only
// move bytes.
package media

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotExist is returned by Store.Open when no object has the given name.
var ErrNotExist = errors.New("media: object does not exist")

// ErrInvalidName is returned for names that could escape the store root.
var ErrInvalidName = errors.New("media: invalid object name")

// Store is the image storage backend.
type Store interface {
	// Save writes r under name. size is -1 when unknown.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Open returns the object's content. Returns ErrNotExist if absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Remove deletes the object and reports whether it existed.
	Remove(ctx context.Context, name string) (bool, error)
}

const maxExtLen = 8

// NewFilename returns a collision-resistant name for an upload, keeping the
// original extension (lowercased) when it looks like a real one.
func NewFilename(original string) string {
	return uuid.New().String() + sanitizeExt(filepath.Ext(original))
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if len(ext) < 2 || len(ext) > maxExtLen+1 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// FilenameFromURL returns the final path segment of an image URL, or "" if
// there isn't one. Query strings and fragments are ignored.
func FilenameFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// ValidName reports whether name is a single safe path segment.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
