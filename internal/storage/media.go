// Package storage serves catalog media (test cover images, passage images)
// from a local directory.
package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotFound = errors.New("media not found")

// MediaStore opens media by slash-separated key.
type MediaStore interface {
	Open(key string) (io.ReadSeekCloser, time.Time, error)
}

type DirStore struct{ base string }

// NewDirStore serves files under base, which must be an existing directory.
func NewDirStore(base string) (*DirStore, error) {
	fi, err := os.Stat(base)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, errors.New(base + " is not a directory")
	}
	return &DirStore{base: base}, nil
}

func (s *DirStore) Open(key string) (io.ReadSeekCloser, time.Time, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || !fs.ValidPath(key) {
		return nil, time.Time{}, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.base, filepath.FromSlash(path.Clean(key))))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, time.Time{}, ErrNotFound
	}
	return f, fi.ModTime(), nil
}
