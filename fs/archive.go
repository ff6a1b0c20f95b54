// Package fs provides file-based storage for original documents.
package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/harvest"
)

// Ensure Archive implements harvest.Archive at compile time.
var _ harvest.Archive = (*Archive)(nil)

// Archive stores files under a base directory. Files appear at their final
// path atomically: they are written to a temporary file in the destination
// directory, then renamed.
type Archive struct {
	baseDir string
}

// NewArchive creates a new Archive rooted at baseDir.
func NewArchive(baseDir string) *Archive {
	return &Archive{baseDir: baseDir}
}

// Path returns the local path of key.
func (a *Archive) Path(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || path.IsAbs(key) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", harvest.Errorf(harvest.EINVALID, "invalid archive key: %q", key)
	}
	return filepath.Join(a.baseDir, filepath.FromSlash(clean)), nil
}

// ArchiveFile stores the file at src under key. Keys are content addressed,
// so an existing file at the destination is kept as is.
func (a *Archive) ArchiveFile(ctx context.Context, src, key string, move bool) error {
	dest, err := a.Path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "create archive directory: %v", err)
	}

	if _, err := os.Stat(dest); err == nil {
		if move {
			return removeSource(src)
		}
		return nil
	}

	if move {
		if err := os.Rename(src, dest); err == nil {
			return nil
		}
	}

	if err := copyAtomic(src, dest); err != nil {
		return err
	}
	if move {
		return removeSource(src)
	}
	return nil
}

func copyAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "open source: %v", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".archive-*")
	if err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "create temp file: %v", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return harvest.WrapError(harvest.ESTORAGE, err, "copy: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return harvest.WrapError(harvest.ESTORAGE, err, "sync: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "close: %v", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "chmod: %v", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "rename: %v", err)
	}
	return nil
}

func removeSource(src string) error {
	if err := os.Remove(src); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return harvest.WrapError(harvest.ESTORAGE, err, "remove source: %v", err)
	}
	return nil
}
