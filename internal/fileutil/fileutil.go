package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// PartialSuffix marks in-flight writes. Files carrying it are never treated as
// complete downloads.
const PartialSuffix = ".part"

// Exists reports whether path exists as a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// RemoveIfExists deletes each path, ignoring paths that are already absent.
// All paths are attempted; the errors are joined.
func RemoveIfExists(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StreamToFile copies src into dst through a sibling ".part" file and renames
// it into place once the copy completes. On any error the partial file is
// removed, so dst either holds the full payload or does not exist.
func StreamToFile(dst string, src io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create parent directory: %w", err)
	}
	partial := dst + PartialSuffix
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}

	written, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(partial)
		if copyErr != nil {
			return written, copyErr
		}
		return written, closeErr
	}
	if err := os.Rename(partial, dst); err != nil {
		_ = os.Remove(partial)
		return written, err
	}
	return written, nil
}
