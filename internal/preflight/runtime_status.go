package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"feedscribe/internal/services"
)

// FreeBytes returns the space available to unprivileged users on the
// filesystem holding path. Missing trailing components are walked up to the
// nearest existing ancestor so the check works before directories exist.
func FreeBytes(path string) (uint64, error) {
	target, err := existingAncestor(path)
	if err != nil {
		return 0, err
	}
	var st unix.Statfs_t
	if err := unix.Statfs(target, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", target, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil //nolint:gosec
}

// RequireFreeSpace fails with services.ErrValidation when the filesystem
// holding path has less than minGiB available.
func RequireFreeSpace(path string, minGiB int) error {
	if minGiB <= 0 {
		return nil
	}
	free, err := FreeBytes(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "disk space", "Could not read free space", err)
	}
	if free < uint64(minGiB)<<30 {
		return services.Wrap(services.ErrValidation, "download", "disk space",
			fmt.Sprintf("Only %s free under %s, need %d GiB", humanize.IBytes(free), path, minGiB), nil)
	}
	return nil
}

func existingAncestor(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		current = parent
	}
}
