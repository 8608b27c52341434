package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"feedscribe/internal/media/ffprobe"
)

// ResolveFFprobePath picks the ffprobe that belongs to the configured ffmpeg.
// A sibling binary next to an explicit ffmpeg path wins; otherwise "ffprobe"
// is resolved from PATH.
func ResolveFFprobePath(ffmpegBinary string) string {
	candidate := ffprobe.BinaryFor(ffmpegBinary)
	if strings.ContainsRune(candidate, filepath.Separator) {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate
		}
	}
	if resolved, err := exec.LookPath("ffprobe"); err == nil {
		return resolved
	}
	return "ffprobe"
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
