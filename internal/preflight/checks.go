package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"feedscribe/internal/config"
	"feedscribe/internal/deps"
)

// CheckParseAPI verifies that the parsing API server answers HTTP requests.
// Any response below 500 counts as reachable; route-level auth and signing
// failures surface on the first real call.
func CheckParseAPI(ctx context.Context, baseURL string) Result {
	const name = "Parse API"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base_url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", base)}
}

// CheckProvider verifies that the named provider can be constructed: remote
// providers need their credential in the environment, local ones their binary.
func CheckProvider(cfg *config.Config, providerName string) Result {
	name := "Provider " + providerName
	entry, ok := cfg.LookupProvider(providerName)
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("not configured (falls back to %s)", cfg.Analysis.DefaultProvider)}
	}
	switch entry.Kind {
	case config.ProviderKindOllama:
		binary := entry.Endpoint
		if binary == "" {
			binary = "ollama"
		}
		if _, err := exec.LookPath(binary); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s via %s", entry.Model, binary)}
	default:
		if strings.TrimSpace(entry.APIKey) == "" {
			return Result{Name: name, Detail: fmt.Sprintf("credential missing (set %s)", entry.APIKeyEnv)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s credential present", entry.Kind)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minGiB available. A non-positive minimum only reports the free space.
func CheckFreeSpace(name, path string, minGiB int) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free", humanize.IBytes(free))
	if minGiB > 0 && free < uint64(minGiB)<<30 {
		return Result{Name: name, Detail: fmt.Sprintf("%s, below %d GiB minimum", detail, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries for the given config. The
// ollama binary is only required when the selected provider runs locally.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	ffmpeg := cfg.FFmpegBinary()
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for audio extraction",
		},
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobePath(ffmpeg),
			Description: "Required for audio stream selection",
		},
		{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX transcription",
		},
	}

	ollama := deps.Requirement{
		Name:        "Ollama",
		Command:     "ollama",
		Description: "Runs local summary models",
		Optional:    true,
	}
	if entry, ok := cfg.LookupProvider(cfg.Analysis.Provider); ok && entry.Kind == config.ProviderKindOllama {
		ollama.Optional = false
		if entry.Endpoint != "" {
			ollama.Command = entry.Endpoint
		}
	}
	requirements = append(requirements, ollama)
	return deps.CheckBinaries(requirements)
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (server unreachable)"
	}
	return err.Error()
}
