package preflight

import (
	"context"

	"feedscribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the filesystem, service and provider checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
		CheckDirectoryAccess("Manifest directory", cfg.Paths.ManifestDir),
		CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
		CheckDirectoryAccess("Report directory", cfg.Paths.OutputDir),
		CheckFreeSpace("Download free space", cfg.Paths.DownloadDir, cfg.Download.MinFreeGiB),
		CheckParseAPI(ctx, cfg.API.BaseURL),
	}
	results = append(results, CheckProvider(cfg, cfg.Analysis.Provider))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
