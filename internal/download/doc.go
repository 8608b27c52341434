// Package download fetches manifest entries to disk one at a time.
//
// Each VideoBrief maps to a deterministic file name. Existing targets are
// reported as "exists" without any network traffic, so re-running against the
// same manifest is free. New targets are fetched after a courtesy jitter
// under a bounded retry policy and streamed through a ".part" file, so an
// interrupted transfer never leaves a file at the target path.
package download
