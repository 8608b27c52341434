// Package catalog walks a creator's cursor-paginated feed into VideoBrief
// records and persists them as an append-only NDJSON manifest.
//
// Key types:
//   - VideoBrief: minimal pre-download metadata for one video
//   - Source: the page-fetching collaborator (see services/parseapi)
//   - Harvester: pagination loop with pacing, dedupe, and termination rules
//   - ManifestWriter / ReadManifest: crash-resumable manifest persistence
package catalog
