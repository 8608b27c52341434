// Package parseapi is the HTTP client for the self-hosted parsing API server
// that lists creator feeds, resolves share links, and returns signed media
// URLs. It implements catalog.Source and the resolver interfaces consumed by
// the downloader and orchestrator, and streams media bytes with the platform
// headers the CDN expects.
//
// All responses share the envelope {code, router, data}; a code other than 200
// is treated as an upstream failure.
package parseapi
