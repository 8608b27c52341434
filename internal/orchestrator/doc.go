// Package orchestrator wires the catalog, download and media packages into the
// operations the CLI exposes: Harvest, Download, FetchOne, AnalyzeDirectory,
// AnalyzeOne and Digest.
//
// Every operation that writes under the download root holds an advisory file
// lock on it for its whole duration, so two feedscribe processes never stream
// into or delete from the same directory at once. Items run strictly in
// sequence; blocking subprocess work is confined to a single worker
// goroutine shared by the transcriber and local providers.
package orchestrator
