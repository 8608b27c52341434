// Package preflight provides readiness checks for the binaries, directories
// and services feedscribe depends on.
//
// The doctor command runs RunAll and CheckSystemDeps and prints the results.
// The orchestrator calls RequireFreeSpace before starting a download run so a
// nearly full disk fails fast instead of leaving a trail of partial files.
package preflight
