// Package config loads, normalizes, and validates feedscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves provider credentials from the
// environment variables each provider entry names. The Config type centralizes
// every knob the CLI and pipeline need, so download roots, pacing windows,
// retry budgets, and model backends are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
