// Package provider turns transcript text into a model-generated summary.
//
// A Provider wraps one backend (a local Ollama model run as a subprocess, the
// Gemini content API, or an OpenAI-style chat completion API) in a uniform
// retry envelope: a bounded number of attempts with a fixed, cancellable wait
// between them. Summarize never returns an error value directly. Failures come
// back as a Result whose Err is set and whose Text holds a short placeholder,
// so batch callers can keep going while single-item callers can surface Err.
//
// Backends are selected by name from the [providers] table in config; an
// unknown name falls back to the configured default with a warning.
package provider
