// Package main hosts the feedscribe CLI entrypoint and command graph.
//
// Commands are thin: each resolves configuration once, builds an
// orchestrator, runs a single operation and renders the result either as a
// table or, with --json, as a {code, data|message} envelope.
package main
