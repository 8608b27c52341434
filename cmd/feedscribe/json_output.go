package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"feedscribe/internal/orchestrator"
	"feedscribe/internal/services"
)

const codeOK = 200

// envelope is the --json output shape. Exactly one of Data and Message is set.
type envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorCode maps failure kinds to HTTP-style status codes.
func errorCode(err error) int {
	if errors.Is(err, orchestrator.ErrLocked) {
		return 409
	}
	switch services.FailureKind(err) {
	case "validation":
		return 400
	case "not_found":
		return 404
	case "canceled":
		return 499
	case "timeout":
		return 504
	case "external_tool", "transient":
		return 502
	default:
		return 500
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
