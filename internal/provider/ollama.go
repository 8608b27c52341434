package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"feedscribe/internal/worker"
)

// StdinRunner runs a command with stdin and returns its standard output.
type StdinRunner func(ctx context.Context, stdin string, name string, args ...string) (string, error)

func execStdinRunner(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ollamaBackend runs `ollama run <model>` with the prompt on stdin. Runs are
// confined to the shared worker so model processes never overlap.
type ollamaBackend struct {
	binary string
	model  string
	runner StdinRunner
	worker *worker.Worker
}

func (b *ollamaBackend) kind() string { return "ollama" }

func (b *ollamaBackend) prompt(text string) string { return LocalPrompt(text) }

func (b *ollamaBackend) complete(ctx context.Context, prompt string) (string, error) {
	out, err := worker.Call(ctx, b.worker, "ollama run "+b.model, func(ctx context.Context) (string, error) {
		return b.runner(ctx, prompt, b.binary, "run", b.model)
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("ollama returned empty output")
	}
	return out, nil
}
