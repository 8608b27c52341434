package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"feedscribe/internal/config"
	"feedscribe/internal/logging"
	"feedscribe/internal/orchestrator"
	"feedscribe/internal/services"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// baseLogger writes to stderr and the log directory. A logger that cannot open
// its file falls back to stderr only.
func (c *commandContext) baseLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			logger, _ = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		}
		if logger == nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// runContext stamps a fresh correlation id onto the command's context.
func (c *commandContext) runContext(cmd *cobra.Command) (context.Context, *slog.Logger) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	ctx = services.WithRequestID(ctx, id)
	logger := c.baseLogger().With(logging.String(logging.FieldCorrelationID, id))
	return ctx, logger
}

// withOrchestrator builds an orchestrator for one command invocation.
func (c *commandContext) withOrchestrator(cmd *cobra.Command, fn func(context.Context, *orchestrator.Orchestrator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return c.fail(cmd, err)
	}
	ctx, logger := c.runContext(cmd)

	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if !c.jsonOutput() && isTerminal(cmd.ErrOrStderr()) {
		opts = append(opts, orchestrator.WithProgress(newProgressFunc(cmd.ErrOrStderr())))
	}
	orch, err := orchestrator.New(cfg, opts...)
	if err != nil {
		return c.fail(cmd, err)
	}
	defer orch.Close()
	return fn(ctx, orch)
}

// emit renders data as a table (render) or as the JSON success envelope.
func (c *commandContext) emit(cmd *cobra.Command, data any, render func(io.Writer)) error {
	if c.jsonOutput() {
		return writeJSON(cmd, envelope{Code: codeOK, Data: data})
	}
	render(cmd.OutOrStdout())
	return nil
}

// fail writes the JSON error envelope when --json is set and returns err.
func (c *commandContext) fail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if c.jsonOutput() {
		_ = writeJSON(cmd, envelope{Code: errorCode(err), Message: err.Error()})
	}
	return err
}

// skipConfigLoad marks commands that load (or write) the config themselves.
const skipConfigLoad = "skipConfigLoad"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	return shouldColorize(w)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
