package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"feedscribe/internal/config"
	"feedscribe/internal/fileutil"
	"feedscribe/internal/services"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(ctx), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var (
		path      string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(path)
			if err != nil {
				return ctx.fail(cmd, err)
			}
			if fileutil.Exists(target) && !overwrite {
				return ctx.fail(cmd, services.Wrap(services.ErrValidation, "config", "init",
					fmt.Sprintf("%s already exists (pass --overwrite to replace it)", target), nil))
			}
			if err := config.CreateSample(target); err != nil {
				return ctx.fail(cmd, services.Wrap(services.ErrConfiguration, "config", "init", "write sample", err))
			}
			return ctx.emit(cmd, map[string]string{"path": target}, func(out io.Writer) {
				fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
				fmt.Fprintln(out, "Point api.base_url at your parsing API server. Remote providers read their key from the env var named by api_key_env.")
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Where to write the file (default ~/.config/feedscribe/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(path string) (string, error) {
	if path = strings.TrimSpace(path); path != "" {
		return config.ExpandPath(path)
	}
	return config.DefaultConfigPath()
}

type configSummary struct {
	Path     string            `json:"path"`
	Exists   bool              `json:"exists"`
	Provider string            `json:"provider"`
	Dirs     map[string]string `json:"dirs"`
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load, validate and create the configured directories",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(*ctx.configFlag))
			if err != nil {
				return ctx.fail(cmd, services.Wrap(services.ErrConfiguration, "config", "validate", "load", err))
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return ctx.fail(cmd, services.Wrap(services.ErrConfiguration, "config", "validate", "create directories", err))
			}
			summary := configSummary{
				Path:     resolved,
				Exists:   exists,
				Provider: cfg.Analysis.Provider,
				Dirs: map[string]string{
					"downloads": cfg.Paths.DownloadDir,
					"manifests": cfg.Paths.ManifestDir,
					"audio":     cfg.Paths.AudioDir,
					"reports":   cfg.Paths.OutputDir,
				},
			}
			if _, ok := cfg.LookupProvider(summary.Provider); !ok {
				return ctx.fail(cmd, services.Wrap(services.ErrConfiguration, "config", "validate",
					"selected provider not defined", errors.New(summary.Provider)))
			}
			return ctx.emit(cmd, summary, func(out io.Writer) {
				fmt.Fprintf(out, "Config path: %s\n", resolved)
				if !exists {
					fmt.Fprintln(out, "No file found; built-in defaults were used")
				}
				fmt.Fprintf(out, "Provider:    %s\n", summary.Provider)
				fmt.Fprintf(out, "Downloads:   %s\n", summary.Dirs["downloads"])
				fmt.Fprintf(out, "Reports:     %s\n", summary.Dirs["reports"])
				fmt.Fprintln(out, "Configuration valid")
			})
		},
	}
}
