package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"feedscribe/internal/config"
)

type providerView struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Model      string `json:"model"`
	Endpoint   string `json:"endpoint"`
	APIKeyEnv  string `json:"api_key_env,omitempty"`
	Credential bool   `json:"credential"`
	Selected   bool   `json:"selected"`
	Fallback   bool   `json:"fallback"`
}

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured summary providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return ctx.fail(cmd, err)
			}
			views := providerViews(cfg)
			return ctx.emit(cmd, views, func(out io.Writer) {
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					credential := "n/a"
					if v.Kind != config.ProviderKindOllama {
						credential = yesNo(v.Credential)
					}
					role := ""
					switch {
					case v.Selected:
						role = "selected"
					case v.Fallback:
						role = "fallback"
					}
					rows = append(rows, []string{v.Name, v.Kind, v.Model, credential, role})
				}
				fmt.Fprintln(out, renderTable([]column{{title: "Name"}, {title: "Kind"}, {title: "Model"}, {title: "Credential"}, {title: "Role"}}, rows, false))
			})
		},
	}
}

func providerViews(cfg *config.Config) []providerView {
	names := cfg.ProviderNames()
	views := make([]providerView, 0, len(names))
	for _, name := range names {
		p, _ := cfg.LookupProvider(name)
		views = append(views, providerView{
			Name:       name,
			Kind:       p.Kind,
			Model:      p.Model,
			Endpoint:   p.Endpoint,
			APIKeyEnv:  p.APIKeyEnv,
			Credential: p.APIKey != "",
			Selected:   name == cfg.Analysis.Provider,
			Fallback:   name == cfg.Analysis.DefaultProvider,
		})
	}
	return views
}
