package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"feedscribe/internal/orchestrator"
	"feedscribe/internal/textutil"
)

func newHarvestCommand(ctx *commandContext) *cobra.Command {
	var label string
	var noPersist bool
	var limit int

	cmd := &cobra.Command{
		Use:   "harvest <profile-url|user-id>",
		Short: "List every video of a creator into a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return ctx.fail(cmd, err)
			}
			return ctx.withOrchestrator(cmd, func(runCtx context.Context, orch *orchestrator.Orchestrator) error {
				result, err := orch.Harvest(runCtx, orchestrator.HarvestRequest{
					Target:  args[0],
					Label:   label,
					Persist: cfg.Harvest.Persist && !noPersist,
					Limit:   limit,
				})
				if err != nil {
					return ctx.fail(cmd, err)
				}
				return ctx.emit(cmd, result, func(out io.Writer) { renderHarvest(out, result) })
			})
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Name for the manifest and media directory (default: user id)")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "Do not write the manifest file")
	cmd.Flags().IntVar(&limit, "limit", 0, "Keep at most this many videos (0 keeps all)")
	return cmd
}

func renderHarvest(out io.Writer, result orchestrator.HarvestResult) {
	rows := make([][]string, 0, len(result.Briefs))
	for i, b := range result.Briefs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			b.ID,
			b.CreatedAt,
			textutil.TruncateBytes(b.Description, 90),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]column{{title: "#", numeric: true}, {title: "ID"}, {title: "Created"}, {title: "Description"}}, rows, false))
	}
	fmt.Fprintf(out, "Harvested %s for %s over %s (%d duplicates dropped)\n",
		plural(len(result.Briefs), "video"), result.Label, plural(result.Pages, "page"), result.Duplicates)
	if result.Manifest != "" {
		fmt.Fprintf(out, "Manifest: %s\n", result.Manifest)
	}
}
