package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"feedscribe/internal/orchestrator"
)

func newDigestCommand(ctx *commandContext) *cobra.Command {
	var req orchestrator.DigestRequest

	cmd := &cobra.Command{
		Use:   "digest <profile-url|user-id>",
		Short: "Harvest, download and analyze a creator in one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Target = args[0]
			return ctx.withOrchestrator(cmd, func(runCtx context.Context, orch *orchestrator.Orchestrator) error {
				result, err := orch.Digest(runCtx, req)
				if result.Harvest.UserID == "" && err != nil {
					return ctx.fail(cmd, err)
				}
				if emitErr := ctx.emit(cmd, result, func(out io.Writer) {
					renderHarvest(out, result.Harvest)
					fmt.Fprintln(out)
					renderDownloadOutcomes(out, result.Downloads)
					fmt.Fprintln(out)
					renderAnalysisOutcomes(out, result.Analyses)
				}); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&req.Label, "label", "l", "", "Name for the manifest and media directory (default: user id)")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Process at most this many videos (0 processes all)")
	addAnalyzeFlags(cmd, &req.Analyze)
	return cmd
}
