package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"feedscribe/internal/download"
	"feedscribe/internal/orchestrator"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var manifest string
	var limit int

	cmd := &cobra.Command{
		Use:   "download [label]",
		Short: "Download every video listed in a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := orchestrator.DownloadRequest{Manifest: manifest, Limit: limit}
			if len(args) == 1 {
				req.Label = args[0]
			}
			return ctx.withOrchestrator(cmd, func(runCtx context.Context, orch *orchestrator.Orchestrator) error {
				result, err := orch.Download(runCtx, req)
				if result.Outcomes == nil && err != nil {
					return ctx.fail(cmd, err)
				}
				if emitErr := ctx.emit(cmd, result.Outcomes, func(out io.Writer) {
					renderDownloadOutcomes(out, result.Outcomes)
					fmt.Fprintf(out, "Media directory: %s\n", result.Dir)
				}); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "Manifest path (default: derived from label)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Download at most this many videos (0 downloads all)")
	return cmd
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <share-text|url>",
		Short: "Download a single video from share text or a link",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shareText := strings.Join(args, " ")
			return ctx.withOrchestrator(cmd, func(runCtx context.Context, orch *orchestrator.Orchestrator) error {
				outcome, err := orch.FetchOne(runCtx, shareText)
				if err != nil {
					return ctx.fail(cmd, err)
				}
				if outcome.Status == download.StatusFail {
					return ctx.fail(cmd, fmt.Errorf("download %s failed: %s", outcome.ID, outcome.Reason))
				}
				return ctx.emit(cmd, outcome, func(out io.Writer) {
					renderDownloadOutcomes(out, []download.Outcome{outcome})
				})
			})
		},
	}
}

func renderDownloadOutcomes(out io.Writer, outcomes []download.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		size := ""
		if o.Bytes > 0 {
			size = humanize.IBytes(uint64(o.Bytes))
		}
		detail := o.File
		if o.Status == download.StatusFail {
			detail = o.Reason
		}
		rows = append(rows, []string{o.ID, string(o.Status), size, detail})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]column{{title: "ID"}, {title: "Status", status: true}, {title: "Size", numeric: true}, {title: "File / Reason"}}, rows, shouldColorize(out)))
	}
	s := download.Summarize(outcomes)
	fmt.Fprintf(out, "Downloaded %d, already present %d, failed %d\n", s.Success, s.Exists, s.Fail)
}
