package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"feedscribe/internal/config"
	"feedscribe/internal/media"
	"feedscribe/internal/orchestrator"
	"feedscribe/internal/services"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts orchestrator.AnalyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [video|directory]",
		Short: "Transcribe and summarize a video, or every video in a directory",
		Long: "Analyze a single file end to end, or walk a directory (default: the download root)\n" +
			"and analyze every video that has no report yet. Audio scratch files and source\n" +
			"videos are removed after each run unless --keep-source is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			single := false
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return ctx.fail(cmd, err)
				}
				info, err := os.Stat(expanded)
				switch {
				case errors.Is(err, fs.ErrNotExist):
					return ctx.fail(cmd, services.Wrap(services.ErrNotFound, "analyze", "stat input", "Input not found: "+expanded, nil))
				case err != nil:
					return ctx.fail(cmd, services.Wrap(services.ErrValidation, "analyze", "stat input", "Cannot read input "+expanded, err))
				}
				target = expanded
				single = !info.IsDir()
			}
			return ctx.withOrchestrator(cmd, func(runCtx context.Context, orch *orchestrator.Orchestrator) error {
				if single {
					return analyzeOne(runCtx, cmd, ctx, orch, target, opts)
				}
				outcomes, err := orch.AnalyzeDirectory(runCtx, target, opts)
				if outcomes == nil && err != nil {
					return ctx.fail(cmd, err)
				}
				if emitErr := ctx.emit(cmd, outcomes, func(out io.Writer) { renderAnalysisOutcomes(out, outcomes) }); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}

	addAnalyzeFlags(cmd, &opts)
	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command, opts *orchestrator.AnalyzeOptions) {
	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "", "Provider name (default: analysis.provider)")
	cmd.Flags().BoolVar(&opts.RetainSource, "keep-source", false, "Keep source videos after their report is written")
}

func analyzeOne(runCtx context.Context, cmd *cobra.Command, ctx *commandContext, orch *orchestrator.Orchestrator, path string, opts orchestrator.AnalyzeOptions) error {
	report, err := orch.AnalyzeOne(runCtx, path, opts)
	if err != nil {
		return ctx.fail(cmd, err)
	}
	payload := map[string]any{
		"base_name":   report.BaseName,
		"provider":    report.Provider,
		"transcript":  report.Transcript,
		"analysis":    report.Analysis,
		"output_path": report.OutputPath,
		"degraded":    report.AnalysisErr != nil,
	}
	return ctx.emit(cmd, payload, func(out io.Writer) {
		fmt.Fprintln(out, report.Analysis)
		fmt.Fprintln(out)
		if report.AnalysisErr != nil {
			fmt.Fprintf(out, "Warning: %v\n", report.AnalysisErr)
		}
		fmt.Fprintf(out, "Report: %s\n", report.OutputPath)
	})
}

func renderAnalysisOutcomes(out io.Writer, outcomes []media.Outcome) {
	rows := make([][]string, 0, len(outcomes))
	counts := map[string]int{}
	for _, o := range outcomes {
		counts[o.Status]++
		detail := o.File
		if o.Status == media.StatusFail || o.Status == media.StatusDegraded {
			detail = o.Reason
		}
		rows = append(rows, []string{o.ID, o.Status, detail})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]column{{title: "Video"}, {title: "Status", status: true}, {title: "Report / Reason"}}, rows, shouldColorize(out)))
	}
	fmt.Fprintf(out, "Analyzed %d, skipped %d, degraded %d, failed %d\n",
		counts[media.StatusSuccess], counts[media.StatusSkipped], counts[media.StatusDegraded], counts[media.StatusFail])
}
