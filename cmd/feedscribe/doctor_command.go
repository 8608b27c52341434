package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"feedscribe/internal/deps"
	"feedscribe/internal/preflight"
)

type doctorReport struct {
	Dependencies []deps.Status      `json:"dependencies"`
	Checks       []preflight.Result `json:"checks"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external binaries, directories and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return ctx.fail(cmd, err)
			}
			report := doctorReport{
				Dependencies: preflight.CheckSystemDeps(cfg),
				Checks:       preflight.RunAll(cmd.Context(), cfg),
			}
			if err := ctx.emit(cmd, report, func(out io.Writer) { renderDoctor(out, report, shouldColorize(out)) }); err != nil {
				return err
			}
			if len(deps.MissingRequired(report.Dependencies)) > 0 || len(preflight.Failed(report.Checks)) > 0 {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}

func renderDoctor(out io.Writer, report doctorReport, colorize bool) {
	fmt.Fprintln(out, sectionTitle("Dependencies", colorize))
	for _, d := range report.Dependencies {
		switch {
		case d.Available:
			fmt.Fprintln(out, checkLine(d.Name, toneGood, d.Command, colorize))
		case d.Optional:
			fmt.Fprintln(out, checkLine(d.Name, toneWarn, d.Detail+" (optional)", colorize))
		default:
			fmt.Fprintln(out, checkLine(d.Name, toneBad, d.Detail, colorize))
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionTitle("Checks", colorize))
	for _, r := range report.Checks {
		t := toneGood
		if !r.Passed {
			t = toneBad
		}
		fmt.Fprintln(out, checkLine(r.Name, t, r.Detail, colorize))
	}
}
