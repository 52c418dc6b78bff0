// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package buildcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/build"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

type reportParams struct {
	cli.JSONOutput
}

// reportCommand returns the "build report" subcommand.
func reportCommand() *cli.Command {
	var params reportParams

	return &cli.Command{
		Name:    "report",
		Summary: "Show the record of a finished build",
		Usage:   "nmbuild build report <output-dir> [flags]",
		Description: `Decode the build record a successful build writes under
<output-dir>/logs and print its summary: game metadata, per-stage
durations, and size totals.`,
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one output directory argument")
			}

			record, err := build.ReadRecord(args[0])
			if err != nil {
				return cli.NotFound("reading build record: %v", err)
			}

			if done, err := params.EmitJSON(record); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(writer, "Game:\t%s %s\n", record.GameName, record.Version)
			fmt.Fprintf(writer, "Platform:\t%s (%s build #%d)\n", record.Platform, record.BuildType, record.BuildNumber)
			fmt.Fprintf(writer, "Started:\t%s\n", record.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(writer, "Duration:\t%s\n", sizereport.FormatDuration(record.Duration))
			fmt.Fprintf(writer, "Scripts:\t%d compiled\n", record.ScriptsCompiled)
			fmt.Fprintf(writer, "Assets:\t%d processed\n", record.AssetsProcessed)
			fmt.Fprintf(writer, "Total size:\t%s\n", sizereport.FormatBytes(record.TotalSize))
			if record.CompressedSize > 0 {
				fmt.Fprintf(writer, "Pack size:\t%s\n", sizereport.FormatBytes(record.CompressedSize))
			}
			writer.Flush()

			fmt.Println("\nStages:")
			stageWriter := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, step := range record.Steps {
				status := "ok"
				if !step.Success {
					status = "failed: " + step.Error
				}
				fmt.Fprintf(stageWriter, "  %s\t%s\t%s\n", step.Name, sizereport.FormatDuration(step.Duration), status)
			}
			stageWriter.Flush()

			if len(record.Warnings) > 0 {
				fmt.Println("\nWarnings:")
				for _, warning := range record.Warnings {
					fmt.Printf("  %s\n", warning)
				}
			}
			return nil
		},
	}
}
