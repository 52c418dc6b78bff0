// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildcmd implements the "nmbuild build", "nmbuild validate",
// and "nmbuild estimate" CLI commands.
//
// A build runs the full six-stage pipeline. On a terminal, progress is
// rendered with an interactive stage list and progress bar; when
// stdout is piped (CI, scripts) the pipeline's events are emitted as
// structured log lines instead. Either way the process exits 0 on
// success, 1 on failure, and 130 on cancellation.
package buildcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/build"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

// Command returns the "build" command with its "report" subcommand.
func Command() *cli.Command {
	var flags buildFlags
	var jsonOut bool
	var plain bool
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "build",
		Summary: "Build a project into a distributable runtime bundle",
		Usage:   "nmbuild build [project] [flags]",
		Description: `Run the build pipeline: validate the project, compile scripts,
process assets, pack resources into .nmres archives, lay out the
platform launcher, and verify the result.

The project directory defaults to the current directory. All output is
staged under <output>/.staging and promoted atomically, so a failed
build never damages a previous good one.

Settings come from nmbuild.yaml (--config or the NMBUILD_CONFIG
environment variable) with any flag set on the command line taking
precedence.`,
		Examples: []cli.Example{
			{
				Description: "Build the current directory with defaults",
				Command:     "nmbuild build",
			},
			{
				Description: "Release build with encrypted, maximally compressed packs",
				Command:     "nmbuild build mygame -o dist --compression maximum --encrypt --encryption-key s3cret",
			},
			{
				Description: "Build with English and Russian language packs",
				Command:     "nmbuild build mygame --language en --language ru --default-language en",
			},
			{
				Description: "Show the record of a finished build",
				Command:     "nmbuild build report dist",
			},
		},
		Subcommands: []*cli.Command{reportCommand()},
		Flags: func() *pflag.FlagSet {
			flagSet = flags.register("build")
			flagSet.BoolVar(&jsonOut, "json", false, "print the final result as JSON")
			flagSet.BoolVar(&plain, "plain", false, "log events instead of the interactive progress display")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			project := ""
			if len(args) == 1 {
				project = args[0]
			}

			cfg, err := flags.resolve(flagSet, project)
			if err != nil {
				return err
			}

			system := build.NewSystem()
			handle, err := system.Start(ctx, cfg)
			if err != nil {
				return cli.Validation("%v", err)
			}

			var result build.Result
			if !plain && !jsonOut && term.IsTerminal(int(os.Stdout.Fd())) {
				result, err = runInteractive(handle)
			} else {
				result, err = runPlain(handle, logger)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				if err := cli.WriteJSON(result); err != nil {
					return err
				}
			} else {
				printResult(os.Stdout, result)
			}

			switch {
			case result.Cancelled:
				return &cli.ExitError{Code: 130}
			case !result.Success:
				return &cli.ExitError{Code: 1}
			default:
				return nil
			}
		},
	}
}

// runInteractive drains the build's events through the bubbletea
// progress display. The model cancels the build on ctrl+c and quits
// only after the pipeline publishes its final result, so staging
// cleanup always finishes before the terminal is restored.
func runInteractive(handle *build.Build) (build.Result, error) {
	model := newBuildModel(handle)
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		// The display failed, not the build. Cancel and collect the
		// result so the pipeline goroutine is not left running.
		handle.Cancel()
		go drain(handle)
		return handle.Wait(), fmt.Errorf("progress display: %w", err)
	}
	return final.(buildModel).result, nil
}

// runPlain drains the build's events as structured log lines. Progress
// snapshots are skipped; stage boundaries and pipeline logs carry the
// useful signal for non-interactive consumers.
func runPlain(handle *build.Build, logger *slog.Logger) (build.Result, error) {
	for event := range handle.Events() {
		switch event.Kind {
		case build.EventLog:
			logger.Log(context.Background(), event.Level, event.Message)
		case build.EventStageStarted:
			logger.Info("stage started", "stage", event.Stage)
		case build.EventStageFinished:
			if event.Step.Success {
				logger.Info("stage finished", "stage", event.Stage, "duration", event.Step.Duration)
			} else {
				logger.Error("stage failed", "stage", event.Stage, "error", event.Step.Error)
			}
		}
	}
	return handle.Wait(), nil
}

// drain discards remaining events so a cancelled pipeline can publish
// its terminal event and exit.
func drain(handle *build.Build) {
	for range handle.Events() {
	}
}

// printResult writes the human-readable build summary.
func printResult(w *os.File, result build.Result) {
	switch {
	case result.Cancelled:
		fmt.Fprintln(w, "Build cancelled.")
	case !result.Success:
		fmt.Fprintf(w, "Build failed: %s\n", result.ErrorMessage)
	default:
		fmt.Fprintf(w, "Build succeeded in %s\n", sizereport.FormatDuration(result.Duration))
		fmt.Fprintf(w, "  Output:     %s\n", result.OutputDir)
		fmt.Fprintf(w, "  Scripts:    %d compiled\n", result.ScriptsCompiled)
		fmt.Fprintf(w, "  Assets:     %d processed\n", result.AssetsProcessed)
		fmt.Fprintf(w, "  Total size: %s", sizereport.FormatBytes(result.TotalSize))
		if result.CompressedSize > 0 {
			fmt.Fprintf(w, " (%s in resource packs)", sizereport.FormatBytes(result.CompressedSize))
		}
		fmt.Fprintln(w)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}
