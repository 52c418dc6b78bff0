// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package buildcmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/build"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

// EstimateCommand returns the "estimate" command. It accepts the same
// flags as "build" so an estimate always describes the build the user
// would actually run.
func EstimateCommand() *cli.Command {
	var flags buildFlags
	var jsonOut bool
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "estimate",
		Summary: "Estimate how long building a project will take",
		Usage:   "nmbuild estimate [project] [flags]",
		Description: `Predict the build duration from the project's size and the
configured compression and encryption settings. The estimate is a
rough planning figure, not a promise.`,
		Examples: []cli.Example{
			{
				Description: "Estimate a maximum-compression encrypted build",
				Command:     "nmbuild estimate mygame --compression maximum --encrypt",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet = flags.register("estimate")
			flagSet.BoolVar(&jsonOut, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
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

			estimate := build.EstimateBuildTime(cfg)
			if jsonOut {
				return cli.WriteJSON(map[string]any{
					"estimated_ms": estimate.Milliseconds(),
				})
			}
			fmt.Printf("Estimated build time: %s\n", sizereport.FormatDuration(estimate))
			return nil
		},
	}
}
