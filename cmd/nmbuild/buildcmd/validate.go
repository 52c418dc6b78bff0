// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package buildcmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/build"
)

type validateParams struct {
	cli.JSONOutput
}

// ValidateCommand returns the "validate" command.
func ValidateCommand() *cli.Command {
	var params validateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Check that a project directory is buildable",
		Usage:   "nmbuild validate [project] [flags]",
		Description: `Run the same project checks the build pipeline's Preflight stage
runs: the project directory must exist and contain project.json,
scripts/, and assets/.

Prints nothing and exits 0 for a valid project; prints one issue per
line and exits 1 otherwise.`,
		Examples: []cli.Example{
			{
				Description: "Validate the current directory",
				Command:     "nmbuild validate",
			},
			{
				Description: "Validate a named project as JSON",
				Command:     "nmbuild validate mygame --json",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			project := "."
			if len(args) == 1 {
				project = args[0]
			}

			issues := build.ValidateProject(project)

			if done, err := params.EmitJSON(issues); done {
				if err != nil {
					return err
				}
			} else {
				for _, issue := range issues {
					fmt.Println(issue)
				}
			}

			if len(issues) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
