// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/analyzecmd"
	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/buildcmd"
	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/packcmd"
	"github.com/novelmind-foundation/nmbuild/lib/version"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like a failed build's
		// pipeline report) return an ExitError with the desired exit
		// code. Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return root().Execute(os.Args[1:])
}

// root assembles the nmbuild command tree.
func root() *cli.Command {
	rootCommand := &cli.Command{
		Name:    "nmbuild",
		Summary: "NovelMind game build tool",
		Description: `nmbuild builds NovelMind game projects into distributable runtime
bundles: it compiles scripts, processes assets, packs resources into
encrypted .nmres archives, and lays out a platform launcher.

It also analyzes project size (duplicates, oversized assets,
per-category breakdown) and inspects finished resource packs.`,
		Subcommands: []*cli.Command{
			buildcmd.Command(),
			buildcmd.ValidateCommand(),
			buildcmd.EstimateCommand(),
			analyzecmd.Command(),
			packcmd.Command(),
			versionCommand(),
		},
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, suggestCommand(rootCommand))
	return rootCommand
}

// suggestCommand searches the command tree by description, for users
// who know what they want but not what it is called.
func suggestCommand(rootCommand *cli.Command) *cli.Command {
	return &cli.Command{
		Name:    "suggest",
		Summary: "Find commands matching a description",
		Usage:   "nmbuild suggest <query>...",
		Examples: []cli.Example{
			{Command: "nmbuild suggest \"find duplicate assets\""},
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("expected a search query")
			}
			query := strings.Join(args, " ")
			suggestions := cli.SuggestSemantic(query, rootCommand, 5)
			if len(suggestions) == 0 {
				fmt.Printf("no commands match %q\n", query)
				return nil
			}
			for _, suggestion := range suggestions {
				fmt.Printf("%s\n    %s\n", suggestion.Path, suggestion.Summary)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print nmbuild version information",
		Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
