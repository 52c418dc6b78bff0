// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "nmbuild",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "build",
				Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
					called = "build"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"build"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "build" {
		t.Errorf("dispatched to %q, want %q", called, "build")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "nmbuild",
		Subcommands: []*Command{
			{
				Name: "pack",
				Subcommands: []*Command{
					{
						Name: "inspect",
						Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
							called = "pack inspect"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"pack", "inspect", "scenes.nmres"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "pack inspect" {
		t.Errorf("dispatched to %q, want %q", called, "pack inspect")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "scenes.nmres" {
		t.Errorf("args = %v, want [scenes.nmres]", receivedArgs)
	}
}

func TestCommand_Execute_RunReceivesContextAndLogger(t *testing.T) {
	var gotCtx context.Context
	var gotLogger *slog.Logger

	command := &Command{
		Name: "version",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			gotCtx = ctx
			gotLogger = logger
			return nil
		},
	}

	if err := command.Execute(nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if gotCtx == nil {
		t.Error("Run received nil context")
	}
	if gotLogger == nil {
		t.Error("Run received nil logger")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var format string
	var projectDir string

	command := &Command{
		Name: "analyze",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
			flagSet.StringVar(&format, "format", "text", "report format")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				projectDir = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--format", "html", "games/demo"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if format != "html" {
		t.Errorf("format = %q, want %q", format, "html")
	}
	if projectDir != "games/demo" {
		t.Errorf("projectDir = %q, want %q", projectDir, "games/demo")
	}
}

func TestCommand_Execute_ParamsFlagParsing(t *testing.T) {
	type buildParams struct {
		JSONOutput
		Platform string `flag:"platform" desc:"target platform" default:"all"`
		Type     string `flag:"type,t" desc:"build type" default:"release"`
	}
	var params buildParams

	command := &Command{
		Name:   "build",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return nil
		},
	}

	if err := command.Execute([]string{"--platform", "windows", "-t", "debug", "--json"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Platform != "windows" {
		t.Errorf("Platform = %q, want %q", params.Platform, "windows")
	}
	if params.Type != "debug" {
		t.Errorf("Type = %q, want %q", params.Type, "debug")
	}
	if !params.OutputJSON {
		t.Error("OutputJSON = false, want true")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "build",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flagSet.String("platform", "all", "target platform")
			flagSet.String("output", "", "output directory")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
	}

	err := command.Execute([]string{"--platfrom", "windows"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --platform") {
		t.Errorf("error = %q, want suggestion for '--platform'", errStr)
	}
	if !strings.Contains(errStr, "platfrom") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "build",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flagSet.String("platform", "all", "target platform")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "nmbuild",
		Subcommands: []*Command{
			{Name: "build"},
			{Name: "analyze"},
			{Name: "estimate"},
		},
	}

	err := root.Execute([]string{"estimte"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"estimate\"") {
		t.Errorf("error = %q, want suggestion for 'estimate'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "nmbuild",
		Subcommands: []*Command{
			{Name: "build"},
			{Name: "analyze"},
		},
	}

	err := root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "nmbuild",
				Summary: "NovelMind build tool",
				Subcommands: []*Command{
					{Name: "build", Summary: "Build a distributable bundle"},
				},
			}

			err := root.Execute([]string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "nmbuild",
		Subcommands: []*Command{
			{Name: "build", Summary: "Build a distributable bundle"},
		},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "nmbuild",
		Description: "Build tool for NovelMind visual novel projects.",
		Subcommands: []*Command{
			{Name: "build", Summary: "Build a distributable bundle"},
			{Name: "analyze", Summary: "Analyze project size and composition"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Build the project in the current directory",
				Command:     "nmbuild build",
			},
			{
				Description: "Build a debug bundle for Windows",
				Command:     "nmbuild build --platform windows --type debug",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Build tool for NovelMind visual novel projects.",
		"Usage:",
		"nmbuild <command> [flags]",
		"Commands:",
		"build",
		"Build a distributable bundle",
		"analyze",
		"Analyze project size and composition",
		"Examples:",
		"nmbuild build --platform windows --type debug",
		"Run 'nmbuild <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "analyze",
		Summary: "Analyze project size and composition",
		Usage:   "nmbuild analyze [project-dir] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
			flagSet.String("format", "text", "report format")
			flagSet.String("output", "", "output file")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"nmbuild analyze [project-dir] [flags]",
		"Flags:",
		"format",
		"output",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "nmbuild"}
	pack := &Command{Name: "pack", parent: root}
	inspect := &Command{Name: "inspect", parent: pack}

	if got := root.fullName(); got != "nmbuild" {
		t.Errorf("root.fullName() = %q, want %q", got, "nmbuild")
	}
	if got := pack.fullName(); got != "nmbuild pack" {
		t.Errorf("pack.fullName() = %q, want %q", got, "nmbuild pack")
	}
	if got := inspect.fullName(); got != "nmbuild pack inspect" {
		t.Errorf("inspect.fullName() = %q, want %q", got, "nmbuild pack inspect")
	}
}

func TestCommand_Root(t *testing.T) {
	root := &Command{Name: "nmbuild"}
	pack := &Command{Name: "pack", parent: root}
	inspect := &Command{Name: "inspect", parent: pack}

	if got := root.root(); got != root {
		t.Errorf("root.root() = %q, want %q", got.Name, root.Name)
	}
	if got := pack.root(); got != root {
		t.Errorf("pack.root() = %q, want %q", got.Name, root.Name)
	}
	if got := inspect.root(); got != root {
		t.Errorf("inspect.root() = %q, want %q", got.Name, root.Name)
	}
}

func TestCommand_Execute_PositionalArgWithSubcommands(t *testing.T) {
	var gotArgs []string

	root := &Command{
		Name: "build",
		Subcommands: []*Command{
			{Name: "report", Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
				t.Fatal("report should not run")
				return nil
			}},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			gotArgs = args
			return nil
		},
	}

	// A positional argument that matches no subcommand name falls
	// through to the command's own Run.
	if err := root.Execute([]string{"mygame"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "mygame" {
		t.Errorf("Run args = %v, want [mygame]", gotArgs)
	}
}
