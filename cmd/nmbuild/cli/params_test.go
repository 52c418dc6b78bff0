// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Name     string   `flag:"name" desc:"the name"`
		Verbose  bool     `flag:"verbose,v" desc:"enable verbose output"`
		Count    int      `flag:"count" desc:"number of items"`
		Offset   int64    `flag:"offset" desc:"byte offset"`
		Build    uint32   `flag:"build-number" desc:"build number"`
		Langs    []string `flag:"languages" desc:"language list"`
		Untagged string   // no flag tag, should be skipped
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"--name", "demo",
		"-v",
		"--count", "42",
		"--offset", "1099511627776",
		"--build-number", "2026",
		"--languages", "en,ja,de",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Name != "demo" {
		t.Errorf("Name = %q, want %q", p.Name, "demo")
	}
	if !p.Verbose {
		t.Error("Verbose = false, want true")
	}
	if p.Count != 42 {
		t.Errorf("Count = %d, want 42", p.Count)
	}
	if p.Offset != 1099511627776 {
		t.Errorf("Offset = %d, want 1099511627776", p.Offset)
	}
	if p.Build != 2026 {
		t.Errorf("Build = %d, want 2026", p.Build)
	}
	if len(p.Langs) != 3 || p.Langs[0] != "en" || p.Langs[1] != "ja" || p.Langs[2] != "de" {
		t.Errorf("Langs = %v, want [en ja de]", p.Langs)
	}
	if p.Untagged != "" {
		t.Errorf("Untagged = %q, want empty (should be skipped)", p.Untagged)
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Platform string   `flag:"platform" desc:"target platform" default:"all"`
		Count    int      `flag:"count" desc:"count" default:"8"`
		Offset   int64    `flag:"offset" desc:"byte offset" default:"100"`
		Build    uint32   `flag:"build-number" desc:"build number" default:"1"`
		Debug    bool     `flag:"debug" desc:"debug mode" default:"true"`
		Langs    []string `flag:"languages" desc:"languages" default:"en,ja"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	// Parse with no arguments, should get all defaults.
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Platform != "all" {
		t.Errorf("Platform = %q, want %q", p.Platform, "all")
	}
	if p.Count != 8 {
		t.Errorf("Count = %d, want 8", p.Count)
	}
	if p.Offset != 100 {
		t.Errorf("Offset = %d, want 100", p.Offset)
	}
	if p.Build != 1 {
		t.Errorf("Build = %d, want 1", p.Build)
	}
	if !p.Debug {
		t.Error("Debug = false, want true")
	}
	if len(p.Langs) != 2 || p.Langs[0] != "en" || p.Langs[1] != "ja" {
		t.Errorf("Langs = %v, want [en ja]", p.Langs)
	}
}

func TestBindFlags_DefaultsOverriddenByCLI(t *testing.T) {
	type params struct {
		Platform string `flag:"platform" desc:"target platform" default:"all"`
		Count    int    `flag:"count" desc:"count" default:"8"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	if err := flagSet.Parse([]string{"--platform", "windows", "--count", "3"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Platform != "windows" {
		t.Errorf("Platform = %q, want %q", p.Platform, "windows")
	}
	if p.Count != 3 {
		t.Errorf("Count = %d, want 3", p.Count)
	}
}

func TestBindFlags_EmbeddedStruct(t *testing.T) {
	type params struct {
		JSONOutput
		Extra string `flag:"extra" desc:"extra flag"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	if err := flagSet.Parse([]string{"--json", "--extra", "world"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !p.OutputJSON {
		t.Error("OutputJSON = false, want true")
	}
	if p.Extra != "world" {
		t.Errorf("Extra = %q, want %q", p.Extra, "world")
	}
}

func TestBindFlags_Shorthand(t *testing.T) {
	type params struct {
		Output string `flag:"output,o" desc:"output directory"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	if err := flagSet.Parse([]string{"-o", "dist"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Output != "dist" {
		t.Errorf("Output = %q, want %q", p.Output, "dist")
	}
}

func TestBindFlags_NotAPointer(t *testing.T) {
	type params struct {
		Name string `flag:"name"`
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := BindFlags(params{}, flagSet)
	if err == nil {
		t.Fatal("BindFlags(non-pointer) = nil, want error")
	}
	if !strings.Contains(err.Error(), "pointer to a struct") {
		t.Errorf("error = %q, want mention of pointer to a struct", err.Error())
	}
}

func TestBindFlags_UnsupportedType(t *testing.T) {
	type params struct {
		Rate float64 `flag:"rate" desc:"sampling rate"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := BindFlags(&p, flagSet)
	if err == nil {
		t.Fatal("BindFlags = nil, want error for unsupported field type")
	}
	if !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("error = %q, want mention of unsupported type", err.Error())
	}
	if !strings.Contains(err.Error(), "--rate") {
		t.Errorf("error = %q, should name the flag", err.Error())
	}
}

func TestBindFlags_MalformedDefault(t *testing.T) {
	type params struct {
		Count int `flag:"count" desc:"count" default:"not-a-number"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := BindFlags(&p, flagSet)
	if err == nil {
		t.Fatal("BindFlags = nil, want error for malformed default")
	}
	if !strings.Contains(err.Error(), "default for --count") {
		t.Errorf("error = %q, should name the flag with the bad default", err.Error())
	}
}

func TestFlagsFromParams_PanicsOnBadParams(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic on non-pointer params")
		}
	}()

	type params struct {
		Name string `flag:"name"`
	}
	FlagsFromParams("test", params{})
}
