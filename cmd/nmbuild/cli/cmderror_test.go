// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCommandError_ErrorWithoutHint(t *testing.T) {
	err := Validation("missing required flag --platform")
	if err.Error() != "missing required flag --platform" {
		t.Errorf("Error() = %q, want %q", err.Error(), "missing required flag --platform")
	}
}

func TestCommandError_ErrorWithHint(t *testing.T) {
	err := Validation("no scenes found in assets/scenes").
		WithHint("Scene scripts go under assets/scenes/ with a .nms extension.")

	want := "no scenes found in assets/scenes\n\nScene scripts go under assets/scenes/ with a .nms extension."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError_WithHintReturnsReceiver(t *testing.T) {
	original := Validation("bad input")
	chained := original.WithHint("fix it")
	if original != chained {
		t.Error("WithHint should return the same pointer")
	}
}

func TestCommandError_WithHintPreservesCategory(t *testing.T) {
	err := NotFound("pack %q not found", "scenes.nmres").
		WithHint("Run 'nmbuild build' to produce the resource packs.")

	if err.Category != CategoryNotFound {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNotFound)
	}
}

func TestCommandError_HintSurvivesErrorsAs(t *testing.T) {
	inner := Validation("bad platform").WithHint("want windows, linux, macos, or all")
	wrapped := fmt.Errorf("loading config: %w", inner)

	var commandErr *CommandError
	if !errors.As(wrapped, &commandErr) {
		t.Fatal("errors.As should find CommandError in wrapped chain")
	}
	if commandErr.Hint != "want windows, linux, macos, or all" {
		t.Errorf("Hint = %q after unwrap, want %q", commandErr.Hint, "want windows, linux, macos, or all")
	}
}

func TestCommandError_EmptyHintNotAppended(t *testing.T) {
	err := Internal("unexpected failure")
	if strings.Contains(err.Error(), "\n\n") {
		t.Error("empty hint should not add blank line to error message")
	}
}

func TestCommandError_AllCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *CommandError
		category ErrorCategory
	}{
		{"Validation", Validation("bad"), CategoryValidation},
		{"NotFound", NotFound("missing"), CategoryNotFound},
		{"Internal", Internal("bug"), CategoryInternal},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.err.Category != test.category {
				t.Errorf("Category = %q, want %q", test.err.Category, test.category)
			}
			// All constructors should support WithHint.
			hinted := test.err.WithHint("try again")
			if hinted.Hint != "try again" {
				t.Errorf("Hint = %q after WithHint, want %q", hinted.Hint, "try again")
			}
		})
	}
}
