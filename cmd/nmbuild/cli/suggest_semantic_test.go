// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSuggestSemantic_MatchesByDescription(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	results := SuggestSemantic("estimate duration", root, 5)
	if len(results) == 0 {
		t.Fatal("expected results for 'estimate duration'")
	}
	if results[0].Path != "nmbuild estimate" {
		t.Errorf("top result = %q, want %q", results[0].Path, "nmbuild estimate")
	}
	if results[0].Summary == "" {
		t.Error("top result summary is empty")
	}
	if results[0].Score <= 0 {
		t.Errorf("top result score = %f, want > 0", results[0].Score)
	}
}

func TestSuggestSemantic_NoMatch(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	results := SuggestSemantic("zzzzxyzzy", root, 5)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSuggestSemantic_SearchesNestedCommands(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	results := SuggestSemantic("resource table header", root, 5)
	if len(results) == 0 {
		t.Fatal("expected results for 'resource table header'")
	}
	found := false
	for _, result := range results {
		if result.Path == "nmbuild pack inspect" {
			found = true
			break
		}
	}
	if !found {
		paths := make([]string, len(results))
		for i, result := range results {
			paths[i] = result.Path
		}
		t.Errorf("expected 'nmbuild pack inspect' in results, got %v", paths)
	}
}

func TestSuggestSemantic_RespectsLimit(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	results := SuggestSemantic("pack", root, 1)
	if len(results) > 1 {
		t.Errorf("expected at most 1 result, got %d", len(results))
	}
}

func TestSuggestSemantic_RankedByRelevance(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	results := SuggestSemantic("pack resources", root, 10)
	if len(results) < 2 {
		t.Skipf("need at least 2 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by descending score: [%d]=%f > [%d]=%f",
				i, results[i].Score, i-1, results[i-1].Score)
		}
	}
}

func TestSuggestSemantic_EmptyQuery(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	results := SuggestSemantic("", root, 5)
	if len(results) != 0 {
		t.Errorf("expected no results for empty query, got %d", len(results))
	}
}

func TestSuggestSemantic_MatchesByFlagName(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	// The "pack create" command has a --compression flag.
	results := SuggestSemantic("compression", root, 5)
	if len(results) == 0 {
		t.Fatal("expected results for 'compression' (flag name)")
	}
	found := false
	for _, result := range results {
		if result.Path == "nmbuild pack create" {
			found = true
			break
		}
	}
	if !found {
		paths := make([]string, len(results))
		for i, result := range results {
			paths[i] = result.Path
		}
		t.Errorf("expected 'nmbuild pack create' in results, got %v", paths)
	}
}

func TestWalkLeafCommands_SkipsNonRunnable(t *testing.T) {
	t.Parallel()

	root := semanticTestTree()
	var paths []string
	walkLeafCommands(root, "", func(path string, _ *Command) {
		paths = append(paths, path)
	})

	// Root and "pack" have no Run, should not appear.
	for _, path := range paths {
		if path == "nmbuild" || path == "nmbuild pack" {
			t.Errorf("non-runnable command %q should not be visited", path)
		}
	}

	// Leaf commands should appear.
	expected := map[string]bool{
		"nmbuild estimate":     false,
		"nmbuild pack inspect": false,
		"nmbuild pack create":  false,
	}
	for _, path := range paths {
		if _, ok := expected[path]; ok {
			expected[path] = true
		}
	}
	for path, found := range expected {
		if !found {
			t.Errorf("expected %q in paths, got %v", path, paths)
		}
	}
}

func TestWalkLeafCommands_IncludesFallThroughCommands(t *testing.T) {
	t.Parallel()

	// A command with both Run and Subcommands should be visited.
	root := &Command{
		Name: "root",
		Run:  func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
		Subcommands: []*Command{
			{
				Name: "child",
				Run:  func(ctx context.Context, args []string, logger *slog.Logger) error { return nil },
			},
		},
	}

	var paths []string
	walkLeafCommands(root, "", func(path string, _ *Command) {
		paths = append(paths, path)
	})

	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
	if paths[0] != "root" {
		t.Errorf("paths[0] = %q, want %q", paths[0], "root")
	}
	if paths[1] != "root child" {
		t.Errorf("paths[1] = %q, want %q", paths[1], "root child")
	}
}

func TestFormatSemanticSuggestions(t *testing.T) {
	t.Parallel()

	suggestions := []SemanticSuggestion{
		{Path: "nmbuild pack inspect", Summary: "Inspect a resource pack", Score: 5.0},
		{Path: "nmbuild analyze", Summary: "Analyze project size", Score: 3.0},
	}
	result := formatSemanticSuggestions("inspct", suggestions, "nmbuild")

	if !strings.Contains(result, `unknown command "inspct"`) {
		t.Errorf("missing unknown command header in:\n%s", result)
	}
	if !strings.Contains(result, "Did you mean:") {
		t.Errorf("missing 'Did you mean:' in:\n%s", result)
	}
	if !strings.Contains(result, "nmbuild pack inspect") {
		t.Errorf("missing first suggestion in:\n%s", result)
	}
	if !strings.Contains(result, "nmbuild analyze") {
		t.Errorf("missing second suggestion in:\n%s", result)
	}
	if !strings.Contains(result, "Run 'nmbuild --help' for usage.") {
		t.Errorf("missing help footer in:\n%s", result)
	}
}

func TestFormatSemanticSuggestions_NoSummary(t *testing.T) {
	t.Parallel()

	suggestions := []SemanticSuggestion{
		{Path: "nmbuild something", Summary: "", Score: 1.0},
	}
	result := formatSemanticSuggestions("smthng", suggestions, "nmbuild")

	if !strings.Contains(result, "nmbuild something") {
		t.Errorf("missing suggestion path in:\n%s", result)
	}
}

// semanticTestTree builds a small command tree for testing semantic
// search. It has enough structure to verify nested traversal, flag
// extraction, and BM25 ranking.
func semanticTestTree() *Command {
	type createParams struct {
		Output      string `flag:"output,o" desc:"output pack path"`
		Compression string `flag:"compression" desc:"compression level"`
	}
	var params createParams

	noop := func(ctx context.Context, args []string, logger *slog.Logger) error { return nil }

	return &Command{
		Name: "nmbuild",
		Subcommands: []*Command{
			{
				Name:        "estimate",
				Summary:     "Estimate build time",
				Description: "Estimates how long a full build of the project will take. Reports the expected duration without running the pipeline.",
				Run:         noop,
			},
			{
				Name:    "pack",
				Summary: "Resource pack operations",
				Subcommands: []*Command{
					{
						Name:        "inspect",
						Summary:     "Inspect a resource pack",
						Description: "Prints the header, footer, and resource table of a pack file.",
						Run:         noop,
					},
					{
						Name:        "create",
						Summary:     "Create a resource pack from files",
						Description: "Packs loose files into a single resource pack.",
						Params:      func() any { return &params },
						Run:         noop,
					},
				},
			},
		},
	}
}
