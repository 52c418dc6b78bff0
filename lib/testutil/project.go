// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for nmbuild packages.
//
// [ProjectDir] builds a throwaway NovelMind project tree (project.json
// plus scripts/ and assets/ directories) so pipeline and analyzer tests
// do not repeat filesystem scaffolding.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ProjectDir creates a temporary NovelMind project tree and returns its
// root. The tree always contains a project.json and the scripts/ and
// assets/ directories required by preflight validation. files maps
// project-relative paths to contents for everything beyond that; a
// "project.json" entry overrides the default manifest.
//
// The directory is removed when the test completes.
func ProjectDir(t *testing.T, files map[string][]byte) string {
	t.Helper()

	root := t.TempDir()
	for _, dir := range []string{"scripts", "assets"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("creating %s directory: %v", dir, err)
		}
	}

	if _, ok := files["project.json"]; !ok {
		WriteFile(t, filepath.Join(root, "project.json"),
			[]byte(`{"name": "Test Game", "version": "1.0.0"}`))
	}
	for rel, data := range files {
		WriteFile(t, filepath.Join(root, rel), data)
	}
	return root
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating parent directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
