// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"slices"
	"time"
)

// Step is the progress record for one pipeline stage.
type Step struct {
	Name        string
	Description string

	// Weight is this stage's share of overall progress. The six
	// weights sum to 1.0.
	Weight float64

	Completed bool
	Success   bool

	// Error is the failure message when Completed && !Success, or
	// "Cancelled" when the stage was interrupted.
	Error string

	// Duration is how long the stage ran, set when it completes.
	Duration time.Duration
}

// Progress is a snapshot of a running (or finished) build. Build
// goroutine state is copied into it under lock; callers get their own
// slices and may keep the snapshot as long as they like.
type Progress struct {
	// Overall is the weighted completion fraction in [0, 1].
	Overall float64

	Steps []Step

	// CurrentStep indexes Steps, -1 before the first stage begins.
	CurrentStep int

	// CurrentTask is the human-readable description of what the
	// pipeline is doing right now.
	CurrentTask string

	FilesProcessed int
	TotalFiles     int
	BytesProcessed int64

	Infos    []string
	Warnings []string
	Errors   []string

	IsRunning     bool
	IsComplete    bool
	WasSuccessful bool
	WasCancelled  bool

	// Elapsed is the wall-clock time since the build started.
	Elapsed time.Duration
}

func (p Progress) clone() Progress {
	p.Steps = slices.Clone(p.Steps)
	p.Infos = slices.Clone(p.Infos)
	p.Warnings = slices.Clone(p.Warnings)
	p.Errors = slices.Clone(p.Errors)
	return p
}

// newProgress returns the initial snapshot: all stages pending,
// nothing running yet.
func newProgress() Progress {
	steps := make([]Step, len(stages))
	for i, spec := range stages {
		steps[i] = Step{Name: spec.name, Description: spec.description, Weight: spec.weight}
	}
	return Progress{Steps: steps, CurrentStep: -1, IsRunning: true}
}

// Result is the final outcome of a build.
type Result struct {
	Success   bool
	Cancelled bool

	// OutputDir is where the build landed (meaningful on success).
	OutputDir string

	// ErrorMessage explains a failure; "build cancelled" on
	// cancellation; empty on success.
	ErrorMessage string

	Warnings []string

	Duration time.Duration

	ScriptsCompiled int
	AssetsProcessed int

	// TotalSize is the size of the finished output; CompressedSize is
	// the portion occupied by resource packs.
	TotalSize      int64
	CompressedSize int64
}
