// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"log/slog"
	"time"
)

// EventKind discriminates Event payloads.
type EventKind uint8

const (
	// EventLog is a log line. Message and Level are set.
	EventLog EventKind = iota

	// EventProgress is a progress snapshot. Overall, Fraction, and
	// Task are set. Progress events are dropped when the consumer
	// falls behind; the next snapshot supersedes them.
	EventProgress

	// EventStageStarted marks a stage beginning. Stage is set.
	EventStageStarted

	// EventStageFinished marks a stage ending. Stage and Step are
	// set.
	EventStageFinished

	// EventCompleted is the final event; Result is set. The channel
	// is closed after it.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventProgress:
		return "progress"
	case EventStageStarted:
		return "stage-started"
	case EventStageFinished:
		return "stage-finished"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Event is one item on a Build's event channel. Which fields are
// meaningful depends on Kind.
type Event struct {
	Kind EventKind
	Time time.Time

	// Stage is the stage name for stage and progress events.
	Stage string

	// Message and Level carry log lines.
	Message string
	Level   slog.Level

	// Overall is the weighted completion fraction in [0, 1]; Fraction
	// is the position within the current stage; Task describes the
	// current work item.
	Overall  float64
	Fraction float64
	Task     string

	// Step is the completed stage's record on EventStageFinished.
	Step *Step

	// Result is the final outcome on EventCompleted.
	Result *Result
}

// defaultEventBuffer is the event channel capacity. Large enough that
// a consumer doing modest work per event never stalls the pipeline,
// small enough that a stalled consumer starts coalescing progress
// instead of hoarding stale snapshots.
const defaultEventBuffer = 64
