// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/clock"
)

// ErrBuildInProgress is returned by Start while a previous build on
// the same System has not finished.
var ErrBuildInProgress = errors.New("build already in progress")

// System runs builds. One System runs at most one build at a time;
// construct it once and reuse it across builds.
type System struct {
	clock       clock.Clock
	eventBuffer int

	mu      sync.Mutex
	current *Build
}

// Option configures a System.
type Option func(*System)

// WithClock injects the time source. Tests inject clock.Fake so stage
// durations and artifact timestamps are deterministic.
func WithClock(c clock.Clock) Option {
	return func(s *System) { s.clock = c }
}

// WithEventBuffer overrides the event channel capacity. Zero makes
// every non-progress event a rendezvous with the consumer, which
// tests use to step a build deterministically.
func WithEventBuffer(n int) Option {
	return func(s *System) {
		if n < 0 {
			n = 0
		}
		s.eventBuffer = n
	}
}

// NewSystem returns a System ready to start builds.
func NewSystem(opts ...Option) *System {
	s := &System{clock: clock.Real(), eventBuffer: defaultEventBuffer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates cfg and launches the pipeline in a goroutine,
// returning immediately. The returned Build reports the run through
// its event channel; consumers must drain Events until it closes.
// Cancelling ctx cancels the build the same way Build.Cancel does.
//
// Start fails with ErrBuildInProgress while an earlier build is still
// running, and with a validation error when cfg is missing its paths
// or the project directory does not exist.
func (s *System) Start(ctx context.Context, cfg Config) (*Build, error) {
	if err := cfg.validateStart(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && !s.current.finished() {
		return nil, ErrBuildInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	b := &Build{
		config:   cfg.withDefaults(),
		clk:      s.clock,
		started:  s.clock.Now(),
		events:   make(chan Event, s.eventBuffer),
		done:     make(chan struct{}),
		cancel:   cancel,
		progress: newProgress(),
	}
	s.current = b
	go b.run(runCtx)
	return b, nil
}

// Build is a handle to one pipeline run.
type Build struct {
	config  Config
	clk     clock.Clock
	started time.Time
	events  chan Event
	done    chan struct{}

	cancel     context.CancelFunc
	cancelOnce sync.Once

	mu       sync.Mutex
	progress Progress
	result   Result
}

// Config returns the build's configuration with defaults applied.
func (b *Build) Config() Config { return b.config }

// Events returns the build's event stream. The channel is closed
// after the EventCompleted event. Progress events are dropped when
// the consumer falls behind; all other events block the pipeline, so
// consumers must keep draining until close.
func (b *Build) Events() <-chan Event { return b.events }

// Cancel requests cooperative cancellation. The pipeline observes the
// request at the next stage boundary or per-file checkpoint; Cancel
// returns immediately. Safe to call more than once and from any
// goroutine.
func (b *Build) Cancel() {
	b.cancelOnce.Do(b.cancel)
}

// Wait blocks until the build finishes and returns its Result. Callers
// that do not drain Events concurrently can deadlock here once the
// event buffer fills; see Events.
func (b *Build) Wait() Result {
	<-b.done
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// Progress returns a point-in-time snapshot of the build.
func (b *Build) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.progress.clone()
	if p.IsRunning {
		p.Elapsed = b.clk.Since(b.started)
	}
	return p
}

func (b *Build) finished() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// run drives the pipeline state machine to a terminal phase, then
// publishes the result and closes the event channel. It is the only
// goroutine that mutates b.progress or sends on b.events.
func (b *Build) run(ctx context.Context) {
	r := &run{
		build:   b,
		cfg:     b.config,
		ctx:     ctx,
		clock:   b.clk,
		staging: stagingPath(b.config.OutputDir),
	}

	var failure string
	phase := transition(PhaseIdle, outcomeOK)
	for !phase.terminal() {
		if ctx.Err() != nil {
			phase = transition(phase, outcomeCancelled)
			continue
		}

		var err error
		if phase == PhasePromote {
			err = r.promote()
		} else {
			err = r.runStage(stageFor(phase))
		}
		switch {
		case ctx.Err() != nil:
			phase = transition(phase, outcomeCancelled)
		case err != nil:
			failure = err.Error()
			phase = transition(phase, outcomeFailed)
		default:
			phase = transition(phase, outcomeOK)
		}
	}

	b.finish(r, phase, failure)
}

// finish tears down a run that reached a terminal phase: staging is
// deleted unless it was promoted, the result is assembled, the build
// record is written on success, and the Completed event closes the
// stream.
func (b *Build) finish(r *run, phase Phase, failure string) {
	success := phase == PhaseDone
	cancelled := phase == PhaseCancelled

	if !success {
		if err := os.RemoveAll(r.staging); err != nil {
			r.logError("Cleanup warning: " + err.Error())
		}
	}

	result := Result{
		Success:        success,
		Cancelled:      cancelled,
		OutputDir:      b.config.OutputDir,
		Duration:       b.clk.Since(b.started),
		TotalSize:      r.totalSize,
		CompressedSize: r.compressedSize,
	}
	if r.index != nil {
		result.ScriptsCompiled = len(r.index.Scripts())
		result.AssetsProcessed = len(r.index.Assets())
	}
	switch {
	case cancelled:
		result.ErrorMessage = "build cancelled"
	case !success:
		result.ErrorMessage = failure
	}
	if success {
		result.TotalSize = directorySize(b.config.OutputDir)
	}

	result.Warnings = b.snapshotWarnings()

	if success {
		if err := r.writeRecord(&result); err != nil {
			r.warn("Failed to write build record: " + err.Error())
			result.Warnings = b.snapshotWarnings()
		}
	}

	b.mu.Lock()
	b.result = result
	p := &b.progress
	p.IsRunning = false
	p.IsComplete = true
	p.WasSuccessful = success
	p.WasCancelled = cancelled
	p.Elapsed = result.Duration
	if success {
		p.Overall = 1
	}
	b.mu.Unlock()

	r.emit(Event{Kind: EventCompleted, Time: b.clk.Now(), Result: &result})
	close(b.events)
	close(b.done)
}

func (b *Build) snapshotWarnings() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.progress.Warnings)
}
