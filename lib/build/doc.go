// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package build orchestrates the six-stage game build pipeline:
// Preflight, Compile, Index, Pack, Bundle, Verify.
//
// A build runs asynchronously. System.Start validates the
// configuration, spawns the pipeline goroutine, and returns a *Build
// handle immediately; the caller observes the run through the handle's
// event channel and collects the final Result from Wait. Only one
// build per System runs at a time.
//
// Every stage writes into a staging directory (".staging" under the
// output path) and the finished staging tree is promoted into the
// output path only after Verify passes. A failed or cancelled build
// deletes staging and leaves the output path exactly as it was, so a
// previous good build is never damaged by a later bad one.
//
// Stage progression is a fixed state machine; transition is the only
// place phases advance. Cancellation is cooperative: Build.Cancel (or
// cancelling the context passed to Start) is observed at stage
// boundaries and inside per-file loops, never mid-file.
//
// # Events
//
// The event channel carries logs, progress snapshots, stage
// boundaries, and a final Completed event, after which the channel is
// closed. Progress events are dropped when the channel is full (the
// next snapshot supersedes them); all other events block, so consumers
// must drain Events until it closes. Wait alone is not enough once the
// buffer fills.
package build
