// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the nmbuild CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], declarative flag binding
// via [Command.Params] (or a manual [Command.Flags] factory), and a Run
// function. Commands are assembled into a tree in cmd/nmbuild's main
// package and dispatched via [Command.Execute], which handles flag
// parsing,
// subcommand routing, signal-aware context cancellation, and structured
// help output with examples.
//
// When a user types an unknown subcommand, the framework first computes
// Levenshtein edit distance against the sibling command names and
// suggests the closest match (threshold: distance <= 3). When no name
// is close enough, it falls back to BM25 relevance ranking over the
// whole tree ([SuggestSemantic]), which catches "nmbuild compress"
// style queries that are semantically near a real command without
// being a typo of one.
//
// Run functions receive a context that is cancelled on SIGINT/SIGTERM
// and a logger from [NewCommandLogger]: human-readable text on a
// terminal, JSON when stderr is piped (CI, scripts).
package cli
