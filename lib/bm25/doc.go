// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package bm25 implements BM25 (Okapi) relevance ranking over small
// in-memory corpora. Documents are named collections of weighted text
// fields; a field's weight repeats its tokens in the composite
// document, giving it proportionally more influence on ranking.
//
// The index is built once from the full corpus and is immutable, which
// fits the intended use: ranking a few dozen documents (CLI commands
// and their flag metadata) against short natural language queries,
// where rebuilding the index per query is cheaper than maintaining an
// incremental one.
package bm25
