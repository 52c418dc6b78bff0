// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmdsearch provides relevance-ranked search over CLI command
// metadata using [bm25]. A command is indexed as its path, its
// concatenated summary and description, and its flag names and help
// strings, each with a fixed weight: a query term matching the command
// path counts three times as much as one matching flag help.
//
// Two consumers share this package: the `nmbuild suggest` command and
// the CLI's unknown-command fallback, which both turn free-form input
// into ranked command suggestions.
package cmdsearch

import (
	"github.com/novelmind-foundation/nmbuild/lib/bm25"
)

// Field repetition weights. Per-field BM25 would be more principled
// but adds implementation weight for no visible benefit on a corpus
// of a few dozen commands.
const (
	weightName     = 3
	weightSummary  = 2
	weightFlagName = 2
	weightFlagHelp = 1
)

// Document describes one command for indexing.
type Document struct {
	// Name is the full command path (e.g., "nmbuild pack inspect").
	Name string

	// Description is the command's summary and detailed description
	// concatenated; both contribute to matching.
	Description string

	// FlagNames are the long flag names the command accepts.
	FlagNames []string

	// FlagHelp are the flags' help strings.
	FlagHelp []string
}

// NewIndex builds a BM25 index from command documents.
func NewIndex(documents []Document) *bm25.Index {
	bm25Documents := make([]bm25.Document, len(documents))
	for i, document := range documents {
		bm25Documents[i] = toBM25Document(document)
	}
	return bm25.New(bm25Documents)
}

func toBM25Document(document Document) bm25.Document {
	fields := make([]bm25.Field, 0, 2+len(document.FlagNames)+len(document.FlagHelp))

	fields = append(fields, bm25.Field{Text: document.Name, Weight: weightName})
	fields = append(fields, bm25.Field{Text: document.Description, Weight: weightSummary})

	for _, flagName := range document.FlagNames {
		fields = append(fields, bm25.Field{Text: flagName, Weight: weightFlagName})
	}
	for _, help := range document.FlagHelp {
		fields = append(fields, bm25.Field{Text: help, Weight: weightFlagHelp})
	}

	return bm25.Document{Name: document.Name, Fields: fields}
}
