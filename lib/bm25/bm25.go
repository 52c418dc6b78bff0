// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package bm25

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Okapi BM25 parameters, standard values.
const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

// tokenPattern splits text into alphanumeric runs.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Field is one weighted text field of a document. Weight is the number
// of times the field's tokens are repeated in the composite document;
// zero or negative skips the field entirely.
type Field struct {
	Text   string
	Weight int
}

// Document is a named collection of weighted text fields. The name
// identifies the document in results and is not scored unless it also
// appears as a Field.
type Document struct {
	Name   string
	Fields []Field
}

// Result is a single search hit.
type Result struct {
	// Name is the document name as provided at construction.
	Name string

	// Score is the BM25 relevance score, higher is more relevant.
	// Scores are corpus-relative and unbounded.
	Score float64
}

// Index is an immutable BM25 index. Safe for concurrent reads.
type Index struct {
	documents []Document

	// termFrequencies[i][term] counts term in document i's composite
	// token sequence; lengths[i] is that sequence's total length.
	termFrequencies []map[string]int
	lengths         []int

	averageLength float64

	// idf[term] is the precomputed inverse document frequency.
	idf map[string]float64
}

// New builds an index over documents. Construction cost is linear in
// the total token count.
func New(documents []Document) *Index {
	index := &Index{
		documents:       documents,
		termFrequencies: make([]map[string]int, len(documents)),
		lengths:         make([]int, len(documents)),
		idf:             make(map[string]float64),
	}

	documentFrequency := make(map[string]int)
	var totalLength int

	for i, document := range documents {
		tokens := compositeTokens(document)
		index.lengths[i] = len(tokens)
		totalLength += len(tokens)

		termFrequency := make(map[string]int)
		seen := make(map[string]bool)
		for _, token := range tokens {
			termFrequency[token]++
			if !seen[token] {
				seen[token] = true
				documentFrequency[token]++
			}
		}
		index.termFrequencies[i] = termFrequency
	}

	if len(documents) > 0 {
		index.averageLength = float64(totalLength) / float64(len(documents))
	}

	// Terms present in every document get a small positive IDF
	// instead of zero so they still break ties.
	documentCount := float64(len(documents))
	for term, frequency := range documentFrequency {
		idf := math.Log(1 + (documentCount-float64(frequency)+0.5)/(float64(frequency)+0.5))
		if idf < 0 {
			idf = paramEpsilon
		}
		index.idf[term] = idf
	}

	return index
}

// Search returns up to limit documents ranked by descending BM25
// relevance to the query. An empty result means the query produced no
// tokens or matched nothing.
func (index *Index) Search(query string, limit int) []Result {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		index int
		score float64
	}
	var hits []scored

	for i := range index.documents {
		score := index.score(i, queryTokens)
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	sort.Slice(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			Name:  index.documents[hit.index].Name,
			Score: hit.score,
		}
	}
	return results
}

// score sums the BM25 term scores of one document against the query:
// idf * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * dl/avgdl)).
func (index *Index) score(documentIndex int, queryTokens []string) float64 {
	termFrequency := index.termFrequencies[documentIndex]
	length := float64(index.lengths[documentIndex])

	var score float64
	for _, token := range queryTokens {
		idf, exists := index.idf[token]
		if !exists {
			continue
		}

		frequency := float64(termFrequency[token])
		if frequency == 0 {
			continue
		}

		numerator := frequency * (paramK1 + 1)
		denominator := frequency + paramK1*(1-paramB+paramB*length/index.averageLength)
		score += idf * numerator / denominator
	}

	return score
}

// compositeTokens flattens a document into one token sequence with
// each field's tokens repeated by its weight.
func compositeTokens(document Document) []string {
	var tokens []string

	for _, field := range document.Fields {
		if field.Weight <= 0 {
			continue
		}
		fieldTokens := Tokenize(field.Text)
		for range field.Weight {
			tokens = append(tokens, fieldTokens...)
		}
	}

	return tokens
}

// Tokenize splits text into lowercase alphanumeric tokens, discarding
// tokens shorter than 2 characters ("a", "I", and similar noise).
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	matches := tokenPattern.FindAllString(lower, -1)

	tokens := matches[:0]
	for _, match := range matches {
		if len(match) >= 2 {
			tokens = append(tokens, match)
		}
	}
	return tokens
}
