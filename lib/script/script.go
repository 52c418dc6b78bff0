// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package script validates NovelMind script sources and bundles them
// into the NMBC bytecode container consumed by the runtime.
//
// "Compilation" is currently structural validation plus source
// bundling: the runtime interprets script source directly, so the
// compile stage checks what it can check cheaply (readability, balance
// of braces and parentheses) and concatenates the sources into one
// bundle file. A resource that fails validation warns rather than
// errors unless the file cannot be read at all.
package script

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// Extensions recognized as NovelMind scripts by the project walkers.
const (
	ExtScript      = ".nms"
	ExtScriptLong  = ".nmscript"
	BundleVersion  = 1
	bundleFileName = "compiled_scripts.bin"
)

// BundleFileName is the name of the bundle the compile stage writes
// into the staging tree.
func BundleFileName() string { return bundleFileName }

// bundleMagic is the 4-byte bundle file signature.
var bundleMagic = [4]byte{'N', 'M', 'B', 'C'}

// IsScript reports whether path has a NovelMind script extension.
func IsScript(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ExtScript) || strings.HasSuffix(lower, ExtScriptLong)
}

// Result reports the outcome of checking one script.
type Result struct {
	// Path is the script source path as given to Check.
	Path string

	// OK is false only when the script could not be read. Structural
	// problems are warnings: the runtime may still accept the script,
	// and failing iteration builds on style issues helps nobody.
	OK bool

	// Errors are fatal problems (unreadable file).
	Errors []string

	// Warnings are structural problems (empty file, unbalanced
	// braces or parentheses).
	Warnings []string

	// Size is the source length in bytes.
	Size int64
}

// Check validates a single script source.
func Check(path string) Result {
	result := Result{Path: path, OK: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.OK = false
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open file: %s", path))
		return result
	}
	result.Size = int64(len(data))

	if len(data) == 0 {
		result.Warnings = append(result.Warnings, "script file is empty")
		return result
	}

	var braces, parens int
	for _, c := range data {
		switch c {
		case '{':
			braces++
		case '}':
			braces--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	if braces != 0 {
		result.Warnings = append(result.Warnings, "unbalanced braces detected")
	}
	if parens != 0 {
		result.Warnings = append(result.Warnings, "unbalanced parentheses detected")
	}
	return result
}

// WriteBundle concatenates the given script sources into an NMBC
// bundle at path: magic, format version, script count, then each
// source prefixed with its length. Scripts appear in the given order.
// Any unreadable source fails the bundle.
func WriteBundle(path string, scripts []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating script bundle: %w", err)
	}
	defer file.Close()

	var scratch [4]byte
	if _, err := file.Write(bundleMagic[:]); err != nil {
		return fmt.Errorf("writing bundle magic: %w", err)
	}
	binary.LittleEndian.PutUint32(scratch[:], BundleVersion)
	if _, err := file.Write(scratch[:]); err != nil {
		return fmt.Errorf("writing bundle version: %w", err)
	}
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(scripts)))
	if _, err := file.Write(scratch[:]); err != nil {
		return fmt.Errorf("writing script count: %w", err)
	}

	for _, script := range scripts {
		source, err := os.ReadFile(script)
		if err != nil {
			return fmt.Errorf("reading script %s: %w", script, err)
		}
		binary.LittleEndian.PutUint32(scratch[:], uint32(len(source)))
		if _, err := file.Write(scratch[:]); err != nil {
			return fmt.Errorf("writing length of %s: %w", script, err)
		}
		if _, err := file.Write(source); err != nil {
			return fmt.Errorf("writing source of %s: %w", script, err)
		}
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("closing script bundle: %w", err)
	}
	return nil
}

// Bundle is a parsed NMBC file.
type Bundle struct {
	Version uint32
	Sources [][]byte
}

// ReadBundle parses the NMBC bundle at path.
func ReadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script bundle: %w", err)
	}
	reader := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(reader, magic[:]); err != nil {
		return nil, fmt.Errorf("reading bundle magic: %w", err)
	}
	if magic != bundleMagic {
		return nil, fmt.Errorf("not a script bundle (invalid magic bytes)")
	}

	var scratch [4]byte
	if _, err := io.ReadFull(reader, scratch[:]); err != nil {
		return nil, fmt.Errorf("reading bundle version: %w", err)
	}
	bundle := &Bundle{Version: binary.LittleEndian.Uint32(scratch[:])}
	if bundle.Version != BundleVersion {
		return nil, fmt.Errorf("bundle version %d is not supported (this code supports %d)",
			bundle.Version, BundleVersion)
	}

	if _, err := io.ReadFull(reader, scratch[:]); err != nil {
		return nil, fmt.Errorf("reading script count: %w", err)
	}
	count := binary.LittleEndian.Uint32(scratch[:])

	bundle.Sources = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(reader, scratch[:]); err != nil {
			return nil, fmt.Errorf("reading script %d length: %w", i, err)
		}
		length := binary.LittleEndian.Uint32(scratch[:])
		source := make([]byte, length)
		if _, err := io.ReadFull(reader, source); err != nil {
			return nil, fmt.Errorf("reading script %d source (%d bytes): %w", i, length, err)
		}
		bundle.Sources = append(bundle.Sources, source)
	}
	return bundle, nil
}
