// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package contenthash computes content identity hashes for duplicate
// detection in project trees.
//
// Two hash strengths are available. [Sample] is the fast default: it
// folds the file size and up to 2 KiB of sampled content, which is
// cheap enough to run over every asset on every analysis but can in
// principle collide on files that agree in size, head, and tail.
// [Strong] streams the whole file through BLAKE3 and cannot
// realistically collide; builds that rename files based on content
// identity should select it via configuration.
package contenthash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// sampleWindow is the number of bytes hashed from the head of the
// file, and again from the tail when the file is more than twice the
// window size.
const sampleWindow = 1024

// Hasher computes the content hash of the file at path. An unreadable
// file returns an error; callers must exclude such files from duplicate
// grouping rather than treating the failure as a shared identity.
type Hasher func(path string) (string, error)

// ForConfig returns the hasher selected by the strong-hash
// configuration flag.
func ForConfig(strong bool) Hasher {
	if strong {
		return Strong
	}
	return Sample
}

// Sample computes the sampled identity hash: a 64-bit accumulator
// seeded with the file size, folded over the first sampleWindow bytes
// with hash = hash*31 + byte, and additionally over the last
// sampleWindow bytes when the file is larger than 2*sampleWindow.
// The result is lowercase hex without leading zeros.
func Sample(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()

	hash := uint64(size)

	head := make([]byte, min(int64(sampleWindow), size))
	if _, err := io.ReadFull(file, head); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	for _, b := range head {
		hash = hash*31 + uint64(b)
	}

	if size > 2*sampleWindow {
		tail := make([]byte, sampleWindow)
		if _, err := file.ReadAt(tail, size-sampleWindow); err != nil {
			return "", fmt.Errorf("reading tail of %s: %w", path, err)
		}
		for _, b := range tail {
			hash = hash*31 + uint64(b)
		}
	}

	return fmt.Sprintf("%x", hash), nil
}

// Strong computes the full-content BLAKE3 digest of the file at path.
// The file is streamed through the hash in chunks to keep memory usage
// constant regardless of file size. The result is 64 lowercase hex
// characters.
func Strong(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
