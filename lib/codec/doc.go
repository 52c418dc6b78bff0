// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration.
//
// The build tooling uses two serialization formats with a clear
// boundary:
//
//   - JSON for artifacts the game runtime and humans consume:
//     resource_manifest.json, packs_index.json, runtime_config.json,
//     analyzer exports, CLI --json output.
//   - CBOR for internal records: the machine-readable build record
//     written next to each finished build.
//
// This package provides the shared CBOR encoding and decoding modes so
// every package encodes identically without duplicating configuration.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes.
//
// Usage:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
package codec
