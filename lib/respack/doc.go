// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package respack reads and writes .nmres resource pack files, the
// unit of asset distribution for the NovelMind runtime.
//
// A pack is a single file with five regions, all integers
// little-endian:
//
//   - Header (64 bytes): "NMRS" magic, format version, flag bits for
//     encryption and compression, resource count, and the absolute
//     offsets of the resource table, string table, and data section,
//     plus the total file size. The offsets are written as zero
//     placeholders and patched in place once the regions land, so a
//     pack is written in one forward pass plus one seek.
//
//   - Resource table (48 bytes per entry): per-resource string table
//     offset, resource type tag, cumulative data offset (relative to
//     the data section), stored and original sizes, flag word, CRC-32
//     of the stored bytes, and an 8-byte reserved IV field that current
//     codecs leave zero (encrypted payloads carry their own nonce).
//
//   - String table: a count, a table of offsets into the name blob,
//     and null-terminated resource names. Names are file basenames;
//     the VFS-path-to-resource mapping ships separately in
//     resource_manifest.json.
//
//   - Data section: codec-transformed payloads back to back in table
//     order.
//
//   - Footer (32 bytes): "NMRF" magic, a reserved table checksum,
//     the build timestamp (Unix seconds), and the build number.
//
// Payload treatment is delegated to a packcodec.Codec injected through
// [Options]. Under the placeholder Null codec, stored bytes equal
// original bytes and every CRC is zero, which matches what shipped
// runtimes expect from historical packs.
//
// [Builder] accumulates resources in memory and writes the pack in one
// shot, through a temp file and an atomic rename so no partial pack is
// ever visible at the target path. [Reader] provides random access to
// entries of an existing pack; [Inspect] and [VerifyMagic] back the
// pack CLI commands.
package respack
