// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import "time"

// Ext is the pack file extension.
const Ext = ".nmres"

// Pack format constants. Changing any of them breaks compatibility
// with shipped runtimes.
const (
	// HeaderSize is the fixed pack header: 4-byte magic, two 2-byte
	// version fields, 4-byte flags, 4-byte resource count, four 8-byte
	// offsets, 16 reserved bytes.
	HeaderSize = 64

	// EntrySize is each resource table entry: 4-byte string offset,
	// 4-byte type, 8-byte data offset, two 8-byte sizes, 4-byte flags,
	// 4-byte CRC-32, 8-byte reserved IV.
	EntrySize = 48

	// FooterSize is the fixed pack footer: 4-byte magic, 4-byte table
	// checksum, 8-byte timestamp, 4-byte build number, 12 reserved
	// bytes.
	FooterSize = 32

	// VersionMajor and VersionMinor identify the pack layout revision.
	// Readers reject packs whose major version differs.
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0

	// ResourceTypeData tags file-backed data resources. The runtime
	// reserves other type values for memory-mapped and streaming
	// resources.
	ResourceTypeData uint32 = 0x08

	// headerOffsetFieldPos is the byte position of the first of the
	// four placeholder offset fields patched after the forward pass
	// (magic + versions + flags + count precede it).
	headerOffsetFieldPos = 16
)

// Header flag bits.
const (
	// FlagEncrypted marks packs whose payloads are encrypted.
	FlagEncrypted uint32 = 1 << 0

	// FlagCompressed marks packs whose payloads are compressed.
	FlagCompressed uint32 = 1 << 1
)

// Pack region magics.
var (
	magicHeader = [4]byte{'N', 'M', 'R', 'S'}
	magicFooter = [4]byte{'N', 'M', 'R', 'F'}
)

// Entry describes one resource in a pack.
type Entry struct {
	// Name is the resource identifier from the string table (the
	// source file's basename for file-backed resources).
	Name string

	// Type is the resource type tag (ResourceTypeData for everything
	// the build pipeline writes).
	Type uint32

	// DataOffset is the payload position relative to the start of the
	// data section.
	DataOffset uint64

	// CompressedSize is the stored payload length. Equal to
	// UncompressedSize under the Null codec.
	CompressedSize uint64

	// UncompressedSize is the original file length.
	UncompressedSize uint64

	// Flags is the per-resource flag word. Currently always zero.
	Flags uint32

	// CRC32 is the CRC-32 (IEEE) of the stored payload bytes, or zero
	// under the Null codec.
	CRC32 uint32
}

// Info summarizes a pack for inspection: the parsed header and footer
// plus the full resource table.
type Info struct {
	Path string

	VersionMajor uint16
	VersionMinor uint16
	Flags        uint32
	Encrypted    bool
	Compressed   bool

	ResourceCount       uint32
	ResourceTableOffset uint64
	StringTableOffset   uint64
	DataOffset          uint64
	TotalFileSize       uint64

	Timestamp   time.Time
	BuildNumber uint32

	Entries []Entry
}
