// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/novelmind-foundation/nmbuild/lib/clock"
	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
)

// Options configures pack writing. The zero value writes an unencrypted,
// uncompressed pack (Null codec) stamped with the real clock and build
// number 1.
type Options struct {
	// Codec transforms payloads on the way into the data section.
	// Nil selects packcodec.Null.
	Codec packcodec.Codec

	// Clock supplies the footer timestamp. Nil selects clock.Real().
	// Tests inject a fixed clock to make pack bytes fully
	// deterministic.
	Clock clock.Clock

	// BuildNumber is stamped into the footer. Zero means 1.
	BuildNumber uint32
}

func (o Options) withDefaults() Options {
	if o.Codec == nil {
		o.Codec = packcodec.Null{}
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.BuildNumber == 0 {
		o.BuildNumber = 1
	}
	return o
}

// Builder accumulates resources and writes them as a pack. Payloads are
// buffered in memory until [Builder.WriteTo]; packs are sized for
// per-project asset sets, not arbitrary bulk data.
//
// Typical usage:
//
//	builder := respack.NewBuilder()
//	if err := builder.Add("assets/title.png"); err != nil { ... }
//	if err := builder.WriteTo("packs/Base.nmres", opts); err != nil { ... }
type Builder struct {
	names    []string
	payloads [][]byte
}

// NewBuilder creates an empty pack builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add reads the file at path and appends it as a resource named by the
// file's basename. Any read failure is an error; a resource that
// cannot be read must fail the pack rather than silently vanish from
// it.
func (b *Builder) Add(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading resource %s: %w", path, err)
	}
	b.AddBytes(filepath.Base(path), data)
	return nil
}

// AddBytes appends an in-memory resource under the given name.
func (b *Builder) AddBytes(name string, data []byte) {
	b.names = append(b.names, name)
	b.payloads = append(b.payloads, data)
}

// Len returns the number of resources added so far.
func (b *Builder) Len() int { return len(b.names) }

// Reset discards all accumulated resources so the builder can be
// reused.
func (b *Builder) Reset() {
	b.names = b.names[:0]
	b.payloads = b.payloads[:0]
}

// WriteTo writes the pack to path. The pack is assembled in a temp
// file in the destination directory and renamed into place, so a
// failed write never leaves a partial pack at path. An empty builder
// writes a valid zero-resource pack (the base pack of a project with
// no assets is still written).
func (b *Builder) WriteTo(path string, opts Options) error {
	opts = opts.withDefaults()
	count := len(b.names)

	// Run every payload through the codec up front: entry sizes and
	// checksums must be known before the table is written.
	stored := make([][]byte, count)
	entries := make([]Entry, count)
	var cumulative uint64
	for i, payload := range b.payloads {
		encoded, err := opts.Codec.EncodeResource(payload)
		if err != nil {
			return fmt.Errorf("encoding resource %s: %w", b.names[i], err)
		}
		stored[i] = encoded
		entries[i] = Entry{
			Name:             b.names[i],
			Type:             ResourceTypeData,
			DataOffset:       cumulative,
			CompressedSize:   uint64(len(encoded)),
			UncompressedSize: uint64(len(payload)),
			CRC32:            opts.Codec.Checksum(encoded),
		}
		cumulative += uint64(len(encoded))
	}

	// Null-terminated name blob and per-entry offsets into it.
	var blob bytes.Buffer
	nameOffsets := make([]uint32, count)
	for i, name := range b.names {
		nameOffsets[i] = uint32(blob.Len())
		blob.WriteString(name)
		blob.WriteByte(0)
	}

	var flags uint32
	if opts.Codec.Encrypted() {
		flags |= FlagEncrypted
	}
	if opts.Codec.Compressed() {
		flags |= FlagCompressed
	}

	tableOffset := uint64(HeaderSize)
	stringOffset := tableOffset + uint64(count)*EntrySize
	dataStart := stringOffset + 4 + 4*uint64(count) + uint64(blob.Len())
	totalSize := dataStart + cumulative + FooterSize

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating pack directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".nmres-*")
	if err != nil {
		return fmt.Errorf("creating temp pack file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	// Header, with zero placeholders for the four offset fields.
	var header [HeaderSize]byte
	copy(header[0:4], magicHeader[:])
	binary.LittleEndian.PutUint16(header[4:6], VersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], VersionMinor)
	binary.LittleEndian.PutUint32(header[8:12], flags)
	binary.LittleEndian.PutUint32(header[12:16], uint32(count))
	if _, err := tmpFile.Write(header[:]); err != nil {
		return fmt.Errorf("writing pack header: %w", err)
	}

	// Resource table.
	for i, entry := range entries {
		var entryBytes [EntrySize]byte
		binary.LittleEndian.PutUint32(entryBytes[0:4], nameOffsets[i])
		binary.LittleEndian.PutUint32(entryBytes[4:8], entry.Type)
		binary.LittleEndian.PutUint64(entryBytes[8:16], entry.DataOffset)
		binary.LittleEndian.PutUint64(entryBytes[16:24], entry.CompressedSize)
		binary.LittleEndian.PutUint64(entryBytes[24:32], entry.UncompressedSize)
		binary.LittleEndian.PutUint32(entryBytes[32:36], entry.Flags)
		binary.LittleEndian.PutUint32(entryBytes[36:40], entry.CRC32)
		// entryBytes[40:48] is the reserved IV field, left zero.
		if _, err := tmpFile.Write(entryBytes[:]); err != nil {
			return fmt.Errorf("writing resource table entry %d: %w", i, err)
		}
	}

	// String table: count, offsets, name blob.
	var countBytes [4]byte
	binary.LittleEndian.PutUint32(countBytes[:], uint32(count))
	if _, err := tmpFile.Write(countBytes[:]); err != nil {
		return fmt.Errorf("writing string table count: %w", err)
	}
	for i, offset := range nameOffsets {
		var offsetBytes [4]byte
		binary.LittleEndian.PutUint32(offsetBytes[:], offset)
		if _, err := tmpFile.Write(offsetBytes[:]); err != nil {
			return fmt.Errorf("writing string table offset %d: %w", i, err)
		}
	}
	if _, err := tmpFile.Write(blob.Bytes()); err != nil {
		return fmt.Errorf("writing string table names: %w", err)
	}

	// Data section.
	for i, payload := range stored {
		if _, err := tmpFile.Write(payload); err != nil {
			return fmt.Errorf("writing resource %d data: %w", i, err)
		}
	}

	// Footer.
	var footer [FooterSize]byte
	copy(footer[0:4], magicFooter[:])
	// footer[4:8] is the reserved table checksum, left zero.
	binary.LittleEndian.PutUint64(footer[8:16], uint64(opts.Clock.Now().Unix()))
	binary.LittleEndian.PutUint32(footer[16:20], opts.BuildNumber)
	if _, err := tmpFile.Write(footer[:]); err != nil {
		return fmt.Errorf("writing pack footer: %w", err)
	}

	// Patch the real offsets over the header placeholders.
	var offsets [32]byte
	binary.LittleEndian.PutUint64(offsets[0:8], tableOffset)
	binary.LittleEndian.PutUint64(offsets[8:16], stringOffset)
	binary.LittleEndian.PutUint64(offsets[16:24], dataStart)
	binary.LittleEndian.PutUint64(offsets[24:32], totalSize)
	if _, err := tmpFile.Seek(headerOffsetFieldPos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to header offset fields: %w", err)
	}
	if _, err := tmpFile.Write(offsets[:]); err != nil {
		return fmt.Errorf("patching header offsets: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp pack file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming pack into place: %w", err)
	}
	success = true
	return nil
}

// WritePack reads every file in files and writes them as a pack at
// path. Resources are named by basename in the given order. Any
// unreadable input fails the whole pack.
func WritePack(path string, files []string, opts Options) error {
	builder := NewBuilder()
	for _, file := range files {
		if err := builder.Add(file); err != nil {
			return err
		}
	}
	return builder.WriteTo(path, opts)
}
