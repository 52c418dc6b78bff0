// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
)

// ErrBadMagic reports a file that exists and is readable but does not
// start with the pack header magic. Build verification treats this as
// a warning, unlike read failures, which are fatal.
var ErrBadMagic = errors.New("invalid pack magic")

// Reader provides random access to the resources of an existing pack.
// The underlying file stays open until Close.
type Reader struct {
	file *os.File
	info Info
}

// Open opens the pack at path and parses its header, resource table,
// string table, and footer. Every structural invariant the writer
// guarantees is checked: region offsets must be self-consistent, the
// recorded total size must match the file, and every table entry must
// lie inside the data section.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pack: %w", err)
	}
	success := false
	defer func() {
		if !success {
			file.Close()
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pack: %w", err)
	}
	fileSize := uint64(stat.Size())
	if fileSize < HeaderSize+FooterSize {
		return nil, fmt.Errorf("pack is %d bytes, smaller than header and footer (%d)",
			fileSize, HeaderSize+FooterSize)
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		return nil, fmt.Errorf("reading pack header: %w", err)
	}
	if !bytes.Equal(header[0:4], magicHeader[:]) {
		return nil, fmt.Errorf("%s: %w", path, ErrBadMagic)
	}

	info := Info{
		Path:                path,
		VersionMajor:        binary.LittleEndian.Uint16(header[4:6]),
		VersionMinor:        binary.LittleEndian.Uint16(header[6:8]),
		Flags:               binary.LittleEndian.Uint32(header[8:12]),
		ResourceCount:       binary.LittleEndian.Uint32(header[12:16]),
		ResourceTableOffset: binary.LittleEndian.Uint64(header[16:24]),
		StringTableOffset:   binary.LittleEndian.Uint64(header[24:32]),
		DataOffset:          binary.LittleEndian.Uint64(header[32:40]),
		TotalFileSize:       binary.LittleEndian.Uint64(header[40:48]),
	}
	info.Encrypted = info.Flags&FlagEncrypted != 0
	info.Compressed = info.Flags&FlagCompressed != 0

	if info.VersionMajor != VersionMajor {
		return nil, fmt.Errorf("pack version %d.%d is not supported (this code supports %d.x)",
			info.VersionMajor, info.VersionMinor, VersionMajor)
	}

	// Offset self-consistency. The writer derives all of these from the
	// resource count and name blob, so disagreement means corruption.
	count := uint64(info.ResourceCount)
	if info.ResourceTableOffset != HeaderSize {
		return nil, fmt.Errorf("resource table offset %d, want %d", info.ResourceTableOffset, HeaderSize)
	}
	wantStringOffset := uint64(HeaderSize) + count*EntrySize
	if info.StringTableOffset != wantStringOffset {
		return nil, fmt.Errorf("string table offset %d does not match resource count %d (want %d)",
			info.StringTableOffset, info.ResourceCount, wantStringOffset)
	}
	minDataOffset := wantStringOffset + 4 + 4*count
	if info.DataOffset < minDataOffset {
		return nil, fmt.Errorf("data offset %d overlaps the string table (minimum %d)",
			info.DataOffset, minDataOffset)
	}
	if info.TotalFileSize != fileSize {
		return nil, fmt.Errorf("recorded file size %d does not match actual size %d",
			info.TotalFileSize, fileSize)
	}
	if info.DataOffset > fileSize-FooterSize {
		return nil, fmt.Errorf("data offset %d is beyond the footer", info.DataOffset)
	}

	// Resource table.
	entries := make([]Entry, info.ResourceCount)
	nameOffsets := make([]uint32, info.ResourceCount)
	for i := range entries {
		var entryBytes [EntrySize]byte
		if _, err := io.ReadFull(file, entryBytes[:]); err != nil {
			return nil, fmt.Errorf("reading resource table entry %d: %w", i, err)
		}
		nameOffsets[i] = binary.LittleEndian.Uint32(entryBytes[0:4])
		entries[i] = Entry{
			Type:             binary.LittleEndian.Uint32(entryBytes[4:8]),
			DataOffset:       binary.LittleEndian.Uint64(entryBytes[8:16]),
			CompressedSize:   binary.LittleEndian.Uint64(entryBytes[16:24]),
			UncompressedSize: binary.LittleEndian.Uint64(entryBytes[24:32]),
			Flags:            binary.LittleEndian.Uint32(entryBytes[32:36]),
			CRC32:            binary.LittleEndian.Uint32(entryBytes[36:40]),
		}
	}

	// String table.
	var countBytes [4]byte
	if _, err := io.ReadFull(file, countBytes[:]); err != nil {
		return nil, fmt.Errorf("reading string table count: %w", err)
	}
	if stringCount := binary.LittleEndian.Uint32(countBytes[:]); stringCount != info.ResourceCount {
		return nil, fmt.Errorf("string table count %d does not match resource count %d",
			stringCount, info.ResourceCount)
	}
	if _, err := file.Seek(int64(4*count), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("skipping string table offsets: %w", err)
	}
	blob := make([]byte, info.DataOffset-minDataOffset)
	if _, err := io.ReadFull(file, blob); err != nil {
		return nil, fmt.Errorf("reading string table names: %w", err)
	}
	for i := range entries {
		offset := nameOffsets[i]
		if uint64(offset) >= uint64(len(blob)) {
			return nil, fmt.Errorf("entry %d name offset %d outside string blob (%d bytes)",
				i, offset, len(blob))
		}
		end := bytes.IndexByte(blob[offset:], 0)
		if end < 0 {
			return nil, fmt.Errorf("entry %d name at offset %d is not null-terminated", i, offset)
		}
		entries[i].Name = string(blob[offset : int(offset)+end])
	}

	// Every payload must fit inside the data section.
	dataLength := fileSize - FooterSize - info.DataOffset
	for i, entry := range entries {
		if entry.DataOffset+entry.CompressedSize > dataLength {
			return nil, fmt.Errorf("entry %d (%s) extends beyond the data section", i, entry.Name)
		}
	}

	// Footer.
	if _, err := file.Seek(int64(fileSize-FooterSize), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to pack footer: %w", err)
	}
	var footer [FooterSize]byte
	if _, err := io.ReadFull(file, footer[:]); err != nil {
		return nil, fmt.Errorf("reading pack footer: %w", err)
	}
	if !bytes.Equal(footer[0:4], magicFooter[:]) {
		return nil, fmt.Errorf("pack footer: %w", ErrBadMagic)
	}
	info.Timestamp = time.Unix(int64(binary.LittleEndian.Uint64(footer[8:16])), 0).UTC()
	info.BuildNumber = binary.LittleEndian.Uint32(footer[16:20])
	info.Entries = entries

	success = true
	return &Reader{file: file, info: info}, nil
}

// Info returns the parsed pack metadata.
func (r *Reader) Info() Info { return r.info }

// Entries returns the resource table. The slice is shared; callers
// must not modify it.
func (r *Reader) Entries() []Entry { return r.info.Entries }

// ResourceData reads and decodes the payload of the entry at index.
// The codec must match what the pack was written with; nil selects the
// Null codec. When the entry carries a checksum, the stored bytes are
// verified against it before decoding.
func (r *Reader) ResourceData(index int, codec packcodec.Codec) ([]byte, error) {
	if index < 0 || index >= len(r.info.Entries) {
		return nil, fmt.Errorf("resource index %d out of range [0, %d)", index, len(r.info.Entries))
	}
	if codec == nil {
		codec = packcodec.Null{}
	}
	entry := r.info.Entries[index]

	var stored []byte
	if entry.CompressedSize > 0 {
		stored = make([]byte, entry.CompressedSize)
		offset := int64(r.info.DataOffset + entry.DataOffset)
		if _, err := r.file.ReadAt(stored, offset); err != nil {
			return nil, fmt.Errorf("reading resource %s (%d bytes at %d): %w",
				entry.Name, entry.CompressedSize, offset, err)
		}
	}

	if entry.CRC32 != 0 {
		if actual := codec.Checksum(stored); actual != entry.CRC32 {
			return nil, fmt.Errorf("resource %s checksum mismatch: recorded %08x, computed %08x",
				entry.Name, entry.CRC32, actual)
		}
	}

	data, err := codec.DecodeResource(stored, entry.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("decoding resource %s: %w", entry.Name, err)
	}
	return data, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.file.Close() }

// VerifyMagic checks that the file at path begins with the pack header
// magic. A file too short to hold the magic counts as a mismatch, not
// a read failure. Open and read failures are returned as-is (wrapped);
// a mismatch wraps ErrBadMagic so callers can treat the two
// differently.
func VerifyMagic(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening pack: %w", err)
	}
	defer file.Close()

	var magic [4]byte
	if _, err := io.ReadFull(file, magic[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%s: %w", path, ErrBadMagic)
		}
		return fmt.Errorf("reading pack magic: %w", err)
	}
	if magic != magicHeader {
		return fmt.Errorf("%s: %w", path, ErrBadMagic)
	}
	return nil
}

// Inspect opens the pack at path and returns its parsed metadata.
func Inspect(path string) (*Info, error) {
	reader, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	info := reader.Info()
	return &info, nil
}
