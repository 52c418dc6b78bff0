// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package packcodec transforms resource payloads on their way into and
// out of .nmres pack files.
//
// A Codec is injected into the pack writer so that the container layout
// stays byte-stable while the payload treatment varies. Two
// implementations exist: [Null], which stores payloads untouched and
// reports zero checksums (the historical placeholder behavior that
// existing runtimes expect), and [Standard], which compresses by level,
// encrypts with XChaCha20-Poly1305 under a passphrase-derived key, and
// fills in real CRC-32 checksums.
//
// Standard payloads are self-describing: a one-byte compression frame
// tag precedes the payload, and encrypted blobs carry their own version
// byte and nonce. The container's per-entry IV field stays zero under
// both codecs.
package packcodec

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Level selects the compression effort for pack payloads. These values
// appear in build configuration files and CLI flags.
type Level uint8

const (
	// LevelNone stores payloads uncompressed.
	LevelNone Level = 0

	// LevelFast selects LZ4 block compression: modest ratios at
	// multi-GB/s decode speed, for iteration builds.
	LevelFast Level = 1

	// LevelBalanced selects zstd at its default level. The release
	// default.
	LevelBalanced Level = 2

	// LevelMaximum selects zstd at its best-compression level for
	// final distribution builds where encode time does not matter.
	LevelMaximum Level = 3
)

// String returns the configuration name of a level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelFast:
		return "fast"
	case LevelBalanced:
		return "balanced"
	case LevelMaximum:
		return "maximum"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// ParseLevel parses a compression level from its configuration name.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "none":
		return LevelNone, nil
	case "fast":
		return LevelFast, nil
	case "balanced":
		return LevelBalanced, nil
	case "maximum":
		return LevelMaximum, nil
	default:
		return 0, fmt.Errorf("unknown compression level: %q", name)
	}
}

// EstimateMultiplier returns the build-time cost factor applied by
// duration estimation for this level.
func (l Level) EstimateMultiplier() float64 {
	switch l {
	case LevelFast:
		return 1.2
	case LevelBalanced:
		return 1.5
	case LevelMaximum:
		return 2.0
	default:
		return 1.0
	}
}

// Codec transforms resource payloads for storage. EncodeResource is
// applied to the raw file bytes before they enter the pack data
// section; DecodeResource reverses it given the recorded uncompressed
// size. Checksum is computed over the stored (encoded) bytes.
// Compressed and Encrypted report which container header flags the
// codec implies.
type Codec interface {
	EncodeResource(data []byte) ([]byte, error)
	DecodeResource(data []byte, uncompressedSize uint64) ([]byte, error)
	Checksum(data []byte) uint32
	Compressed() bool
	Encrypted() bool
}

// ForConfig returns the codec implied by build configuration: Null when
// neither compression nor encryption is requested, otherwise a Standard
// codec.
func ForConfig(level Level, encrypt bool, passphrase string) Codec {
	if level == LevelNone && !encrypt {
		return Null{}
	}
	return NewStandard(level, encrypt, passphrase)
}

// Null is the placeholder codec: payloads are stored verbatim and the
// checksum is always zero. Pack entries written under Null satisfy
// compressedSize == uncompressedSize.
type Null struct{}

func (Null) EncodeResource(data []byte) ([]byte, error) { return data, nil }

func (Null) DecodeResource(data []byte, uncompressedSize uint64) ([]byte, error) {
	if uint64(len(data)) != uncompressedSize {
		return nil, fmt.Errorf("stored size %d does not match recorded size %d", len(data), uncompressedSize)
	}
	return data, nil
}

func (Null) Checksum([]byte) uint32 { return 0 }
func (Null) Compressed() bool       { return false }
func (Null) Encrypted() bool        { return false }

// Frame tags identify the compression applied to a Standard payload.
// The tag is the first byte of the (plaintext) payload frame. These
// values are pack format constants.
const (
	frameRaw  byte = 0
	frameLZ4  byte = 1
	frameZstd byte = 2
)

// encryptedBlobVersion is the version byte prepended to encrypted
// payloads. Included as additional authenticated data, so tampering
// with it fails authentication.
const encryptedBlobVersion byte = 0x01

// encryptedOverhead is the fixed byte overhead of an encrypted payload:
// version + XChaCha20 nonce + Poly1305 tag.
const encryptedOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoPackKey is the HKDF-SHA256 info string for deriving the pack
// payload key from the configured passphrase. Changing it invalidates
// every encrypted pack.
var hkdfInfoPackKey = []byte("novelmind.pack.key.v1")

// Standard compresses payloads by level and optionally encrypts them.
//
// The encryption key is derived from the configured passphrase with
// HKDF-SHA256. The passphrase ships inside the runtime distribution
// (the runtime must open its own packs), so the derivation favors
// cheap startup over brute-force hardening; pack encryption deters
// casual extraction, it is not a secrecy boundary.
type Standard struct {
	level Level
	key   []byte
}

// NewStandard builds a Standard codec. An empty passphrase with
// encryption requested derives a key from the empty string, which is
// valid but pointless; configuration validation rejects it earlier.
func NewStandard(level Level, encrypt bool, passphrase string) *Standard {
	codec := &Standard{level: level}
	if encrypt {
		reader := hkdf.New(sha256.New, []byte(passphrase), nil, hkdfInfoPackKey)
		key := make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(reader, key); err != nil {
			// HKDF-SHA256 cannot fail to produce 32 bytes.
			panic("packcodec: HKDF key derivation failed: " + err.Error())
		}
		codec.key = key
	}
	return codec
}

// EncodeResource compresses data per the codec level (falling back to
// a raw frame when compression does not shrink the payload), then
// encrypts the frame when a key is configured.
func (c *Standard) EncodeResource(data []byte) ([]byte, error) {
	frame, err := c.compressFrame(data)
	if err != nil {
		return nil, err
	}
	if c.key == nil {
		return frame, nil
	}
	return c.encrypt(frame)
}

// DecodeResource reverses EncodeResource: decrypt when a key is
// configured, then decompress per the frame tag and verify the
// recovered length against the recorded uncompressed size.
func (c *Standard) DecodeResource(data []byte, uncompressedSize uint64) ([]byte, error) {
	frame := data
	if c.key != nil {
		plaintext, err := c.decrypt(data)
		if err != nil {
			return nil, err
		}
		frame = plaintext
	}

	if len(frame) < 1 {
		return nil, fmt.Errorf("payload frame is empty")
	}
	tag, payload := frame[0], frame[1:]

	switch tag {
	case frameRaw:
		if uint64(len(payload)) != uncompressedSize {
			return nil, fmt.Errorf("raw payload is %d bytes, recorded size is %d", len(payload), uncompressedSize)
		}
		return payload, nil

	case frameLZ4:
		destination := make([]byte, uncompressedSize)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(read) != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
		}
		return destination, nil

	case frameZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint64(len(result)) != uncompressedSize {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported payload frame tag: %d", tag)
	}
}

// Checksum returns the CRC-32 (IEEE) of the stored bytes.
func (c *Standard) Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Compressed reports whether the codec level applies compression.
func (c *Standard) Compressed() bool { return c.level != LevelNone }

// Encrypted reports whether payloads are encrypted.
func (c *Standard) Encrypted() bool { return c.key != nil }

// compressFrame produces [tag][payload]. Incompressible data (and
// LevelNone) is stored under the raw tag so decoding never guesses.
func (c *Standard) compressFrame(data []byte) ([]byte, error) {
	switch c.level {
	case LevelNone:
		return rawFrame(data), nil

	case LevelFast:
		bound := lz4.CompressBlockBound(len(data))
		destination := make([]byte, 1+bound)
		destination[0] = frameLZ4
		written, err := lz4.CompressBlock(data, destination[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 when it determines the data is
		// incompressible; a result no smaller than the input is not
		// worth the frame either.
		if written == 0 || written >= len(data) {
			return rawFrame(data), nil
		}
		return destination[:1+written], nil

	case LevelBalanced, LevelMaximum:
		encoder := zstdDefault
		if c.level == LevelMaximum {
			encoder = zstdBest
		}
		compressed := encoder.EncodeAll(data, []byte{frameZstd})
		if len(compressed)-1 >= len(data) {
			return rawFrame(data), nil
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression level: %d", c.level)
	}
}

func rawFrame(data []byte) []byte {
	frame := make([]byte, 1+len(data))
	frame[0] = frameRaw
	copy(frame[1:], data)
	return frame
}

// encrypt seals a payload frame into the standard encrypted blob:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes (random)] [Ciphertext+Tag]
//
// The version byte is authenticated as AAD.
func (c *Standard) encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		panic("packcodec: XChaCha20-Poly1305 init failed (key must be 32 bytes): " + err.Error())
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	output := make([]byte, 1+chacha20poly1305.NonceSizeX, encryptedOverhead+len(plaintext))
	output[0] = encryptedBlobVersion
	copy(output[1:], nonce[:])
	return aead.Seal(output, nonce[:], plaintext, []byte{encryptedBlobVersion}), nil
}

// decrypt opens a blob produced by encrypt.
func (c *Standard) decrypt(blob []byte) ([]byte, error) {
	if len(blob) < encryptedOverhead {
		return nil, fmt.Errorf("encrypted payload is %d bytes, minimum is %d (version + nonce + tag)",
			len(blob), encryptedOverhead)
	}
	if blob[0] != encryptedBlobVersion {
		return nil, fmt.Errorf("encrypted payload version %d is not supported (expected %d)",
			blob[0], encryptedBlobVersion)
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		panic("packcodec: XChaCha20-Poly1305 init failed (key must be 32 bytes): " + err.Error())
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := blob[1+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte{blob[0]})
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key or tampered pack): %w", err)
	}
	return plaintext, nil
}

// zstd encoders and the decoder are reused across calls to avoid
// repeated initialization overhead. They are safe for concurrent use.
var (
	zstdDefault *zstd.Encoder
	zstdBest    *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdDefault, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("packcodec: zstd encoder initialization failed: " + err.Error())
	}
	zstdBest, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic("packcodec: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("packcodec: zstd decoder initialization failed: " + err.Error())
	}
}
