// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset classifies project files for indexing, packing, and
// size analysis. Classification is by file extension only: the build
// pipeline never sniffs content.
package asset

import (
	"fmt"
	"path"
	"strings"
)

// Category groups assets for size reporting and per-category analysis
// toggles. Categories are stored as integers in exported analysis
// reports, so these values are report-format constants.
type Category uint8

const (
	// CategoryImages covers raster image formats the runtime renders
	// directly.
	CategoryImages Category = 0

	// CategoryAudio covers music, voice, and effect formats.
	CategoryAudio Category = 1

	// CategoryScripts covers NovelMind scripts and script-adjacent
	// sources (lua, json) that ship alongside them.
	CategoryScripts Category = 2

	// CategoryFonts covers font files loaded by the text renderer.
	CategoryFonts Category = 3

	// CategoryVideo covers cutscene and movie formats.
	CategoryVideo Category = 4

	// CategoryData covers structured data files (xml, yaml, csv, raw
	// binary blobs).
	CategoryData Category = 5

	// CategoryOther is everything the table above does not claim.
	CategoryOther Category = 6
)

// String returns the human-readable name of a category.
func (c Category) String() string {
	switch c {
	case CategoryImages:
		return "Images"
	case CategoryAudio:
		return "Audio"
	case CategoryScripts:
		return "Scripts"
	case CategoryFonts:
		return "Fonts"
	case CategoryVideo:
		return "Video"
	case CategoryData:
		return "Data"
	case CategoryOther:
		return "Other"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// categoryByExtension maps a lowercased extension (without the dot) to
// its category. Extensions absent from the table are CategoryOther.
var categoryByExtension = map[string]Category{
	"png": CategoryImages, "jpg": CategoryImages, "jpeg": CategoryImages,
	"bmp": CategoryImages, "gif": CategoryImages, "webp": CategoryImages,
	"tga": CategoryImages,

	"ogg": CategoryAudio, "wav": CategoryAudio, "mp3": CategoryAudio,
	"flac": CategoryAudio, "aac": CategoryAudio, "m4a": CategoryAudio,

	"nms": CategoryScripts, "nmscript": CategoryScripts,
	"lua": CategoryScripts, "json": CategoryScripts,

	"ttf": CategoryFonts, "otf": CategoryFonts,
	"woff": CategoryFonts, "woff2": CategoryFonts,

	"mp4": CategoryVideo, "webm": CategoryVideo,
	"avi": CategoryVideo, "mkv": CategoryVideo,

	"xml": CategoryData, "yaml": CategoryData, "yml": CategoryData,
	"csv": CategoryData, "dat": CategoryData, "bin": CategoryData,
}

// Classify returns the category for a file path. Only the extension is
// consulted, case-insensitively.
func Classify(filePath string) Category {
	if category, ok := categoryByExtension[extension(filePath)]; ok {
		return category
	}
	return CategoryOther
}

// Kind identifies which processing path the index stage routes a file
// through. The processing table is narrower than the category table:
// formats without a dedicated processor fall through to the generic
// data copy.
type Kind uint8

const (
	KindImage Kind = iota
	KindAudio
	KindFont
	KindData
)

// String returns the human-readable name of a processing kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindFont:
		return "font"
	default:
		return "data"
	}
}

// ProcessingKind returns the index-stage processing route for a file.
func ProcessingKind(filePath string) Kind {
	switch extension(filePath) {
	case "png", "jpg", "jpeg", "bmp":
		return KindImage
	case "ogg", "wav", "mp3":
		return KindAudio
	case "ttf", "otf":
		return KindFont
	default:
		return KindData
	}
}

// MatchLocale reports which configured language a VFS path belongs to.
// A path is locale-specific when a language code appears as a leading
// path segment ("en/voice/a.ogg") or an interior one ("audio/en/a.ogg").
// Languages are checked in the given order; the first match wins.
func MatchLocale(vfsPath string, languages []string) (string, bool) {
	for _, language := range languages {
		if language == "" {
			continue
		}
		if strings.HasPrefix(vfsPath, language+"/") ||
			strings.Contains(vfsPath, "/"+language+"/") {
			return language, true
		}
	}
	return "", false
}

// extension returns the lowercased extension of a path without the
// leading dot.
func extension(filePath string) string {
	ext := path.Ext(strings.ReplaceAll(filePath, "\\", "/"))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
