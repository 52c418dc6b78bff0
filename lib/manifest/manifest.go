// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest defines the JSON entities exchanged between the
// build pipeline and the runtime: the resource manifest (VFS mapping),
// the pack index (load order), and the runtime configuration. It also
// loads the author-facing project.json, which tolerates JSONC comments
// since project files are edited by hand.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Well-known file names within a project or build output.
const (
	ProjectFileName          = "project.json"
	ResourceManifestFileName = "resource_manifest.json"
	PacksIndexFileName       = "packs_index.json"
	RuntimeConfigFileName    = "runtime_config.json"
)

// FormatVersion is the schema version stamped into every emitted JSON
// entity.
const FormatVersion = "1.0"

// ResourceEntry maps one source file to its virtual filesystem path.
type ResourceEntry struct {
	Source  string `json:"source"`
	VFSPath string `json:"vfs_path"`
}

// ResourceManifest is the full VFS mapping for a build, written to the
// staging root during the index stage.
type ResourceManifest struct {
	Version       string          `json:"version"`
	ResourceCount int             `json:"resource_count"`
	Resources     []ResourceEntry `json:"resources"`
}

// PackEntry describes one produced pack in the pack index. Priority
// orders resolution in the runtime VFS: higher priority packs shadow
// lower ones.
type PackEntry struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Type      string `json:"type"`
	Priority  int    `json:"priority"`
	Locale    string `json:"locale,omitempty"`
	Encrypted bool   `json:"encrypted"`
}

// PacksIndex enumerates every produced pack and the default locale.
// Regenerated on every successful pack stage.
type PacksIndex struct {
	Version       string      `json:"version"`
	Packs         []PackEntry `json:"packs"`
	DefaultLocale string      `json:"default_locale"`
}

// RuntimeConfig is the runtime's bootstrap configuration, written into
// the bundle's config directory.
type RuntimeConfig struct {
	Version      string           `json:"version"`
	Game         GameInfo         `json:"game"`
	Localization LocalizationInfo `json:"localization"`
	Packs        PacksInfo        `json:"packs"`
	Runtime      RuntimeToggles   `json:"runtime"`
}

// GameInfo identifies the game a bundle was built from.
type GameInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LocalizationInfo lists the locales the build shipped.
type LocalizationInfo struct {
	DefaultLocale    string   `json:"default_locale"`
	AvailableLocales []string `json:"available_locales"`
}

// PacksInfo tells the runtime where to find packs and how to open
// them.
type PacksInfo struct {
	Directory string `json:"directory"`
	IndexFile string `json:"index_file"`
	Encrypted bool   `json:"encrypted"`
}

// RuntimeToggles carries the debug facilities enabled for this build.
type RuntimeToggles struct {
	EnableLogging      bool `json:"enable_logging"`
	EnableDebugConsole bool `json:"enable_debug_console"`
}

// Write serializes the manifest to path as indented JSON.
func (m *ResourceManifest) Write(path string) error {
	return writeJSON(path, m)
}

// Write serializes the index to path as indented JSON.
func (p *PacksIndex) Write(path string) error {
	return writeJSON(path, p)
}

// Write serializes the config to path as indented JSON.
func (r *RuntimeConfig) Write(path string) error {
	return writeJSON(path, r)
}

// LoadResourceManifest reads and parses a resource manifest.
func LoadResourceManifest(path string) (*ResourceManifest, error) {
	var manifest ResourceManifest
	if err := loadJSON(path, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// LoadPacksIndex reads and parses a pack index.
func LoadPacksIndex(path string) (*PacksIndex, error) {
	var index PacksIndex
	if err := loadJSON(path, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// LoadRuntimeConfig reads and parses a runtime configuration.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	var config RuntimeConfig
	if err := loadJSON(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func loadJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
