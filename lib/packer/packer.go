// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package packer partitions indexed resources into a base pack and
// per-language packs, writes each pack, and emits the pack index the
// runtime uses to mount them. Partitioning is total: every resource
// lands in exactly one pack, and a resource is language-specific iff
// its virtual path contains a configured language code as a path
// segment.
package packer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/novelmind-foundation/nmbuild/lib/asset"
	"github.com/novelmind-foundation/nmbuild/lib/manifest"
	"github.com/novelmind-foundation/nmbuild/lib/resindex"
	"github.com/novelmind-foundation/nmbuild/lib/respack"
)

// ProgressFunc reports orchestration progress as a fraction of the
// pack stage plus a human-readable task description.
type ProgressFunc func(fraction float64, task string)

// Type is a pack category. Runtime mount priority grows with the
// value: a Mod pack shadows a Language pack, which shadows the Base
// pack.
type Type uint8

const (
	TypeBase Type = iota
	TypePatch
	TypeDLC
	TypeLanguage
	TypeMod
)

// String returns the name used in packs_index.json.
func (t Type) String() string {
	switch t {
	case TypeBase:
		return "Base"
	case TypePatch:
		return "Patch"
	case TypeDLC:
		return "DLC"
	case TypeLanguage:
		return "Language"
	case TypeMod:
		return "Mod"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Priority returns the runtime mount priority for this pack type.
func (t Type) Priority() int { return int(t) }

// BaseFileName is the base pack's file name.
const BaseFileName = "Base" + respack.Ext

// LanguageFileName returns the pack file name for a language code.
func LanguageFileName(code string) string {
	return "Lang_" + code + respack.Ext
}

// Bucket is the set of resources destined for one language pack.
type Bucket struct {
	Code  string
	Files []resindex.Resource
}

// Plan assigns every resource to exactly one pack.
type Plan struct {
	Base      []resindex.Resource
	Languages []Bucket
}

// NewPlan partitions resources across the base pack and one bucket
// per configured language, in configuration order. A resource whose
// virtual path names several configured languages goes to the first
// match; everything else goes to base.
func NewPlan(resources []resindex.Resource, languages []string) *Plan {
	plan := &Plan{}
	bucketIndex := make(map[string]int, len(languages))
	for _, code := range languages {
		bucketIndex[code] = len(plan.Languages)
		plan.Languages = append(plan.Languages, Bucket{Code: code})
	}
	for _, resource := range resources {
		code, ok := asset.MatchLocale(resource.VFSPath, languages)
		if !ok {
			plan.Base = append(plan.Base, resource)
			continue
		}
		i := bucketIndex[code]
		plan.Languages[i].Files = append(plan.Languages[i].Files, resource)
	}
	return plan
}

// PackFile describes one pack written by WritePacks.
type PackFile struct {
	Type      Type
	Code      string // language code, empty for the base pack
	Path      string
	Resources int
}

// Outcome reports what WritePacks produced. Languages holds only the
// packs that were actually written; skipped and failed buckets appear
// in Warnings instead.
type Outcome struct {
	Base      PackFile
	Languages []PackFile
	Warnings  []string
}

// WritePacks writes Base.nmres and one Lang_<code>.nmres per language
// bucket into packsDir. Pack inputs are the staged copies under
// stagedRoot keyed by virtual path; a resource with no staged copy is
// left out (the index stage already reported why it is missing).
//
// The base pack is always written, even with zero resources, and a
// base write failure fails the whole call. A language bucket with no
// stageable files produces no pack, only a warning; so does a
// language pack write failure. Cancellation is checked between packs,
// never mid-pack, so an interrupted call leaves no torn files behind.
func WritePacks(ctx context.Context, plan *Plan, packsDir, stagedRoot string, opts respack.Options, progress ProgressFunc) (*Outcome, error) {
	if progress == nil {
		progress = func(float64, string) {}
	}
	outcome := &Outcome{}

	progress(0.1, "Building Base pack...")
	baseFiles := stagedFiles(plan.Base, stagedRoot)
	basePath := filepath.Join(packsDir, BaseFileName)
	if err := respack.WritePack(basePath, baseFiles, opts); err != nil {
		return nil, fmt.Errorf("building base pack: %w", err)
	}
	outcome.Base = PackFile{Type: TypeBase, Path: basePath, Resources: len(baseFiles)}

	for i, bucket := range plan.Languages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(0.3+0.6*float64(i)/float64(len(plan.Languages)),
			"Building language pack: "+bucket.Code)
		files := stagedFiles(bucket.Files, stagedRoot)
		if len(files) == 0 {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("language pack for %s has no files, skipping", bucket.Code))
			continue
		}
		path := filepath.Join(packsDir, LanguageFileName(bucket.Code))
		if err := respack.WritePack(path, files, opts); err != nil {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("failed to create language pack for %s: %v", bucket.Code, err))
			continue
		}
		outcome.Languages = append(outcome.Languages, PackFile{
			Type:      TypeLanguage,
			Code:      bucket.Code,
			Path:      path,
			Resources: len(files),
		})
	}
	return outcome, nil
}

func stagedFiles(resources []resindex.Resource, stagedRoot string) []string {
	var files []string
	for _, resource := range resources {
		path := filepath.Join(stagedRoot, filepath.FromSlash(resource.VFSPath))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		files = append(files, path)
	}
	return files
}

// WriteIndex emits packs_index.json for the given outcome. The base
// pack is always listed; language packs are listed only if their file
// is still present on disk.
func WriteIndex(path string, outcome *Outcome, encrypted bool, defaultLocale string) error {
	index := &manifest.PacksIndex{
		Version: manifest.FormatVersion,
		Packs: []manifest.PackEntry{{
			ID:        "base",
			Filename:  filepath.Base(outcome.Base.Path),
			Type:      TypeBase.String(),
			Priority:  TypeBase.Priority(),
			Encrypted: encrypted,
		}},
		DefaultLocale: defaultLocale,
	}
	for _, pack := range outcome.Languages {
		if _, err := os.Stat(pack.Path); err != nil {
			continue
		}
		index.Packs = append(index.Packs, manifest.PackEntry{
			ID:        "lang_" + pack.Code,
			Filename:  filepath.Base(pack.Path),
			Type:      TypeLanguage.String(),
			Priority:  TypeLanguage.Priority(),
			Locale:    pack.Code,
			Encrypted: encrypted,
		})
	}
	return index.Write(path)
}
