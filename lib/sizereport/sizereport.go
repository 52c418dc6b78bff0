// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package sizereport analyzes a project's asset footprint: per-category
// size breakdown, duplicate detection via content hashing, and
// optimization suggestions, exportable as JSON, HTML, or CSV.
//
// Analysis is synchronous, read-only, and re-entrant: Analyze walks
// the project, builds a fresh Analysis, and never modifies project
// files. The Apply/Remove operations are declared but not implemented;
// they return ErrNotImplemented until asset rewriting lands.
package sizereport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/asset"
	"github.com/novelmind-foundation/nmbuild/lib/clock"
	"github.com/novelmind-foundation/nmbuild/lib/contenthash"
	"github.com/novelmind-foundation/nmbuild/lib/script"
)

// ErrNotImplemented marks analyzer operations that are declared but
// not built yet.
var ErrNotImplemented = errors.New("not yet implemented")

// Compression identifies the source encoding of an asset, inferred
// from its extension.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionPng
	CompressionJpeg
	CompressionOgg
)

func (c Compression) String() string {
	switch c {
	case CompressionPng:
		return "png"
	case CompressionJpeg:
		return "jpeg"
	case CompressionOgg:
		return "ogg"
	default:
		return "none"
	}
}

func detectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return CompressionPng
	case ".jpg", ".jpeg":
		return CompressionJpeg
	case ".ogg":
		return CompressionOgg
	default:
		return CompressionNone
	}
}

// Config controls what the analyzer scans and which passes run.
type Config struct {
	// ProjectDir is the project root to analyze.
	ProjectDir string

	// Per-category toggles for the assets/ walk. Data and
	// uncategorized files are both gated by AnalyzeOther.
	AnalyzeImages  bool
	AnalyzeAudio   bool
	AnalyzeScripts bool
	AnalyzeFonts   bool
	AnalyzeVideo   bool
	AnalyzeOther   bool

	// ExcludePatterns are substrings; an asset path containing any of
	// them is skipped.
	ExcludePatterns []string

	// Size thresholds above which images and audio are flagged as
	// oversized.
	LargeImageThreshold int64
	LargeAudioThreshold int64

	DetectDuplicates    bool
	DetectUnused        bool
	GenerateSuggestions bool

	// StrongHash selects full-content BLAKE3 hashing for duplicate
	// detection instead of the fast sampled hash.
	StrongHash bool
}

// DefaultConfig returns a Config with every pass enabled and the
// stock oversize thresholds.
func DefaultConfig(projectDir string) Config {
	return Config{
		ProjectDir:          projectDir,
		AnalyzeImages:       true,
		AnalyzeAudio:        true,
		AnalyzeScripts:      true,
		AnalyzeFonts:        true,
		AnalyzeVideo:        true,
		AnalyzeOther:        true,
		LargeImageThreshold: 5 * 1024 * 1024,
		LargeAudioThreshold: 10 * 1024 * 1024,
		DetectDuplicates:    true,
		DetectUnused:        true,
		GenerateSuggestions: true,
	}
}

// AssetInfo is the per-file analysis record.
type AssetInfo struct {
	Path     string
	Name     string
	Category asset.Category

	OriginalSize   int64
	CompressedSize int64

	Compression      Compression
	CompressionRatio float64

	Oversized   bool
	Duplicate   bool
	DuplicateOf string
	Unused      bool

	// Notes are per-asset observations ("Consider reducing image
	// size...").
	Notes []string
}

// DuplicateGroup is a set of byte-identical files. Paths[0] is the
// canonical copy; the rest are redundant.
type DuplicateGroup struct {
	Hash           string
	Paths          []string
	SingleFileSize int64

	// WastedSpace is SingleFileSize times the number of redundant
	// copies.
	WastedSpace int64
}

// SuggestionKind classifies an optimization suggestion.
type SuggestionKind uint8

const (
	SuggestRemoveDuplicate SuggestionKind = iota
	SuggestCompressImage
	SuggestCompressAudio
	SuggestRemoveUnused
)

func (k SuggestionKind) String() string {
	switch k {
	case SuggestRemoveDuplicate:
		return "RemoveDuplicate"
	case SuggestCompressImage:
		return "CompressImage"
	case SuggestCompressAudio:
		return "CompressAudio"
	case SuggestRemoveUnused:
		return "RemoveUnused"
	default:
		return "Unknown"
	}
}

// Priority ranks how much a suggestion matters.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// Suggestion is one actionable optimization.
type Suggestion struct {
	Kind             SuggestionKind
	Priority         Priority
	AssetPath        string
	Description      string
	EstimatedSavings int64
	AutoFixable      bool
}

// CategorySummary aggregates one asset category.
type CategorySummary struct {
	Category                asset.Category
	FileCount               int
	TotalOriginalSize       int64
	TotalCompressedSize     int64
	PercentageOfTotal       float64
	AverageCompressionRatio float64
}

// Analysis is the complete result of one analyzer run.
type Analysis struct {
	Assets       []AssetInfo
	Duplicates   []DuplicateGroup
	UnusedAssets []string
	Suggestions  []Suggestion
	Categories   []CategorySummary

	TotalOriginalSize       int64
	TotalCompressedSize     int64
	TotalFileCount          int
	OverallCompressionRatio float64
	TotalWastedSpace        int64
	UnusedSpace             int64
	PotentialSavings        int64

	Duration   time.Duration
	AnalyzedAt time.Time
}

// Observer receives analyzer lifecycle callbacks. All callbacks run on
// the goroutine that called Analyze.
type Observer interface {
	AnalysisStarted()
	AnalysisProgress(task string, fraction float64)
	AnalysisCompleted(analysis *Analysis)
}

// Analyzer runs size analyses over one project.
type Analyzer struct {
	config    Config
	clock     clock.Clock
	observers []Observer

	// last is the most recent Analysis, kept for the apply
	// operations.
	last *Analysis
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock injects the time source used for durations and the
// analysis timestamp.
func WithClock(c clock.Clock) Option {
	return func(a *Analyzer) { a.clock = c }
}

// NewAnalyzer returns an Analyzer for cfg.
func NewAnalyzer(cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{config: cfg, clock: clock.Real()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddObserver registers an observer for subsequent Analyze calls.
func (a *Analyzer) AddObserver(o Observer) {
	if o != nil {
		a.observers = append(a.observers, o)
	}
}

func (a *Analyzer) reportProgress(task string, fraction float64) {
	for _, o := range a.observers {
		o.AnalysisProgress(task, fraction)
	}
}

// Analyze walks the project and produces a fresh Analysis. A missing
// project or assets directory yields an empty analysis, not an error;
// unreadable directory entries abort with one.
func (a *Analyzer) Analyze() (*Analysis, error) {
	started := a.clock.Now()
	for _, o := range a.observers {
		o.AnalysisStarted()
	}
	a.last = nil

	analysis := &Analysis{}

	a.reportProgress("Scanning assets...", 0)
	if err := a.scan(analysis); err != nil {
		return nil, err
	}

	a.reportProgress("Analyzing assets...", 0.2)
	hasher := contenthash.ForConfig(a.config.StrongHash)
	hashes := make(map[string][]string)
	for i := range analysis.Assets {
		info := &analysis.Assets[i]
		a.analyzeAsset(info, hasher, hashes)
		analysis.TotalOriginalSize += info.OriginalSize
		analysis.TotalCompressedSize += info.CompressedSize
		a.reportProgress("Analyzing: "+info.Name,
			0.2+0.3*float64(i)/float64(len(analysis.Assets)))
	}

	if a.config.DetectDuplicates {
		a.reportProgress("Detecting duplicates...", 0.5)
		detectDuplicates(analysis, hashes)
	}
	if a.config.DetectUnused {
		a.reportProgress("Detecting unused assets...", 0.6)
		detectUnused(analysis)
	}
	if a.config.GenerateSuggestions {
		a.reportProgress("Generating suggestions...", 0.8)
		generateSuggestions(analysis)
	}

	a.reportProgress("Calculating summaries...", 0.9)
	calculateSummaries(analysis)

	analysis.Duration = a.clock.Since(started)
	analysis.AnalyzedAt = a.clock.Now()
	a.reportProgress("Analysis complete", 1.0)

	a.last = analysis
	for _, o := range a.observers {
		o.AnalysisCompleted(analysis)
	}
	return analysis, nil
}

// scan collects candidate files: everything under assets/ that passes
// the category toggles and exclude patterns, plus NMScript sources
// under scripts/ when script analysis is on.
func (a *Analyzer) scan(analysis *Analysis) error {
	projectDir := a.config.ProjectDir
	if projectDir == "" {
		return nil
	}
	if _, err := os.Stat(projectDir); err != nil {
		return nil
	}

	assetsDir := filepath.Join(projectDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		walkErr := filepath.WalkDir(assetsDir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			category := asset.Classify(path)
			if !a.analyzesCategory(category) || a.excluded(path) {
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				return err
			}
			analysis.Assets = append(analysis.Assets, AssetInfo{
				Path:           path,
				Name:           entry.Name(),
				Category:       category,
				OriginalSize:   info.Size(),
				CompressedSize: info.Size(),
			})
			return nil
		})
		if walkErr != nil {
			return fmt.Errorf("scanning assets directory: %w", walkErr)
		}
	}

	if a.config.AnalyzeScripts {
		scriptsDir := filepath.Join(projectDir, "scripts")
		if _, err := os.Stat(scriptsDir); err == nil {
			walkErr := filepath.WalkDir(scriptsDir, func(path string, entry fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !entry.Type().IsRegular() || !script.IsScript(path) {
					return nil
				}
				info, err := entry.Info()
				if err != nil {
					return err
				}
				analysis.Assets = append(analysis.Assets, AssetInfo{
					Path:           path,
					Name:           entry.Name(),
					Category:       asset.CategoryScripts,
					OriginalSize:   info.Size(),
					CompressedSize: info.Size(),
				})
				return nil
			})
			if walkErr != nil {
				return fmt.Errorf("scanning scripts directory: %w", walkErr)
			}
		}
	}

	analysis.TotalFileCount = len(analysis.Assets)
	return nil
}

func (a *Analyzer) analyzesCategory(c asset.Category) bool {
	switch c {
	case asset.CategoryImages:
		return a.config.AnalyzeImages
	case asset.CategoryAudio:
		return a.config.AnalyzeAudio
	case asset.CategoryScripts:
		return a.config.AnalyzeScripts
	case asset.CategoryFonts:
		return a.config.AnalyzeFonts
	case asset.CategoryVideo:
		return a.config.AnalyzeVideo
	default:
		return a.config.AnalyzeOther
	}
}

func (a *Analyzer) excluded(path string) bool {
	for _, pattern := range a.config.ExcludePatterns {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// analyzeAsset fills in the per-file fields and tracks the content
// hash for duplicate detection. A file that cannot be hashed simply
// stays out of duplicate detection; everything else about it is still
// analyzed.
func (a *Analyzer) analyzeAsset(info *AssetInfo, hasher contenthash.Hasher, hashes map[string][]string) {
	if hash, err := hasher(info.Path); err == nil {
		hashes[hash] = append(hashes[hash], info.Path)
	}

	info.Compression = detectCompression(info.Path)
	info.CompressionRatio = 1.0

	if info.Category == asset.CategoryImages && info.OriginalSize > a.config.LargeImageThreshold {
		info.Oversized = true
		info.Notes = append(info.Notes,
			"Consider reducing image size or using better compression")
	}
	if info.Category == asset.CategoryAudio && info.OriginalSize > a.config.LargeAudioThreshold {
		info.Oversized = true
		info.Notes = append(info.Notes,
			"Consider using OGG Vorbis compression or reducing quality")
	}
}

// detectDuplicates groups assets whose content hashes collide. The
// first scanned path in each group is the canonical copy; later paths
// are marked as duplicates of it. Groups are emitted in sorted hash
// order so repeated runs produce identical analyses.
func detectDuplicates(analysis *Analysis, hashes map[string][]string) {
	keys := make([]string, 0, len(hashes))
	for hash, paths := range hashes {
		if len(paths) > 1 {
			keys = append(keys, hash)
		}
	}
	slices.Sort(keys)

	for _, hash := range keys {
		paths := hashes[hash]
		group := DuplicateGroup{Hash: hash, Paths: paths}
		if canonical := assetByPath(analysis, paths[0]); canonical != nil {
			group.SingleFileSize = canonical.OriginalSize
		}
		group.WastedSpace = group.SingleFileSize * int64(len(paths)-1)
		analysis.TotalWastedSpace += group.WastedSpace

		for _, path := range paths[1:] {
			if info := assetByPath(analysis, path); info != nil {
				info.Duplicate = true
				info.DuplicateOf = paths[0]
			}
		}
		analysis.Duplicates = append(analysis.Duplicates, group)
	}
}

func assetByPath(analysis *Analysis, path string) *AssetInfo {
	for i := range analysis.Assets {
		if analysis.Assets[i].Path == path {
			return &analysis.Assets[i]
		}
	}
	return nil
}

// detectUnused would cross-reference assets against script and scene
// references. Reference discovery is not implemented, so nothing is
// marked unused and UnusedAssets stays empty.
func detectUnused(*Analysis) {}

// generateSuggestions derives the optimization list: one removal per
// duplicate group, one compression suggestion per oversized image or
// audio file, one removal per unused asset. Sorted by estimated
// savings, biggest first.
func generateSuggestions(analysis *Analysis) {
	for _, group := range analysis.Duplicates {
		suggestion := Suggestion{
			Kind:             SuggestRemoveDuplicate,
			Priority:         PriorityHigh,
			AssetPath:        group.Paths[1],
			Description:      "Remove duplicate file (same content as " + group.Paths[0] + ")",
			EstimatedSavings: group.SingleFileSize,
			AutoFixable:      true,
		}
		analysis.Suggestions = append(analysis.Suggestions, suggestion)
		analysis.PotentialSavings += suggestion.EstimatedSavings
	}

	for _, info := range analysis.Assets {
		if info.Category == asset.CategoryImages && info.Oversized {
			suggestion := Suggestion{
				Kind:      SuggestCompressImage,
				Priority:  PriorityMedium,
				AssetPath: info.Path,
				Description: "Large image detected (" + FormatBytes(info.OriginalSize) +
					"). Consider resizing or compressing.",
				EstimatedSavings: info.OriginalSize / 2,
			}
			analysis.Suggestions = append(analysis.Suggestions, suggestion)
			analysis.PotentialSavings += suggestion.EstimatedSavings
		}
		if info.Category == asset.CategoryAudio && info.Oversized {
			suggestion := Suggestion{
				Kind:      SuggestCompressAudio,
				Priority:  PriorityMedium,
				AssetPath: info.Path,
				Description: "Large audio file detected (" + FormatBytes(info.OriginalSize) +
					"). Consider using OGG Vorbis.",
				EstimatedSavings: info.OriginalSize / 3,
			}
			analysis.Suggestions = append(analysis.Suggestions, suggestion)
			analysis.PotentialSavings += suggestion.EstimatedSavings
		}
	}

	for _, path := range analysis.UnusedAssets {
		info := assetByPath(analysis, path)
		if info == nil {
			continue
		}
		suggestion := Suggestion{
			Kind:             SuggestRemoveUnused,
			Priority:         PriorityHigh,
			AssetPath:        info.Path,
			Description:      "Asset appears to be unused",
			EstimatedSavings: info.OriginalSize,
			AutoFixable:      true,
		}
		analysis.Suggestions = append(analysis.Suggestions, suggestion)
		analysis.PotentialSavings += suggestion.EstimatedSavings
	}

	sort.SliceStable(analysis.Suggestions, func(i, j int) bool {
		return analysis.Suggestions[i].EstimatedSavings > analysis.Suggestions[j].EstimatedSavings
	})
}

// calculateSummaries aggregates per-category totals, sorted by size
// with the biggest category first.
func calculateSummaries(analysis *Analysis) {
	var byCategory [asset.CategoryOther + 1]CategorySummary
	for _, info := range analysis.Assets {
		summary := &byCategory[info.Category]
		summary.Category = info.Category
		summary.FileCount++
		summary.TotalOriginalSize += info.OriginalSize
		summary.TotalCompressedSize += info.CompressedSize
	}

	for _, summary := range byCategory {
		if summary.FileCount == 0 {
			continue
		}
		if analysis.TotalOriginalSize > 0 {
			summary.PercentageOfTotal = float64(summary.TotalOriginalSize) /
				float64(analysis.TotalOriginalSize) * 100
		}
		if summary.TotalOriginalSize > 0 {
			summary.AverageCompressionRatio = float64(summary.TotalCompressedSize) /
				float64(summary.TotalOriginalSize)
		}
		analysis.Categories = append(analysis.Categories, summary)
	}

	sort.SliceStable(analysis.Categories, func(i, j int) bool {
		return analysis.Categories[i].TotalOriginalSize > analysis.Categories[j].TotalOriginalSize
	})

	if analysis.TotalOriginalSize > 0 {
		analysis.OverallCompressionRatio = float64(analysis.TotalCompressedSize) /
			float64(analysis.TotalOriginalSize)
	}
}

// ApplySuggestion would rewrite project files to apply one
// optimization.
func (a *Analyzer) ApplySuggestion(s Suggestion) error {
	return fmt.Errorf("applying %s for %s: %w", s.Kind, s.AssetPath, ErrNotImplemented)
}

// ApplyAllAutoFixes attempts every auto-fixable suggestion from the
// last analysis and reports how many succeeded. Individual fixes are
// not implemented yet, so the count is always zero today.
func (a *Analyzer) ApplyAllAutoFixes() (int, error) {
	if a.last == nil {
		return 0, errors.New("no analysis to apply; run Analyze first")
	}
	applied := 0
	for _, suggestion := range a.last.Suggestions {
		if !suggestion.AutoFixable {
			continue
		}
		if err := a.ApplySuggestion(suggestion); err == nil {
			applied++
		}
	}
	return applied, nil
}

// RemoveDuplicates would delete redundant copies found by the last
// analysis.
func (a *Analyzer) RemoveDuplicates() error {
	return fmt.Errorf("duplicate removal: %w", ErrNotImplemented)
}

// RemoveUnusedAssets would delete assets the last analysis marked
// unused.
func (a *Analyzer) RemoveUnusedAssets() error {
	return fmt.Errorf("unused asset removal: %w", ErrNotImplemented)
}
