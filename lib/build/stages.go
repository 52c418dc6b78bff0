// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/asset"
	"github.com/novelmind-foundation/nmbuild/lib/clock"
	"github.com/novelmind-foundation/nmbuild/lib/manifest"
	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
	"github.com/novelmind-foundation/nmbuild/lib/packer"
	"github.com/novelmind-foundation/nmbuild/lib/resindex"
	"github.com/novelmind-foundation/nmbuild/lib/respack"
	"github.com/novelmind-foundation/nmbuild/lib/script"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

// stagingDirName is the work-in-progress directory under the output
// path. Its contents replace the output contents only after Verify
// passes.
const stagingDirName = ".staging"

func stagingPath(outputDir string) string {
	return filepath.Join(outputDir, stagingDirName)
}

// run is the per-build pipeline state. It lives on the build goroutine;
// everything shared with other goroutines goes through build.mu.
type run struct {
	build *Build
	cfg   Config
	ctx   context.Context
	clock clock.Clock

	staging string
	index   *resindex.Index

	stepStarted time.Time
	logLines    []string

	totalSize      int64
	compressedSize int64
}

// emit blocks until the consumer accepts the event. Used for
// everything that must not be lost: logs, stage boundaries, the final
// result.
func (r *run) emit(event Event) {
	r.build.events <- event
}

// emitProgress drops the event when the channel is full. A progress
// snapshot is superseded by the next one, so a slow consumer coalesces
// updates instead of stalling the pipeline.
func (r *run) emitProgress(event Event) {
	select {
	case r.build.events <- event:
	default:
	}
}

func (r *run) logAt(level slog.Level, message string) {
	now := r.clock.Now()
	line := fmt.Sprintf("%s %-5s %s", now.UTC().Format(time.RFC3339), level, message)

	b := r.build
	b.mu.Lock()
	switch level {
	case slog.LevelWarn:
		b.progress.Warnings = append(b.progress.Warnings, message)
	case slog.LevelError:
		b.progress.Errors = append(b.progress.Errors, message)
	default:
		b.progress.Infos = append(b.progress.Infos, message)
	}
	b.mu.Unlock()

	r.logLines = append(r.logLines, line)
	r.emit(Event{Kind: EventLog, Time: now, Level: level, Message: message})
}

func (r *run) logInfo(message string)  { r.logAt(slog.LevelInfo, message) }
func (r *run) warn(message string)     { r.logAt(slog.LevelWarn, message) }
func (r *run) logError(message string) { r.logAt(slog.LevelError, message) }

// runStage wraps one stage body with bookkeeping: begin/end events,
// duration, and the cancel-versus-failure distinction.
func (r *run) runStage(spec stageSpec) error {
	r.beginStep(spec)
	err := spec.run(r)
	switch {
	case err == nil:
		r.endStep(true, "")
	case r.ctx.Err() != nil:
		r.endStep(false, "Cancelled")
	default:
		r.endStep(false, err.Error())
	}
	return err
}

func (r *run) beginStep(spec stageSpec) {
	index := int(spec.phase - PhasePreflight)

	b := r.build
	b.mu.Lock()
	b.progress.CurrentStep = index
	b.mu.Unlock()

	r.stepStarted = r.clock.Now()
	r.logInfo("Starting: " + spec.name + " - " + spec.description)
	r.emit(Event{Kind: EventStageStarted, Time: r.stepStarted, Stage: spec.name})
	r.updateProgress(0, spec.description)
}

func (r *run) endStep(success bool, errorMessage string) {
	b := r.build
	b.mu.Lock()
	step := &b.progress.Steps[b.progress.CurrentStep]
	step.Completed = true
	step.Success = success
	step.Error = errorMessage
	step.Duration = r.clock.Since(r.stepStarted)
	snapshot := *step
	b.mu.Unlock()

	r.emit(Event{Kind: EventStageFinished, Time: r.clock.Now(), Stage: snapshot.Name, Step: &snapshot})
	if !success {
		r.logError("Step failed: " + errorMessage)
	}
}

// updateProgress recomputes the overall fraction from the weights of
// finished stages plus the current stage's weighted fraction, then
// publishes a droppable progress event.
func (r *run) updateProgress(fraction float64, task string) {
	b := r.build
	b.mu.Lock()
	p := &b.progress
	overall := 0.0
	for i := 0; i < p.CurrentStep && i < len(p.Steps); i++ {
		overall += p.Steps[i].Weight
	}
	var stage string
	if p.CurrentStep >= 0 && p.CurrentStep < len(p.Steps) {
		overall += p.Steps[p.CurrentStep].Weight * fraction
		stage = p.Steps[p.CurrentStep].Name
	}
	p.Overall = overall
	p.CurrentTask = task
	b.mu.Unlock()

	r.emitProgress(Event{
		Kind:     EventProgress,
		Time:     r.clock.Now(),
		Stage:    stage,
		Overall:  overall,
		Fraction: fraction,
		Task:     task,
	})
}

func (r *run) addProcessed(files int, bytes int64) {
	b := r.build
	b.mu.Lock()
	b.progress.FilesProcessed += files
	b.progress.BytesProcessed += bytes
	b.mu.Unlock()
}

func (r *run) setTotalFiles(n int) {
	b := r.build
	b.mu.Lock()
	b.progress.TotalFiles = n
	b.mu.Unlock()
}

// preflight validates the project layout, resets staging, and
// enumerates the project's scripts and assets.
func (r *run) preflight() error {
	r.updateProgress(0.1, "Validating project structure...")
	if issues := ValidateProject(r.cfg.ProjectDir); len(issues) > 0 {
		for _, issue := range issues {
			r.logError(issue)
		}
		return errors.New("project validation failed: " + strings.Join(issues, "; "))
	}

	r.updateProgress(0.5, "Creating output directories...")
	if err := r.resetStaging(); err != nil {
		return err
	}

	r.updateProgress(0.7, "Scanning script files...")
	index, err := resindex.Scan(r.cfg.ProjectDir)
	if err != nil {
		return err
	}
	r.index = index

	r.updateProgress(0.9, "Scanning asset files...")
	r.setTotalFiles(index.Len())
	r.logInfo(fmt.Sprintf("Found %d script files and %d asset files",
		len(index.Scripts()), len(index.Assets())))
	return nil
}

// resetStaging deletes any leftover staging tree and recreates the
// output skeleton inside it.
func (r *run) resetStaging() error {
	if err := os.RemoveAll(r.staging); err != nil {
		return fmt.Errorf("removing stale staging directory: %w", err)
	}
	for _, sub := range []string{"packs", "config", "logs", "saves"} {
		if err := os.MkdirAll(filepath.Join(r.staging, sub), 0o755); err != nil {
			return fmt.Errorf("creating staging directories: %w", err)
		}
	}
	return nil
}

// compile checks every script and bundles their sources into the
// staged compiled_scripts.bin. Structural problems are warnings; a
// script that cannot be read fails the stage after the full sweep so
// the log covers every broken file, not just the first.
func (r *run) compile() error {
	scripts := r.index.Scripts()
	if len(scripts) == 0 {
		r.logInfo("No script files to compile")
		return nil
	}

	compiledDir := filepath.Join(r.staging, "compiled")
	if err := os.MkdirAll(compiledDir, 0o755); err != nil {
		return fmt.Errorf("creating compiled directory: %w", err)
	}

	failed := false
	sources := make([]string, 0, len(scripts))
	for i, resource := range scripts {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		r.updateProgress(float64(i)/float64(len(scripts)),
			"Compiling: "+filepath.Base(resource.SourcePath))

		result := script.Check(resource.SourcePath)
		for _, msg := range result.Errors {
			failed = true
			r.logError(resource.SourcePath + ": " + msg)
		}
		for _, msg := range result.Warnings {
			r.warn(resource.SourcePath + ": " + msg)
		}
		sources = append(sources, resource.SourcePath)
		r.addProcessed(1, result.Size)
	}
	if failed {
		return errors.New("one or more scripts failed to compile")
	}

	if err := script.WriteBundle(filepath.Join(compiledDir, script.BundleFileName()), sources); err != nil {
		return err
	}
	r.logInfo(fmt.Sprintf("Compiled %d scripts successfully", len(scripts)))
	return nil
}

// indexAssets stages every resource under staging/assets/<vfs path>
// and writes resource_manifest.json. Scripts are staged under the
// scripts/ virtual prefix so the pack stage sees one uniform tree. A
// resource that fails to stage is a warning; the manifest still lists
// it so the miss is visible downstream.
func (r *run) indexAssets() error {
	all := r.index.Resources()
	if len(all) == 0 {
		r.logInfo("No assets to process")
	}

	stagedAssets := filepath.Join(r.staging, "assets")
	if err := os.MkdirAll(stagedAssets, 0o755); err != nil {
		return fmt.Errorf("creating staged assets directory: %w", err)
	}

	processed := 0
	for _, resource := range all {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		r.updateProgress(float64(processed)/float64(max(len(all), 1)),
			"Processing: "+filepath.Base(resource.SourcePath))

		dest := filepath.Join(stagedAssets, filepath.FromSlash(resource.VFSPath))
		size, err := stageResource(resource, dest)
		if err != nil {
			r.warn(fmt.Sprintf("Asset processing warning: %s - %v", resource.SourcePath, err))
		}
		processed++
		r.addProcessed(1, size)
	}

	if err := r.index.WriteManifest(filepath.Join(r.staging, manifest.ResourceManifestFileName)); err != nil {
		return err
	}
	r.logInfo(fmt.Sprintf("Processed %d assets", processed))
	return nil
}

// stageResource routes one resource to its type-specific processor.
func stageResource(resource resindex.Resource, dest string) (int64, error) {
	switch resource.Kind {
	case asset.KindImage:
		return processImage(resource.SourcePath, dest)
	case asset.KindAudio:
		return processAudio(resource.SourcePath, dest)
	case asset.KindFont:
		return processFont(resource.SourcePath, dest)
	default:
		return processData(resource.SourcePath, dest)
	}
}

// Type-specific processors. All of them currently copy bytes through
// unchanged; they are the insertion points for real image, audio, and
// font optimization passes.

func processImage(src, dest string) (int64, error) { return copyFile(src, dest) }
func processAudio(src, dest string) (int64, error) { return copyFile(src, dest) }
func processFont(src, dest string) (int64, error)  { return copyFile(src, dest) }
func processData(src, dest string) (int64, error)  { return copyFile(src, dest) }

func copyFile(src, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return written, err
}

// pack turns the staged resource tree into .nmres packs plus
// packs_index.json. With PackAssets off the stage only logs a skip;
// the staged raw assets ship as-is.
func (r *run) pack() error {
	if !r.cfg.PackAssets {
		r.logInfo("Skipping pack creation (packAssets=false)")
		return nil
	}

	packsDir := filepath.Join(r.staging, "packs")
	codec := packcodec.ForConfig(r.cfg.Compression, r.cfg.EncryptAssets, r.cfg.EncryptionKey)
	plan := packer.NewPlan(r.index.Resources(), r.cfg.IncludedLanguages)

	outcome, err := packer.WritePacks(r.ctx, plan, packsDir, filepath.Join(r.staging, "assets"),
		respack.Options{
			Codec:       codec,
			Clock:       r.clock,
			BuildNumber: r.cfg.BuildNumber,
		}, r.updateProgress)
	if err != nil {
		return err
	}
	for _, warning := range outcome.Warnings {
		r.warn(warning)
	}

	r.updateProgress(0.95, "Generating pack index...")
	indexPath := filepath.Join(packsDir, manifest.PacksIndexFileName)
	if err := packer.WriteIndex(indexPath, outcome, r.cfg.EncryptAssets, r.cfg.DefaultLanguage); err != nil {
		return err
	}

	r.logInfo(fmt.Sprintf("Created Base pack and %d language packs", len(outcome.Languages)))
	return nil
}

// verify checks the staged build before promotion: pack magic bytes,
// runtime config readability, the signing request, and final size
// statistics.
func (r *run) verify() error {
	r.updateProgress(0.2, "Verifying pack integrity...")
	packsDir := filepath.Join(r.staging, "packs")
	entries, err := os.ReadDir(packsDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != respack.Ext {
				continue
			}
			path := filepath.Join(packsDir, entry.Name())
			if err := respack.VerifyMagic(path); err != nil {
				if errors.Is(err, respack.ErrBadMagic) {
					r.warn("Pack file has invalid magic number: " + path)
					continue
				}
				return fmt.Errorf("pack file verification failed: %s", path)
			}
		}
	}

	r.updateProgress(0.5, "Verifying configuration...")
	configPath := filepath.Join(r.staging, "config", manifest.RuntimeConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		file, openErr := os.Open(configPath)
		if openErr != nil {
			r.warn("Cannot read runtime_config.json")
		} else {
			file.Close()
		}
	}

	if r.cfg.SignExecutable && r.cfg.SigningCertificate != "" {
		r.updateProgress(0.7, "Signing executable...")
		r.logInfo("Code signing not yet implemented - skipping")
		r.warn("Code signing requested but not yet implemented")
	}

	r.updateProgress(0.9, "Calculating build statistics...")
	r.compressedSize = directorySize(packsDir)
	r.totalSize = directorySize(r.staging)
	r.logInfo("Build verification complete. Total size: " + sizereport.FormatBytes(r.totalSize))
	return nil
}

// promote moves the verified staging tree into the output directory
// entry by entry: each top-level staging entry replaces its
// counterpart in the output via remove-then-rename. Pre-existing
// output entries that staging does not produce are left alone.
func (r *run) promote() error {
	entries, err := os.ReadDir(r.staging)
	if err != nil {
		return fmt.Errorf("reading staging directory: %w", err)
	}
	for _, entry := range entries {
		src := filepath.Join(r.staging, entry.Name())
		dest := filepath.Join(r.cfg.OutputDir, entry.Name())
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("removing previous output %s: %w", dest, err)
		}
		if err := os.Rename(src, dest); err != nil {
			return fmt.Errorf("promoting %s: %w", entry.Name(), err)
		}
	}
	if err := os.RemoveAll(r.staging); err != nil {
		return fmt.Errorf("removing staging directory: %w", err)
	}
	return nil
}
