// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/codec"
)

// Artifacts written into the output's logs directory by a successful
// build.
const (
	LogFileName    = "build.log"
	RecordFileName = "build_record.cbor"

	logsDirName = "logs"
)

// RecordPath returns where a build rooted at outputDir keeps its
// record.
func RecordPath(outputDir string) string {
	return filepath.Join(outputDir, logsDirName, RecordFileName)
}

// StepRecord is one stage's outcome in the build record.
type StepRecord struct {
	Name     string        `cbor:"name"`
	Success  bool          `cbor:"success"`
	Duration time.Duration `cbor:"duration"`
	Error    string        `cbor:"error,omitempty"`
}

// Record is the machine-readable summary a successful build writes
// next to its output. Failed and cancelled builds write nothing; the
// output directory must stay exactly as the previous build left it.
type Record struct {
	GameName        string        `cbor:"game_name"`
	Version         string        `cbor:"version"`
	Platform        string        `cbor:"platform"`
	BuildType       string        `cbor:"build_type"`
	BuildNumber     uint32        `cbor:"build_number"`
	StartedAt       time.Time     `cbor:"started_at"`
	Duration        time.Duration `cbor:"duration"`
	ScriptsCompiled int           `cbor:"scripts_compiled"`
	AssetsProcessed int           `cbor:"assets_processed"`
	TotalSize       int64         `cbor:"total_size"`
	CompressedSize  int64         `cbor:"compressed_size"`
	Steps           []StepRecord  `cbor:"steps"`
	Warnings        []string      `cbor:"warnings,omitempty"`
}

// writeRecord emits build.log and build_record.cbor under the
// promoted output's logs directory.
func (r *run) writeRecord(result *Result) error {
	logsDir := filepath.Join(r.cfg.OutputDir, logsDirName)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}

	logText := strings.Join(r.logLines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(logsDir, LogFileName), []byte(logText), 0o644); err != nil {
		return fmt.Errorf("writing build log: %w", err)
	}

	b := r.build
	b.mu.Lock()
	steps := make([]StepRecord, len(b.progress.Steps))
	for i, step := range b.progress.Steps {
		steps[i] = StepRecord{
			Name:     step.Name,
			Success:  step.Success,
			Duration: step.Duration,
			Error:    step.Error,
		}
	}
	b.mu.Unlock()

	record := Record{
		GameName:        r.cfg.ExecutableName,
		Version:         r.cfg.Version,
		Platform:        r.cfg.Platform.String(),
		BuildType:       r.cfg.Type.String(),
		BuildNumber:     r.cfg.BuildNumber,
		StartedAt:       b.started,
		Duration:        result.Duration,
		ScriptsCompiled: result.ScriptsCompiled,
		AssetsProcessed: result.AssetsProcessed,
		TotalSize:       result.TotalSize,
		CompressedSize:  result.CompressedSize,
		Steps:           steps,
		Warnings:        result.Warnings,
	}
	data, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding build record: %w", err)
	}
	if err := os.WriteFile(RecordPath(r.cfg.OutputDir), data, 0o644); err != nil {
		return fmt.Errorf("writing build record: %w", err)
	}
	return nil
}

// ReadRecord loads the build record from a finished build's output
// directory.
func ReadRecord(outputDir string) (*Record, error) {
	data, err := os.ReadFile(RecordPath(outputDir))
	if err != nil {
		return nil, fmt.Errorf("reading build record: %w", err)
	}
	var record Record
	if err := codec.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing build record: %w", err)
	}
	return &record, nil
}
