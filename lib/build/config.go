// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/novelmind-foundation/nmbuild/lib/manifest"
	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
)

// Platform selects which runtime launcher the Bundle stage produces.
type Platform uint8

const (
	PlatformWindows Platform = iota
	PlatformLinux
	PlatformMacOS
	// PlatformAll builds for the platform the tool is running on.
	PlatformAll
)

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformLinux:
		return "Linux"
	case PlatformMacOS:
		return "macOS"
	case PlatformAll:
		return "All Platforms"
	default:
		return "Unknown"
	}
}

// ParsePlatform converts a CLI flag value to a Platform.
func ParsePlatform(name string) (Platform, error) {
	switch name {
	case "windows":
		return PlatformWindows, nil
	case "linux":
		return PlatformLinux, nil
	case "macos":
		return PlatformMacOS, nil
	case "all", "":
		return PlatformAll, nil
	default:
		return PlatformAll, fmt.Errorf("unknown platform %q (want windows, linux, macos, or all)", name)
	}
}

// CurrentPlatform returns the Platform matching the host operating
// system. Hosts that are neither Windows nor macOS get Linux
// launchers.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformLinux
	}
}

// resolve maps PlatformAll to the host platform.
func (p Platform) resolve() Platform {
	if p == PlatformAll {
		return CurrentPlatform()
	}
	return p
}

// BuildType selects debug or release conventions for the produced
// bundle.
type BuildType uint8

const (
	BuildDebug BuildType = iota
	BuildRelease
)

func (t BuildType) String() string {
	if t == BuildRelease {
		return "Release"
	}
	return "Debug"
}

// ParseBuildType converts a CLI flag value to a BuildType.
func ParseBuildType(name string) (BuildType, error) {
	switch name {
	case "debug":
		return BuildDebug, nil
	case "release", "":
		return BuildRelease, nil
	default:
		return BuildRelease, fmt.Errorf("unknown build type %q (want debug or release)", name)
	}
}

// DefaultExecutableName is used when the configuration leaves the
// executable name empty.
const DefaultExecutableName = "NovelMindRuntime"

// Config describes one build request. The zero value is not usable:
// ProjectDir and OutputDir are required.
type Config struct {
	// ProjectDir is the game project root (contains project.json,
	// scripts/, assets/).
	ProjectDir string

	// OutputDir receives the finished build. It is only modified by a
	// successful build; staging lives in a ".staging" subdirectory
	// until promotion.
	OutputDir string

	// ExecutableName names the launcher and the game in
	// runtime_config.json. Empty means DefaultExecutableName.
	ExecutableName string

	// Version is the game version stamped into the bundle. Empty
	// means "1.0.0".
	Version string

	Platform Platform
	Type     BuildType

	// PackAssets controls whether staged resources are packed into
	// .nmres archives. When false the Pack stage only logs a skip and
	// the output ships raw staged assets.
	PackAssets bool

	// EncryptAssets encrypts pack resource payloads. EncryptionKey is
	// the passphrase; empty derives the key from an empty passphrase.
	EncryptAssets bool
	EncryptionKey string

	// Compression selects the pack payload compression level.
	Compression packcodec.Level

	// IncludedLanguages lists locale codes that get their own
	// Lang_<code>.nmres pack. Resources are matched to the first
	// listed locale whose marker appears in their virtual path.
	IncludedLanguages []string

	// DefaultLanguage is written to packs_index.json and
	// runtime_config.json. Empty means "en".
	DefaultLanguage string

	// EnableLogging and IncludeDebugConsole toggle the matching
	// runtime_config.json switches.
	EnableLogging       bool
	IncludeDebugConsole bool

	// SignExecutable requests code signing with SigningCertificate.
	// Signing is not implemented; requesting it produces a warning.
	SignExecutable     bool
	SigningCertificate string

	// BuildNumber is stamped into pack footers and the build record.
	// Zero means 1.
	BuildNumber uint32
}

// withDefaults fills the optional fields a build needs concrete values
// for. The defaulted executable name is used everywhere the game is
// named (launchers, Info.plist, runtime_config.json), so an empty
// config never leaks an empty name into artifacts.
func (c Config) withDefaults() Config {
	if c.ExecutableName == "" {
		c.ExecutableName = DefaultExecutableName
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	if c.BuildNumber == 0 {
		c.BuildNumber = 1
	}
	return c
}

// validateStart checks the preconditions Start enforces synchronously.
// Everything else is the Preflight stage's job.
func (c Config) validateStart() error {
	if c.ProjectDir == "" {
		return errors.New("project path is required")
	}
	if c.OutputDir == "" {
		return errors.New("output path is required")
	}
	if _, err := os.Stat(c.ProjectDir); err != nil {
		return fmt.Errorf("project path does not exist: %s", c.ProjectDir)
	}
	return nil
}

// ValidateProject checks that projectDir has the layout a build needs:
// the directory itself, project.json, scripts/, and assets/. It
// returns human-readable issues, empty when the project is buildable.
func ValidateProject(projectDir string) []string {
	var issues []string

	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return []string{fmt.Sprintf("project directory does not exist: %s", projectDir)}
	}

	projectFile := filepath.Join(projectDir, manifest.ProjectFileName)
	if _, err := os.Stat(projectFile); err != nil {
		issues = append(issues, "missing project.json in project directory")
	} else if _, err := manifest.LoadProject(projectFile); err != nil {
		issues = append(issues, fmt.Sprintf("project.json is not valid: %v", err))
	}

	for _, dir := range []string{"scripts", "assets"} {
		info, err := os.Stat(filepath.Join(projectDir, dir))
		if err != nil || !info.IsDir() {
			issues = append(issues, "missing required directory: "+dir)
		}
	}
	return issues
}

// EstimateBuildTime predicts how long building cfg will take: a flat
// base cost plus one second per MiB of project data, scaled up by the
// compression level and again by encryption. The estimate is meant for
// progress UIs, not scheduling.
func EstimateBuildTime(cfg Config) time.Duration {
	const (
		baseMillis      = 5000.0
		millisPerMiB    = 1000.0
		encryptionScale = 1.3
	)

	size := directorySize(cfg.ProjectDir)
	millis := baseMillis + float64(size)/(1024*1024)*millisPerMiB
	millis *= cfg.Compression.EstimateMultiplier()
	if cfg.EncryptAssets {
		millis *= encryptionScale
	}
	return time.Duration(millis * float64(time.Millisecond))
}

// directorySize sums the sizes of all regular files under root.
// Unreadable entries count as zero; sizing is advisory and never fails
// a build.
func directorySize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.Type().IsRegular() {
			return nil
		}
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
