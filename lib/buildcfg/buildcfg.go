// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildcfg loads the nmbuild.yaml build configuration.
//
// Configuration is loaded from a single file specified by:
//   - NMBUILD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, reproducible builds with no hidden overrides. Command
// line flags may override individual values after loading; the file
// itself is never merged with a second file.
//
// The config file may contain debug and release sections that override
// base values when the build type matches.
package buildcfg

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/novelmind-foundation/nmbuild/lib/build"
	"github.com/novelmind-foundation/nmbuild/lib/packcodec"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

// FileName is the conventional configuration file name at a project
// root. Nothing loads it implicitly; commands pass the path to
// LoadFile.
const FileName = "nmbuild.yaml"

// Config is the complete nmbuild configuration.
type Config struct {
	// Project locates the project and its build output.
	Project Project `yaml:"project"`

	// Build selects platform, build type, and runtime toggles.
	Build Build `yaml:"build"`

	// Packs controls resource packing.
	Packs Packs `yaml:"packs"`

	// Analysis configures the size analyzer.
	Analysis Analysis `yaml:"analysis"`

	// Debug and Release are per-build-type overrides, applied after
	// the base config is loaded.
	Debug   *Overrides `yaml:"debug,omitempty"`
	Release *Overrides `yaml:"release,omitempty"`
}

// Overrides contains the sections that can be overridden per build
// type. Strings override only when non-empty; booleans in a present
// section always apply.
type Overrides struct {
	Build *Build `yaml:"build,omitempty"`
	Packs *Packs `yaml:"packs,omitempty"`
}

// Project locates the project and names the game.
type Project struct {
	// Path is the project root (contains project.json).
	// Default: .
	Path string `yaml:"path"`

	// Output is where finished builds land.
	// Default: build
	Output string `yaml:"output"`

	// Name is the game and launcher name. Empty falls back to the
	// pipeline's default executable name.
	Name string `yaml:"name"`

	// Version is the game version stamped into artifacts.
	// Default: 1.0.0
	Version string `yaml:"version"`
}

// Build selects platform, build type, and runtime toggles.
type Build struct {
	// Platform is the launcher target: windows, linux, macos, or all.
	// Default: all (the host platform)
	Platform string `yaml:"platform"`

	// Type is debug or release.
	// Default: release
	Type string `yaml:"type"`

	// BuildNumber is stamped into pack footers and the build record.
	// Default: 1
	BuildNumber uint32 `yaml:"build_number"`

	// EnableLogging and DebugConsole toggle the matching
	// runtime_config.json switches.
	// Default: logging on, console off (debug builds enable both)
	EnableLogging bool `yaml:"enable_logging"`
	DebugConsole  bool `yaml:"debug_console"`

	// SignExecutable requests code signing with SigningCertificate.
	SignExecutable     bool   `yaml:"sign_executable"`
	SigningCertificate string `yaml:"signing_certificate"`
}

// Packs controls resource packing.
type Packs struct {
	// PackAssets packs staged resources into .nmres archives. When
	// false the output ships raw staged assets.
	// Default: true (debug builds skip packing)
	PackAssets bool `yaml:"pack_assets"`

	// Compression is the pack payload compression level: none, fast,
	// balanced, or maximum.
	// Default: balanced
	Compression string `yaml:"compression"`

	// EncryptAssets encrypts pack payloads with EncryptionKey as the
	// passphrase.
	EncryptAssets bool   `yaml:"encrypt_assets"`
	EncryptionKey string `yaml:"encryption_key"`

	// Languages lists locale codes that get their own language pack.
	Languages []string `yaml:"languages"`

	// DefaultLanguage is the locale the runtime starts in.
	// Default: en
	DefaultLanguage string `yaml:"default_language"`
}

// Analysis configures the size analyzer.
type Analysis struct {
	// Oversize thresholds in MiB. Zero keeps the analyzer defaults
	// (5 MiB images, 10 MiB audio).
	LargeImageThresholdMiB int `yaml:"large_image_threshold_mib"`
	LargeAudioThresholdMiB int `yaml:"large_audio_threshold_mib"`

	// ExcludePatterns are path substrings the analyzer skips.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// StrongHash selects full-content hashing for duplicate detection
	// instead of the fast sampled hash.
	StrongHash bool `yaml:"strong_hash"`
}

// Default returns the default configuration. These defaults are the
// base every load merges into, so all fields have usable values even
// when the file sets only a few.
func Default() *Config {
	return &Config{
		Project: Project{
			Path:    ".",
			Output:  "build",
			Version: "1.0.0",
		},
		Build: Build{
			Platform:      "all",
			Type:          "release",
			BuildNumber:   1,
			EnableLogging: true,
		},
		Packs: Packs{
			PackAssets:      true,
			Compression:     "balanced",
			DefaultLanguage: "en",
		},
		Analysis: Analysis{
			LargeImageThresholdMiB: 5,
			LargeAudioThresholdMiB: 10,
		},
	}
}

// Load loads configuration from the NMBUILD_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// If NMBUILD_CONFIG is not set, this fails; there is no search for a
// file in the working directory or the home directory.
func Load() (*Config, error) {
	configPath := os.Getenv("NMBUILD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("NMBUILD_CONFIG environment variable not set; " +
			"set it to the path of your nmbuild.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The file merges over Default, then the debug or release override
// section matching the build type is applied, then ${VAR} and
// ${VAR:-default} patterns in path fields are expanded. Environment
// variables never override config values directly; expansion is the
// only place the environment is consulted.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyTypeOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// applyTypeOverrides applies the override section matching the build
// type. A debug build with no debug section gets the built-in debug
// behavior: packing off, no compression, both runtime debug toggles on.
func (c *Config) applyTypeOverrides() {
	var overrides *Overrides

	switch c.Build.Type {
	case "debug":
		overrides = c.Debug
		if overrides == nil {
			overrides = &Overrides{
				Build: &Build{
					EnableLogging: true,
					DebugConsole:  true,
				},
				Packs: &Packs{
					Compression: "none",
				},
			}
		}
	case "release":
		overrides = c.Release
	}

	if overrides == nil {
		return
	}

	if o := overrides.Build; o != nil {
		if o.Platform != "" {
			c.Build.Platform = o.Platform
		}
		if o.BuildNumber != 0 {
			c.Build.BuildNumber = o.BuildNumber
		}
		// Booleans always apply from a present override section.
		c.Build.EnableLogging = o.EnableLogging
		c.Build.DebugConsole = o.DebugConsole
		c.Build.SignExecutable = o.SignExecutable
		if o.SigningCertificate != "" {
			c.Build.SigningCertificate = o.SigningCertificate
		}
	}

	if o := overrides.Packs; o != nil {
		c.Packs.PackAssets = o.PackAssets
		c.Packs.EncryptAssets = o.EncryptAssets
		if o.Compression != "" {
			c.Packs.Compression = o.Compression
		}
		if o.EncryptionKey != "" {
			c.Packs.EncryptionKey = o.EncryptionKey
		}
		if len(o.Languages) > 0 {
			c.Packs.Languages = o.Languages
		}
		if o.DefaultLanguage != "" {
			c.Packs.DefaultLanguage = o.DefaultLanguage
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields. NMBUILD_PROJECT resolves to the (already expanded) project
// path so the output can be declared relative to it.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"NMBUILD_PROJECT": c.Project.Path,
		"HOME":            os.Getenv("HOME"),
	}

	c.Project.Path = expandVars(c.Project.Path, vars)
	vars["NMBUILD_PROJECT"] = c.Project.Path

	c.Project.Output = expandVars(c.Project.Output, vars)
	c.Build.SigningCertificate = expandVars(c.Build.SigningCertificate, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// the provided vars first and the environment second.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Project.Path == "" {
		errs = append(errs, fmt.Errorf("project.path is required"))
	}
	if c.Project.Output == "" {
		errs = append(errs, fmt.Errorf("project.output is required"))
	}
	if c.Project.Version == "" {
		errs = append(errs, fmt.Errorf("project.version is required"))
	}

	if _, err := build.ParsePlatform(c.Build.Platform); err != nil {
		errs = append(errs, fmt.Errorf("build.platform: %w", err))
	}
	if _, err := build.ParseBuildType(c.Build.Type); err != nil {
		errs = append(errs, fmt.Errorf("build.type: %w", err))
	}
	if _, err := packcodec.ParseLevel(c.Packs.Compression); err != nil {
		errs = append(errs, fmt.Errorf("packs.compression: %w", err))
	}

	for i, lang := range c.Packs.Languages {
		if lang == "" {
			errs = append(errs, fmt.Errorf("packs.languages[%d] is empty", i))
		}
	}
	if c.Packs.DefaultLanguage != "" && len(c.Packs.Languages) > 0 {
		found := false
		for _, lang := range c.Packs.Languages {
			if lang == c.Packs.DefaultLanguage {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("packs.default_language %q is not in packs.languages",
				c.Packs.DefaultLanguage))
		}
	}

	if c.Analysis.LargeImageThresholdMiB < 0 {
		errs = append(errs, fmt.Errorf("analysis.large_image_threshold_mib must not be negative"))
	}
	if c.Analysis.LargeAudioThresholdMiB < 0 {
		errs = append(errs, fmt.Errorf("analysis.large_audio_threshold_mib must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// BuildConfig converts the loaded configuration into a pipeline
// request. The enum fields must parse; call Validate first for a full
// report instead of the first error.
func (c *Config) BuildConfig() (build.Config, error) {
	platform, err := build.ParsePlatform(c.Build.Platform)
	if err != nil {
		return build.Config{}, err
	}
	buildType, err := build.ParseBuildType(c.Build.Type)
	if err != nil {
		return build.Config{}, err
	}
	level, err := packcodec.ParseLevel(c.Packs.Compression)
	if err != nil {
		return build.Config{}, err
	}

	return build.Config{
		ProjectDir:          c.Project.Path,
		OutputDir:           c.Project.Output,
		ExecutableName:      c.Project.Name,
		Version:             c.Project.Version,
		Platform:            platform,
		Type:                buildType,
		PackAssets:          c.Packs.PackAssets,
		EncryptAssets:       c.Packs.EncryptAssets,
		EncryptionKey:       c.Packs.EncryptionKey,
		Compression:         level,
		IncludedLanguages:   c.Packs.Languages,
		DefaultLanguage:     c.Packs.DefaultLanguage,
		EnableLogging:       c.Build.EnableLogging,
		IncludeDebugConsole: c.Build.DebugConsole,
		SignExecutable:      c.Build.SignExecutable,
		SigningCertificate:  c.Build.SigningCertificate,
		BuildNumber:         c.Build.BuildNumber,
	}, nil
}

// AnalyzerConfig converts the analysis section into a size analyzer
// configuration rooted at the project path.
func (c *Config) AnalyzerConfig() sizereport.Config {
	cfg := sizereport.DefaultConfig(c.Project.Path)
	if c.Analysis.LargeImageThresholdMiB > 0 {
		cfg.LargeImageThreshold = int64(c.Analysis.LargeImageThresholdMiB) * 1024 * 1024
	}
	if c.Analysis.LargeAudioThresholdMiB > 0 {
		cfg.LargeAudioThreshold = int64(c.Analysis.LargeAudioThresholdMiB) * 1024 * 1024
	}
	cfg.ExcludePatterns = c.Analysis.ExcludePatterns
	cfg.StrongHash = c.Analysis.StrongHash
	return cfg
}
