// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package buildcmd

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/build"
	"github.com/novelmind-foundation/nmbuild/lib/buildcfg"
)

// buildFlags holds the flag values shared by "build" and "estimate".
// Values layer over the nmbuild.yaml configuration: the file (when
// given) supplies defaults, and any flag the user actually set wins.
// Flag-change detection needs the parsed FlagSet, so commands keep the
// set returned by register and pass it back to resolve.
type buildFlags struct {
	configPath  string
	output      string
	name        string
	gameVersion string
	platform    string
	buildType   string
	compression string
	encrypt     bool
	encryptKey  string
	noPack      bool
	languages   []string
	defaultLang string
	buildNumber uint32
}

// register binds the shared build flags and returns the set for later
// Changed lookups.
func (f *buildFlags) register(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&f.configPath, "config", "", "path to nmbuild.yaml (default: NMBUILD_CONFIG env var)")
	flagSet.StringVarP(&f.output, "output", "o", "", "output directory for the finished build")
	flagSet.StringVar(&f.name, "name", "", "game and launcher name")
	flagSet.StringVar(&f.gameVersion, "game-version", "", "game version stamped into artifacts")
	flagSet.StringVar(&f.platform, "platform", "", "target platform: windows, linux, macos, or all")
	flagSet.StringVar(&f.buildType, "type", "", "build type: debug or release")
	flagSet.StringVar(&f.compression, "compression", "", "pack compression level: none, fast, balanced, or maximum")
	flagSet.BoolVar(&f.encrypt, "encrypt", false, "encrypt pack resource payloads")
	flagSet.StringVar(&f.encryptKey, "encryption-key", "", "passphrase for pack encryption")
	flagSet.BoolVar(&f.noPack, "no-pack", false, "skip packing; ship raw processed assets")
	flagSet.StringSliceVar(&f.languages, "language", nil, "locale code that gets its own language pack (repeatable)")
	flagSet.StringVar(&f.defaultLang, "default-language", "", "locale the runtime starts in")
	flagSet.Uint32Var(&f.buildNumber, "build-number", 0, "build number stamped into pack footers")
	return flagSet
}

// resolve merges the configuration file, the positional project
// argument, and the changed flags into a pipeline request.
func (f *buildFlags) resolve(flagSet *pflag.FlagSet, projectArg string) (build.Config, error) {
	cfg, err := f.loadFile()
	if err != nil {
		return build.Config{}, cli.Validation("loading config: %v", err)
	}

	if projectArg != "" {
		cfg.Project.Path = projectArg
	}
	if flagSet.Changed("output") {
		cfg.Project.Output = f.output
	}
	if flagSet.Changed("name") {
		cfg.Project.Name = f.name
	}
	if flagSet.Changed("game-version") {
		cfg.Project.Version = f.gameVersion
	}
	if flagSet.Changed("platform") {
		cfg.Build.Platform = f.platform
	}
	if flagSet.Changed("type") {
		// The file's per-type override sections were already applied
		// during load; changing the type here only switches the label,
		// it does not re-run those overrides. Pack and runtime toggles
		// still come from the file or their own flags.
		cfg.Build.Type = f.buildType
	}
	if flagSet.Changed("compression") {
		cfg.Packs.Compression = f.compression
	}
	if flagSet.Changed("encrypt") {
		cfg.Packs.EncryptAssets = f.encrypt
	}
	if flagSet.Changed("encryption-key") {
		cfg.Packs.EncryptionKey = f.encryptKey
	}
	if flagSet.Changed("no-pack") {
		cfg.Packs.PackAssets = !f.noPack
	}
	if flagSet.Changed("language") {
		cfg.Packs.Languages = f.languages
	}
	if flagSet.Changed("default-language") {
		cfg.Packs.DefaultLanguage = f.defaultLang
	}
	if flagSet.Changed("build-number") {
		cfg.Build.BuildNumber = f.buildNumber
	}

	if err := cfg.Validate(); err != nil {
		return build.Config{}, cli.Validation("invalid configuration:\n%v", err)
	}
	buildConfig, err := cfg.BuildConfig()
	if err != nil {
		return build.Config{}, cli.Validation("%v", err)
	}
	return buildConfig, nil
}

// loadFile loads the nmbuild.yaml named by --config, then by
// NMBUILD_CONFIG, falling back to the built-in defaults when neither
// is set. A flag-only invocation needs no file at all.
func (f *buildFlags) loadFile() (*buildcfg.Config, error) {
	if f.configPath != "" {
		return buildcfg.LoadFile(f.configPath)
	}
	if os.Getenv("NMBUILD_CONFIG") != "" {
		return buildcfg.Load()
	}
	return buildcfg.Default(), nil
}
