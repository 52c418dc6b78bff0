// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/novelmind-foundation/nmbuild/lib/manifest"
)

// bundle assembles the shippable runtime: runtime_config.json first,
// then the platform launcher. Config is written before the launcher so
// platform bundles that embed a copy of config/ (macOS) see the final
// file.
func (r *run) bundle() error {
	r.updateProgress(0.2, "Generating runtime configuration...")
	if err := r.writeRuntimeConfig(); err != nil {
		return err
	}

	r.updateProgress(0.8, "Preparing runtime executable...")
	platform := r.cfg.Platform.resolve()
	var err error
	switch platform {
	case PlatformWindows:
		err = writeWindowsLauncher(r.staging, r.cfg.ExecutableName, r.cfg.Version)
	case PlatformMacOS:
		err = writeMacOSBundle(r.staging, r.cfg.ExecutableName, r.cfg.Version)
	default:
		err = writeLinuxLauncher(r.staging, r.cfg.ExecutableName, r.cfg.Version)
	}
	if err != nil {
		return err
	}

	r.logInfo("Runtime bundle created for " + r.cfg.Platform.String())
	return nil
}

func (r *run) writeRuntimeConfig() error {
	locales := slices.Clone(r.cfg.IncludedLanguages)
	if locales == nil {
		locales = []string{}
	}
	config := &manifest.RuntimeConfig{
		Version: manifest.FormatVersion,
		Game: manifest.GameInfo{
			Name:    r.cfg.ExecutableName,
			Version: r.cfg.Version,
		},
		Localization: manifest.LocalizationInfo{
			DefaultLocale:    r.cfg.DefaultLanguage,
			AvailableLocales: locales,
		},
		Packs: manifest.PacksInfo{
			Directory: "packs",
			IndexFile: manifest.PacksIndexFileName,
			Encrypted: r.cfg.EncryptAssets,
		},
		Runtime: manifest.RuntimeToggles{
			EnableLogging:      r.cfg.EnableLogging,
			EnableDebugConsole: r.cfg.IncludeDebugConsole,
		},
	}
	return config.Write(filepath.Join(r.staging, "config", manifest.RuntimeConfigFileName))
}

const windowsLauncherFormat = `@echo off
echo NovelMind Runtime - %s
echo Version: %s
echo.
echo This is a placeholder launcher.
echo In production, this would start the game runtime.
pause
`

func writeWindowsLauncher(dir, name, version string) error {
	path := filepath.Join(dir, name+"_launcher.bat")
	content := fmt.Sprintf(windowsLauncherFormat, name, version)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing Windows launcher: %w", err)
	}
	return nil
}

const linuxLauncherFormat = `#!/bin/bash
echo "NovelMind Runtime - %s"
echo "Version: %s"
echo ""
echo "This is a placeholder launcher."
echo "In production, this would start the game runtime."
`

func writeLinuxLauncher(dir, name, version string) error {
	path := filepath.Join(dir, name+"_launcher.sh")
	content := fmt.Sprintf(linuxLauncherFormat, name, version)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing Linux launcher: %w", err)
	}
	return nil
}

const infoPlistFormat = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>CFBundleExecutable</key>
  <string>%s</string>
  <key>CFBundleIdentifier</key>
  <string>com.novelmind.%s</string>
  <key>CFBundleName</key>
  <string>%s</string>
  <key>CFBundleShortVersionString</key>
  <string>%s</string>
  <key>CFBundleVersion</key>
  <string>%s</string>
  <key>CFBundlePackageType</key>
  <string>APPL</string>
</dict>
</plist>
`

const macLauncherFormat = `#!/bin/bash
echo "NovelMind Runtime - %s"
echo "Version: %s"
`

// writeMacOSBundle lays out <name>.app with the launcher script,
// Info.plist, and a Resources copy of the staged packs and config.
func writeMacOSBundle(dir, name, version string) error {
	appDir := filepath.Join(dir, name+".app")
	macosDir := filepath.Join(appDir, "Contents", "MacOS")
	resourcesDir := filepath.Join(appDir, "Contents", "Resources")
	for _, sub := range []string{macosDir, resourcesDir} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return fmt.Errorf("creating app bundle: %w", err)
		}
	}

	plist := fmt.Sprintf(infoPlistFormat, name, name, name, version, version)
	if err := os.WriteFile(filepath.Join(appDir, "Contents", "Info.plist"), []byte(plist), 0o644); err != nil {
		return fmt.Errorf("writing Info.plist: %w", err)
	}

	launcher := fmt.Sprintf(macLauncherFormat, name, version)
	if err := os.WriteFile(filepath.Join(macosDir, name), []byte(launcher), 0o755); err != nil {
		return fmt.Errorf("writing app launcher: %w", err)
	}

	for _, sub := range []string{"packs", "config"} {
		src := filepath.Join(dir, sub)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyDir(src, filepath.Join(resourcesDir, sub)); err != nil {
			return fmt.Errorf("copying %s into app bundle: %w", sub, err)
		}
	}
	return nil
}

// copyDir recursively copies the tree at src to dest.
func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		_, err = copyFile(path, target)
		return err
	})
}
