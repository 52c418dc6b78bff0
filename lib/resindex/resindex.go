// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package resindex enumerates the buildable files of a project and
// assigns each one its virtual filesystem path. Assets keep their
// path relative to assets/; scripts are mounted under a scripts/
// prefix so the runtime sees one uniform namespace. The walk order is
// lexical, so two scans of an unchanged tree produce identical
// indexes and identical manifests.
package resindex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/novelmind-foundation/nmbuild/lib/asset"
	"github.com/novelmind-foundation/nmbuild/lib/manifest"
	"github.com/novelmind-foundation/nmbuild/lib/script"
)

// Resource is one file scheduled for the build, with the virtual path
// it will occupy in the packed filesystem.
type Resource struct {
	SourcePath string
	VFSPath    string
	Kind       asset.Kind
}

// Index is the scanned file inventory of one project.
type Index struct {
	projectDir string
	assets     []Resource
	scripts    []Resource
}

// Scan walks projectDir's assets/ and scripts/ trees. Every regular
// file under assets/ is indexed; under scripts/ only script sources
// are. Both directories must exist.
func Scan(projectDir string) (*Index, error) {
	index := &Index{projectDir: projectDir}

	assetsDir := filepath.Join(projectDir, "assets")
	err := filepath.WalkDir(assetsDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(assetsDir, path)
		if err != nil {
			return err
		}
		vfsPath := filepath.ToSlash(rel)
		index.assets = append(index.assets, Resource{
			SourcePath: path,
			VFSPath:    vfsPath,
			Kind:       asset.ProcessingKind(vfsPath),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning assets directory: %w", err)
	}

	scriptsDir := filepath.Join(projectDir, "scripts")
	err = filepath.WalkDir(scriptsDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if !script.IsScript(entry.Name()) {
			return nil
		}
		rel, err := filepath.Rel(scriptsDir, path)
		if err != nil {
			return err
		}
		index.scripts = append(index.scripts, Resource{
			SourcePath: path,
			VFSPath:    "scripts/" + filepath.ToSlash(rel),
			Kind:       asset.KindData,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning scripts directory: %w", err)
	}

	return index, nil
}

// Assets returns the indexed asset files in walk order.
func (x *Index) Assets() []Resource { return x.assets }

// Scripts returns the indexed script sources in walk order.
func (x *Index) Scripts() []Resource { return x.scripts }

// Resources returns every indexed file, assets first.
func (x *Index) Resources() []Resource {
	all := make([]Resource, 0, len(x.assets)+len(x.scripts))
	all = append(all, x.assets...)
	all = append(all, x.scripts...)
	return all
}

// Len reports the total number of indexed files.
func (x *Index) Len() int { return len(x.assets) + len(x.scripts) }

// WriteManifest emits the resource manifest for this index.
func (x *Index) WriteManifest(path string) error {
	resources := x.Resources()
	out := &manifest.ResourceManifest{
		Version:       manifest.FormatVersion,
		ResourceCount: len(resources),
		Resources:     make([]manifest.ResourceEntry, 0, len(resources)),
	}
	for _, resource := range resources {
		out.Resources = append(out.Resources, manifest.ResourceEntry{
			Source:  resource.SourcePath,
			VFSPath: resource.VFSPath,
		})
	}
	return out.Write(path)
}
