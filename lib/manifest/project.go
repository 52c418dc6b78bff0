// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Project is the author-facing project.json at a project root. All
// fields are optional; absent fields fall back to the build
// configuration. The file may contain JSONC comments and trailing
// commas.
type Project struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	DefaultLanguage string   `json:"default_language"`
	Languages       []string `json:"languages"`
}

// LoadProject reads and parses a project.json. Comments and trailing
// commas are stripped before parsing.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file %s: %w", path, err)
	}
	return ParseProject(data)
}

// ParseProject parses project.json content.
func ParseProject(data []byte) (*Project, error) {
	stripped := jsonc.ToJSON(data)
	var project Project
	if err := json.Unmarshal(stripped, &project); err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}
	return &project, nil
}

// Validate returns a list of problems with the project definition.
// An empty list means the project is well formed.
func (p *Project) Validate() []string {
	var issues []string
	if p.Name == "" {
		issues = append(issues, "project name is empty")
	}
	for i, lang := range p.Languages {
		if lang == "" {
			issues = append(issues, fmt.Sprintf("languages[%d] is empty", i))
		}
	}
	if p.DefaultLanguage != "" && len(p.Languages) > 0 {
		found := false
		for _, lang := range p.Languages {
			if lang == p.DefaultLanguage {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("default language %q is not in the languages list", p.DefaultLanguage))
		}
	}
	return issues
}
