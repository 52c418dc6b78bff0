// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

// Package analyzecmd implements the "nmbuild analyze" CLI command: a
// read-only size analysis of a project's assets with duplicate
// detection, oversize flagging, and optimization suggestions.
package analyzecmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/novelmind-foundation/nmbuild/cmd/nmbuild/cli"
	"github.com/novelmind-foundation/nmbuild/lib/buildcfg"
	"github.com/novelmind-foundation/nmbuild/lib/sizereport"
)

type analyzeParams struct {
	Config         string   `flag:"config" desc:"path to nmbuild.yaml for analysis defaults"`
	Format         string   `flag:"format" desc:"output format: text, json, html, or csv" default:"text"`
	Output         string   `flag:"output,o" desc:"output file (required for html and csv; stdout otherwise)"`
	ImageThreshold int      `flag:"large-image-mib" desc:"flag images larger than this many MiB"`
	AudioThreshold int      `flag:"large-audio-mib" desc:"flag audio larger than this many MiB"`
	Exclude        []string `flag:"exclude" desc:"skip asset paths containing this substring (repeatable)"`
	StrongHash     bool     `flag:"strong-hash" desc:"use full-content hashing for duplicate detection"`
	Top            int      `flag:"top" desc:"number of suggestions to show in text output" default:"10"`
}

// Command returns the "analyze" command.
func Command() *cli.Command {
	var params analyzeParams

	return &cli.Command{
		Name:    "analyze",
		Summary: "Analyze project size: duplicates, oversized assets, suggestions",
		Usage:   "nmbuild analyze [project] [flags]",
		Description: `Scan a project's assets and scripts without modifying anything:
classify each file, detect duplicated content, flag oversized images
and audio, and produce optimization suggestions ordered by estimated
savings.

Text output goes to stdout. The json format also prints to stdout
unless --output is set; html and csv always require --output.`,
		Examples: []cli.Example{
			{
				Description: "Analyze the current project",
				Command:     "nmbuild analyze",
			},
			{
				Description: "Export an HTML report",
				Command:     "nmbuild analyze mygame --format html -o size_report.html",
			},
			{
				Description: "Exact duplicate detection, ignoring the build directory",
				Command:     "nmbuild analyze --strong-hash --exclude build/",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			project := ""
			if len(args) == 1 {
				project = args[0]
			}

			cfg, err := params.analyzerConfig(project)
			if err != nil {
				return err
			}

			analyzer := sizereport.NewAnalyzer(cfg)
			analysis, err := analyzer.Analyze()
			if err != nil {
				return cli.Internal("analysis failed: %w", err)
			}
			logger.Debug("analysis complete",
				"files", analysis.TotalFileCount,
				"duration", analysis.Duration)

			switch params.Format {
			case "text", "":
				printAnalysis(os.Stdout, analysis, params.Top)
				return nil
			case "json":
				report, err := analysis.ExportJSON()
				if err != nil {
					return cli.Internal("exporting JSON: %w", err)
				}
				if params.Output == "" {
					fmt.Println(report)
					return nil
				}
				return os.WriteFile(params.Output, []byte(report), 0o644)
			case "html":
				if params.Output == "" {
					return cli.Validation("--output is required for html format")
				}
				return analysis.ExportHTML(params.Output)
			case "csv":
				if params.Output == "" {
					return cli.Validation("--output is required for csv format")
				}
				return analysis.ExportCSV(params.Output)
			default:
				return cli.Validation("unknown format %q (want text, json, html, or csv)", params.Format)
			}
		},
	}
}

// analyzerConfig merges the optional config file, the positional
// project argument, and the analysis flags.
func (p *analyzeParams) analyzerConfig(projectArg string) (sizereport.Config, error) {
	fileConfig := buildcfg.Default()
	if p.Config != "" {
		loaded, err := buildcfg.LoadFile(p.Config)
		if err != nil {
			return sizereport.Config{}, cli.Validation("loading config: %v", err)
		}
		fileConfig = loaded
	}
	if projectArg != "" {
		fileConfig.Project.Path = projectArg
	}

	cfg := fileConfig.AnalyzerConfig()
	if p.ImageThreshold > 0 {
		cfg.LargeImageThreshold = int64(p.ImageThreshold) * 1024 * 1024
	}
	if p.AudioThreshold > 0 {
		cfg.LargeAudioThreshold = int64(p.AudioThreshold) * 1024 * 1024
	}
	if len(p.Exclude) > 0 {
		cfg.ExcludePatterns = append(cfg.ExcludePatterns, p.Exclude...)
	}
	if p.StrongHash {
		cfg.StrongHash = true
	}
	return cfg, nil
}

// printAnalysis writes the human-readable analysis report.
func printAnalysis(w *os.File, analysis *sizereport.Analysis, top int) {
	fmt.Fprintf(w, "Analyzed %d files, %s total\n",
		analysis.TotalFileCount, sizereport.FormatBytes(analysis.TotalOriginalSize))

	if len(analysis.Categories) > 0 {
		fmt.Fprintln(w, "\nBy category:")
		writer := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
		for _, summary := range analysis.Categories {
			fmt.Fprintf(writer, "  %s\t%d files\t%s\t%.1f%%\n",
				summary.Category,
				summary.FileCount,
				sizereport.FormatBytes(summary.TotalOriginalSize),
				summary.PercentageOfTotal)
		}
		writer.Flush()
	}

	if len(analysis.Duplicates) > 0 {
		fmt.Fprintf(w, "\nDuplicates (%s wasted):\n",
			sizereport.FormatBytes(analysis.TotalWastedSpace))
		for _, group := range analysis.Duplicates {
			// The first path in a group is the canonical copy.
			fmt.Fprintf(w, "  %s kept, %d cop%s wasting %s\n",
				group.Paths[0],
				len(group.Paths)-1,
				plural(len(group.Paths)-1, "y", "ies"),
				sizereport.FormatBytes(group.WastedSpace))
		}
	}

	if len(analysis.Suggestions) > 0 {
		fmt.Fprintf(w, "\nSuggestions (%s potential savings):\n",
			sizereport.FormatBytes(analysis.PotentialSavings))
		shown := analysis.Suggestions
		if top > 0 && len(shown) > top {
			shown = shown[:top]
		}
		writer := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
		for _, suggestion := range shown {
			fmt.Fprintf(writer, "  [%s]\t%s\tsaves ~%s\n",
				strings.ToUpper(suggestion.Priority.String()),
				suggestion.Description,
				sizereport.FormatBytes(suggestion.EstimatedSavings))
		}
		writer.Flush()
		if len(analysis.Suggestions) > len(shown) {
			fmt.Fprintf(w, "  … %d more (use --top to show more)\n",
				len(analysis.Suggestions)-len(shown))
		}
	}
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
