// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package sizereport

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strings"
)

type jsonCategory struct {
	Category            int     `json:"category"`
	FileCount           int     `json:"fileCount"`
	TotalOriginalSize   int64   `json:"totalOriginalSize"`
	TotalCompressedSize int64   `json:"totalCompressedSize"`
	PercentageOfTotal   float64 `json:"percentageOfTotal"`
}

type jsonReport struct {
	TotalOriginalSize       int64          `json:"totalOriginalSize"`
	TotalCompressedSize     int64          `json:"totalCompressedSize"`
	TotalFileCount          int            `json:"totalFileCount"`
	OverallCompressionRatio float64        `json:"overallCompressionRatio"`
	TotalWastedSpace        int64          `json:"totalWastedSpace"`
	UnusedSpace             int64          `json:"unusedSpace"`
	PotentialSavings        int64          `json:"potentialSavings"`
	AnalysisTimeMs          float64        `json:"analysisTimeMs"`
	Categories              []jsonCategory `json:"categories"`
	DuplicateGroups         int            `json:"duplicateGroups"`
	UnusedAssets            int            `json:"unusedAssets"`
	Suggestions             int            `json:"suggestions"`
}

// ExportJSON renders the analysis aggregate as an indented JSON
// document. Per-asset detail stays out of it; the CSV export carries
// that.
func (a *Analysis) ExportJSON() (string, error) {
	report := jsonReport{
		TotalOriginalSize:       a.TotalOriginalSize,
		TotalCompressedSize:     a.TotalCompressedSize,
		TotalFileCount:          a.TotalFileCount,
		OverallCompressionRatio: a.OverallCompressionRatio,
		TotalWastedSpace:        a.TotalWastedSpace,
		UnusedSpace:             a.UnusedSpace,
		PotentialSavings:        a.PotentialSavings,
		AnalysisTimeMs:          float64(a.Duration.Microseconds()) / 1000,
		Categories:              []jsonCategory{},
		DuplicateGroups:         len(a.Duplicates),
		UnusedAssets:            len(a.UnusedAssets),
		Suggestions:             len(a.Suggestions),
	}
	for _, summary := range a.Categories {
		report.Categories = append(report.Categories, jsonCategory{
			Category:            int(summary.Category),
			FileCount:           summary.FileCount,
			TotalOriginalSize:   summary.TotalOriginalSize,
			TotalCompressedSize: summary.TotalCompressedSize,
			PercentageOfTotal:   summary.PercentageOfTotal,
		})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding analysis report: %w", err)
	}
	return string(data) + "\n", nil
}

const htmlStyle = `    body { font-family: Arial, sans-serif; margin: 20px; background: #1e1e1e; color: #d4d4d4; }
    h1 { color: #569cd6; }
    h2 { color: #4ec9b0; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
    th, td { border: 1px solid #3c3c3c; padding: 8px; text-align: left; }
    th { background-color: #252526; }
    tr:nth-child(even) { background-color: #2d2d30; }
    .warning { color: #ce9178; }
    .error { color: #f14c4c; }
    .size { text-align: right; }
`

// ExportHTML writes a self-contained dark-themed report: summary
// metrics, per-category sizes, and the suggestion table.
func (a *Analysis) ExportHTML(path string) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("  <title>Build Size Analysis Report</title>\n")
	b.WriteString("  <style>\n" + htmlStyle + "  </style>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString("  <h1>Build Size Analysis Report</h1>\n")

	b.WriteString("  <h2>Summary</h2>\n  <table>\n")
	b.WriteString("    <tr><th>Metric</th><th>Value</th></tr>\n")
	summaryRow(&b, "Total Size", FormatBytes(a.TotalOriginalSize))
	summaryRow(&b, "File Count", fmt.Sprintf("%d", a.TotalFileCount))
	summaryRow(&b, "Compression Ratio", fmt.Sprintf("%.2f%%", a.OverallCompressionRatio*100))
	summaryRow(&b, "Wasted Space (Duplicates)", FormatBytes(a.TotalWastedSpace))
	summaryRow(&b, "Unused Space", FormatBytes(a.UnusedSpace))
	summaryRow(&b, "Potential Savings", FormatBytes(a.PotentialSavings))
	b.WriteString("  </table>\n")

	b.WriteString("  <h2>Size by Category</h2>\n  <table>\n")
	b.WriteString("    <tr><th>Category</th><th>Files</th><th>Size</th><th>% of Total</th></tr>\n")
	for _, cat := range a.Categories {
		fmt.Fprintf(&b, "    <tr><td>%s</td><td class='size'>%d</td><td class='size'>%s</td><td class='size'>%.1f%%</td></tr>\n",
			cat.Category, cat.FileCount, FormatBytes(cat.TotalOriginalSize), cat.PercentageOfTotal)
	}
	b.WriteString("  </table>\n")

	if len(a.Suggestions) > 0 {
		b.WriteString("  <h2>Optimization Suggestions</h2>\n  <table>\n")
		b.WriteString("    <tr><th>Priority</th><th>Type</th><th>Asset</th><th>Description</th><th>Est. Savings</th></tr>\n")
		for _, sug := range a.Suggestions {
			fmt.Fprintf(&b, "    <tr><td class='%s'>%s</td><td>%s</td><td>%s</td><td>%s</td><td class='size'>%s</td></tr>\n",
				priorityClass(sug.Priority), sug.Priority, sug.Kind,
				html.EscapeString(sug.AssetPath), html.EscapeString(sug.Description),
				FormatBytes(sug.EstimatedSavings))
		}
		b.WriteString("  </table>\n")
	}

	b.WriteString("</body>\n</html>\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing HTML report: %w", err)
	}
	return nil
}

func summaryRow(b *strings.Builder, metric, value string) {
	fmt.Fprintf(b, "    <tr><td>%s</td><td class='size'>%s</td></tr>\n", metric, value)
}

func priorityClass(p Priority) string {
	switch p {
	case PriorityCritical:
		return "error"
	case PriorityHigh:
		return "warning"
	default:
		return ""
	}
}

// ExportCSV writes one row per analyzed asset.
func (a *Analysis) ExportCSV(path string) error {
	var b strings.Builder
	b.WriteString("Path,Name,Category,Original Size,Compressed Size,Compression Ratio,Is Duplicate,Is Unused\n")
	for _, info := range a.Assets {
		fmt.Fprintf(&b, "%s,%s,%s,%d,%d,%g,%s,%s\n",
			csvQuote(info.Path), csvQuote(info.Name), info.Category,
			info.OriginalSize, info.CompressedSize, info.CompressionRatio,
			yesNo(info.Duplicate), yesNo(info.Unused))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing CSV report: %w", err)
	}
	return nil
}

// csvQuote always quotes, doubling any embedded quotes per RFC 4180.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
