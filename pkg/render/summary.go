// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render produces the human-facing artifacts of a run: the
// documentation markdown and the architecture diagram. Prompts are built
// from bounded graph summaries so large repositories stay within provider
// context limits.
package render

import (
	"fmt"
	"strings"

	"github.com/kraklabs/ccg/pkg/graph"
)

// Sampling bounds for prompt construction. A graph summary never grows past
// these regardless of repository size.
const (
	maxSummaryFiles       = 50
	maxEntitiesPerFile    = 10
	maxSummaryEdges       = 100
	maxReadmeSummaryBytes = 4096
)

// BuildSummary renders a frozen graph as structured text for prompting.
// Output is deterministic: same graph, same text.
func BuildSummary(g *graph.Graph, readme string) string {
	var sb strings.Builder

	sb.WriteString("## Repository facts\n")
	if fw := g.Framework(); fw != "" {
		fmt.Fprintf(&sb, "Framework: %s\n", fw)
	}
	for _, stat := range g.Histogram() {
		fmt.Fprintf(&sb, "Language %s: %d files, %d bytes\n", stat.Language, stat.Files, stat.Bytes)
	}
	counts := g.CountByKind()
	fmt.Fprintf(&sb, "Entities: %d functions, %d classes, %d components\n",
		counts[graph.KindFunction], counts[graph.KindClass], counts[graph.KindComponent])
	if skipped := len(g.Skipped()); skipped > 0 {
		fmt.Fprintf(&sb, "Skipped files: %d\n", skipped)
	}

	if readme != "" {
		sb.WriteString("\n## README excerpt\n")
		sb.WriteString(truncate(readme, maxReadmeSummaryBytes))
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Files and entities\n")
	files := g.Files()
	shown := files
	if len(shown) > maxSummaryFiles {
		shown = shown[:maxSummaryFiles]
	}
	for _, f := range shown {
		fmt.Fprintf(&sb, "- %s (%s)\n", f.Path, f.Language)
		ents := g.EntitiesFor(f.Path)
		if len(ents) > maxEntitiesPerFile {
			ents = ents[:maxEntitiesPerFile]
		}
		for _, e := range ents {
			if e.Docstring != "" {
				fmt.Fprintf(&sb, "  - %s %s (line %d): %s\n", e.Kind, e.Name, e.Line, e.Docstring)
			} else {
				fmt.Fprintf(&sb, "  - %s %s (line %d)\n", e.Kind, e.Name, e.Line)
			}
		}
	}
	if len(files) > maxSummaryFiles {
		fmt.Fprintf(&sb, "... and %d more files\n", len(files)-maxSummaryFiles)
	}

	edges := g.Edges()
	if len(edges) > 0 {
		sb.WriteString("\n## Imports\n")
		shownEdges := edges
		if len(shownEdges) > maxSummaryEdges {
			shownEdges = shownEdges[:maxSummaryEdges]
		}
		for _, e := range shownEdges {
			fmt.Fprintf(&sb, "- %s -> %s\n", e.From, e.Target)
		}
		if len(edges) > maxSummaryEdges {
			fmt.Fprintf(&sb, "... and %d more imports\n", len(edges)-maxSummaryEdges)
		}
	}

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
