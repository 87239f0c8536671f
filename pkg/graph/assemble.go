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

package graph

import (
	"fmt"
	"sort"
)

// FileResult is the per-file output of the extraction phase, the unit the
// assembler merges. Skipped results carry no entities or edges.
type FileResult struct {
	File     SourceFile
	Entities []Entity
	Edges    []ImportEdge

	// Skipped marks a file excluded from extraction (size ceiling, unreadable).
	Skipped    bool
	SkipReason string

	// Fallback marks a file whose AST parse failed and whose entities came
	// from the pattern-matching path.
	Fallback bool
}

// Assemble merges per-file extraction results into one graph.
//
// Results are sorted by relative path before assembly so the output is
// independent of scan completion order. The returned graph is NOT frozen;
// the caller classifies it (language histogram, framework) and then freezes.
//
// Fails fast with a *PathCollisionError if two files normalize to the same
// path key.
func Assemble(results []FileResult) (*Graph, error) {
	sorted := make([]FileResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].File.Path < sorted[j].File.Path
	})

	g := New()
	for _, r := range sorted {
		if r.Skipped {
			reason := r.SkipReason
			if reason == "" {
				reason = "skipped"
			}
			g.MarkSkipped(r.File.Path, r.File.Size, reason)
			continue
		}

		if err := g.AddFile(r.File); err != nil {
			return nil, err
		}
		if err := g.AddEntities(r.File.Path, r.Entities); err != nil {
			return nil, fmt.Errorf("assemble entities: %w", err)
		}
		if err := g.AddImportEdges(r.File.Path, r.Edges); err != nil {
			return nil, fmt.Errorf("assemble edges: %w", err)
		}
	}

	return g, nil
}
