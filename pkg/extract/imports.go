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

package extract

import (
	"regexp"

	"github.com/kraklabs/ccg/pkg/graph"
)

// Import specifiers are collected textually for every language. Specifiers
// are kept exactly as written; nothing resolves them against the filesystem.
var (
	pyImportPattern     = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+)`)
	pyFromImportPattern = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([\w.]+)[ \t]+import\b`)

	jsFromPattern       = regexp.MustCompile(`(?m)^[ \t]*(?:import|export)\b[^'"\n]*?from[ \t]*['"]([^'"\n]+)['"]`)
	jsSideEffectPattern = regexp.MustCompile(`(?m)^[ \t]*import[ \t]*['"]([^'"\n]+)['"]`)
	jsRequirePattern    = regexp.MustCompile(`(?:require|import)\([ \t]*['"]([^'"\n]+)['"][ \t]*\)`)
)

// importEdges extracts the file's import edges. Duplicates are left in; the
// graph deduplicates on insert.
func importEdges(f graph.SourceFile) []graph.ImportEdge {
	src := string(f.Content)

	var patterns []*regexp.Regexp
	switch f.Language {
	case graph.LangPython:
		patterns = []*regexp.Regexp{pyImportPattern, pyFromImportPattern}
	case graph.LangJavaScript, graph.LangJSX, graph.LangTypeScript, graph.LangTSX:
		patterns = []*regexp.Regexp{jsFromPattern, jsSideEffectPattern, jsRequirePattern}
	default:
		return nil
	}

	var edges []graph.ImportEdge
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(src, -1) {
			edges = append(edges, graph.ImportEdge{From: f.Path, Target: m[1]})
		}
	}
	return edges
}
