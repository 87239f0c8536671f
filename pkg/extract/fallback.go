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
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kraklabs/ccg/pkg/graph"
)

// patternExtractor extracts declarations with regular expressions. It is the
// fallback for files Tree-sitter cannot parse and the whole implementation in
// simplified mode. It tolerates any input; approximate results beat none.
type patternExtractor struct {
	logger *slog.Logger
}

var (
	pyFunctionPattern = regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+(\w+)[ \t]*\(`)
	pyClassPattern    = regexp.MustCompile(`(?m)^[ \t]*class[ \t]+(\w+)[ \t]*[:(]`)
	pyDocPattern      = regexp.MustCompile(`(?s)^\s*[rRbBuUfF]*("""(.*?)"""|'''(.*?)''')`)

	jsFunctionPattern = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:default[ \t]+)?(?:async[ \t]+)?function[ \t]*\*?[ \t]+(\w+)`)
	jsClassPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:default[ \t]+)?class[ \t]+(\w+)`)
	jsArrowPattern    = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:const|let|var)[ \t]+(\w+)[ \t]*=[ \t]*(?:async[ \t]+)?(?:\([^)\n]*\)|\w+)[ \t]*=>`)

	// markupPattern approximates "the body renders markup": an opening tag,
	// a fragment, or a closing tag.
	markupPattern = regexp.MustCompile(`<\/?[A-Za-z>]|<>`)
)

func (x *patternExtractor) Extract(ctx context.Context, f graph.SourceFile) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	src := string(f.Content)

	switch f.Language {
	case graph.LangPython:
		res.Entities = pythonPatternEntities(src, f.Path)
	case graph.LangJavaScript, graph.LangJSX, graph.LangTypeScript, graph.LangTSX:
		res.Entities = scriptPatternEntities(src, f.Path)
	default:
		return res, nil
	}

	res.Edges = importEdges(f)
	return res, nil
}

func pythonPatternEntities(src, path string) []graph.Entity {
	var ents []graph.Entity

	for _, m := range pyFunctionPattern.FindAllStringSubmatchIndex(src, -1) {
		name := src[m[2]:m[3]]
		ents = append(ents, graph.Entity{
			Kind:      graph.KindFunction,
			Name:      name,
			File:      path,
			Line:      lineAt(src, m[0]),
			Docstring: pythonPatternDocstring(src, m[1]),
		})
	}
	for _, m := range pyClassPattern.FindAllStringSubmatchIndex(src, -1) {
		ents = append(ents, graph.Entity{
			Kind:      graph.KindClass,
			Name:      src[m[2]:m[3]],
			File:      path,
			Line:      lineAt(src, m[0]),
			Docstring: pythonPatternDocstring(src, m[1]),
		})
	}

	return ents
}

// pythonPatternDocstring scans past the declaration's header line for a
// triple-quoted string opening the body.
func pythonPatternDocstring(src string, from int) string {
	rest := src[from:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return ""
	}
	m := pyDocPattern.FindStringSubmatch(rest[nl+1:])
	if m == nil {
		return ""
	}
	body := m[2]
	if body == "" {
		body = m[3]
	}
	return cleanDocstring(body)
}

func scriptPatternEntities(src, path string) []graph.Entity {
	var ents []graph.Entity

	appendFn := func(m []int) {
		name := src[m[2]:m[3]]
		e := graph.Entity{
			Kind: graph.KindFunction,
			Name: name,
			File: path,
			Line: lineAt(src, m[0]),
		}
		if isComponentName(name) && markupPattern.MatchString(declarationBody(src, m[1])) {
			e.Kind = graph.KindComponent
			e.Component = true
		}
		ents = append(ents, e)
	}

	for _, m := range jsFunctionPattern.FindAllStringSubmatchIndex(src, -1) {
		appendFn(m)
	}
	for _, m := range jsArrowPattern.FindAllStringSubmatchIndex(src, -1) {
		appendFn(m)
	}
	for _, m := range jsClassPattern.FindAllStringSubmatchIndex(src, -1) {
		ents = append(ents, graph.Entity{
			Kind: graph.KindClass,
			Name: src[m[2]:m[3]],
			File: path,
			Line: lineAt(src, m[0]),
		})
	}

	return ents
}

// declarationBody approximates a declaration's body: the text from the match
// up to the next top-of-line declaration keyword, capped at 4 KiB.
func declarationBody(src string, from int) string {
	rest := src[from:]
	if len(rest) > 4096 {
		rest = rest[:4096]
	}
	if next := nextDeclPattern.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return rest
}

var nextDeclPattern = regexp.MustCompile(`(?m)^(?:export[ \t]+)?(?:function|class|const|let|var)\b`)

// lineAt returns the 1-based line containing byte offset.
func lineAt(src string, offset int) int {
	return strings.Count(src[:offset], "\n") + 1
}
