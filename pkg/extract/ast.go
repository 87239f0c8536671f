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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/ccg/pkg/graph"
)

// astExtractor parses source with Tree-sitter grammars. When a parse fails it
// hands the file to the pattern extractor instead of surfacing an error, so
// one malformed file degrades to approximate results rather than failing the
// run.
type astExtractor struct {
	logger   *slog.Logger
	fallback *patternExtractor
}

// grammarFor maps a language tag to its Tree-sitter grammar. The javascript
// grammar handles JSX; TypeScript needs the dedicated ts/tsx grammars.
func grammarFor(lang graph.Language) *sitter.Language {
	switch lang {
	case graph.LangPython:
		return python.GetLanguage()
	case graph.LangJavaScript, graph.LangJSX:
		return javascript.GetLanguage()
	case graph.LangTypeScript:
		return typescript.GetLanguage()
	case graph.LangTSX:
		return tsx.GetLanguage()
	default:
		return nil
	}
}

func (x *astExtractor) Extract(ctx context.Context, f graph.SourceFile) (*Result, error) {
	lang := grammarFor(f.Language)
	if lang == nil {
		// Outside the allowlist: no entities, no edges.
		return &Result{}, nil
	}

	// sitter.Parser is not safe for concurrent use, so each call gets its own.
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, f.Content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		x.logger.Warn("extract.ast.parse_failed",
			"path", f.Path,
			"language", f.Language,
			"error", err,
		)
		return x.fallbackExtract(ctx, f)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return x.fallbackExtract(ctx, f)
	}
	if root.HasError() {
		x.logger.Debug("extract.ast.syntax_errors", "path", f.Path)
	}

	var res *Result
	switch f.Language {
	case graph.LangPython:
		res = x.extractPython(root, f)
	default:
		res = x.extractScript(root, f)
	}

	res.Edges = importEdges(f)
	return res, nil
}

func (x *astExtractor) fallbackExtract(ctx context.Context, f graph.SourceFile) (*Result, error) {
	res, err := x.fallback.Extract(ctx, f)
	if err != nil {
		return nil, &ExtractionError{Path: f.Path, Err: err}
	}
	res.Fallback = true
	return res, nil
}

// nodeText returns the source text a node spans.
func nodeText(n *sitter.Node, content []byte) string {
	return string(content[n.StartByte():n.EndByte()])
}

// nodeLine returns the 1-based starting line of a node.
func nodeLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// walk visits every node of the subtree rooted at n, depth first.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

// cleanDocstring normalizes raw documentation text: quotes stripped, edges
// trimmed, length capped at graph.DocstringLimit runes.
func cleanDocstring(raw string) string {
	s := strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > graph.DocstringLimit {
		s = string(runes[:graph.DocstringLimit])
	}
	return s
}
