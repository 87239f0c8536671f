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
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/ccg/pkg/graph"
)

// extractScript walks a JavaScript or TypeScript AST. Covers function
// declarations, classes, and function-valued const/let/var declarators
// (arrow functions and function expressions). Function-shaped declarations
// with an uppercase name and markup in the body are classified as UI
// components.
func (x *astExtractor) extractScript(root *sitter.Node, f graph.SourceFile) *Result {
	res := &Result{}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			if e, ok := scriptFunction(n, n, f); ok {
				res.Entities = append(res.Entities, e)
			}
		case "class_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			res.Entities = append(res.Entities, graph.Entity{
				Kind: graph.KindClass,
				Name: nodeText(nameNode, f.Content),
				File: f.Path,
				Line: nodeLine(n),
			})
		case "variable_declarator":
			nameNode := n.ChildByFieldName("name")
			valueNode := n.ChildByFieldName("value")
			if nameNode == nil || valueNode == nil {
				return
			}
			switch valueNode.Type() {
			case "arrow_function", "function_expression", "function":
			default:
				return
			}
			if e, ok := scriptDeclaratorFunction(nameNode, valueNode, n, f); ok {
				res.Entities = append(res.Entities, e)
			}
		}
	})

	return res
}

func scriptFunction(nameHolder, body *sitter.Node, f graph.SourceFile) (graph.Entity, bool) {
	nameNode := nameHolder.ChildByFieldName("name")
	if nameNode == nil {
		return graph.Entity{}, false
	}
	return scriptEntity(nodeText(nameNode, f.Content), body, nodeLine(nameHolder), f), true
}

func scriptDeclaratorFunction(nameNode, valueNode, declarator *sitter.Node, f graph.SourceFile) (graph.Entity, bool) {
	if nameNode.Type() != "identifier" {
		return graph.Entity{}, false
	}
	return scriptEntity(nodeText(nameNode, f.Content), valueNode, nodeLine(declarator), f), true
}

func scriptEntity(name string, body *sitter.Node, line int, f graph.SourceFile) graph.Entity {
	e := graph.Entity{
		Kind: graph.KindFunction,
		Name: name,
		File: f.Path,
		Line: line,
	}
	if isComponentName(name) && bodyHasMarkup(body, f) {
		e.Kind = graph.KindComponent
		e.Component = true
	}
	return e
}

// isComponentName reports whether name follows the component naming
// convention: first rune uppercase.
func isComponentName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// bodyHasMarkup reports whether a function body renders markup. The
// javascript and tsx grammars expose JSX node types directly; the plain
// typescript grammar has no JSX, so .ts bodies fall back to a textual check.
func bodyHasMarkup(body *sitter.Node, f graph.SourceFile) bool {
	if f.Language == graph.LangTypeScript {
		return markupPattern.MatchString(nodeText(body, f.Content))
	}

	found := false
	walk(body, func(n *sitter.Node) {
		switch n.Type() {
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			found = true
		}
	})
	return found
}
