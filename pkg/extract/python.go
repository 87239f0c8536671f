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
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/ccg/pkg/graph"
)

// extractPython walks a Python AST collecting function and class
// declarations, including nested and method definitions.
func (x *astExtractor) extractPython(root *sitter.Node, f graph.SourceFile) *Result {
	res := &Result{}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition":
			if e, ok := pythonEntity(n, f, graph.KindFunction); ok {
				res.Entities = append(res.Entities, e)
			}
		case "class_definition":
			if e, ok := pythonEntity(n, f, graph.KindClass); ok {
				res.Entities = append(res.Entities, e)
			}
		}
	})

	return res
}

func pythonEntity(n *sitter.Node, f graph.SourceFile, kind graph.EntityKind) (graph.Entity, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return graph.Entity{}, false
	}

	return graph.Entity{
		Kind:      kind,
		Name:      nodeText(nameNode, f.Content),
		File:      f.Path,
		Line:      nodeLine(n),
		Docstring: pythonDocstring(n, f.Content),
	}, true
}

// pythonDocstring returns the declaration's docstring, if its body opens with
// a bare string expression.
func pythonDocstring(n *sitter.Node, content []byte) string {
	body := n.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}

	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}

	str := first.NamedChild(0)
	if str == nil || str.Type() != "string" {
		return ""
	}

	return cleanDocstring(nodeText(str, content))
}
