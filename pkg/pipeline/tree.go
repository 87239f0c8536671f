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

package pipeline

import (
	"encoding/json"
	"sort"
	"strings"
)

// TreeNode is one node of the file tree artifact. Directories carry
// children; files carry a size.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path,omitempty"`
	Dir      bool        `json:"dir,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildTree folds flat walk entries into a nested tree. Children are sorted
// directories first, then by name, so serialization is deterministic.
func BuildTree(name string, entries []TreeEntry) *TreeNode {
	root := &TreeNode{Name: name, Dir: true}
	dirs := map[string]*TreeNode{"": root}

	dirFor := func(dir string) *TreeNode {
		if n, ok := dirs[dir]; ok {
			return n
		}
		// Create missing ancestors from the top down.
		parts := strings.Split(dir, "/")
		cur := root
		prefix := ""
		for _, part := range parts {
			if prefix == "" {
				prefix = part
			} else {
				prefix = prefix + "/" + part
			}
			next, ok := dirs[prefix]
			if !ok {
				next = &TreeNode{Name: part, Path: prefix, Dir: true}
				cur.Children = append(cur.Children, next)
				dirs[prefix] = next
			}
			cur = next
		}
		return cur
	}

	for _, e := range entries {
		dir := ""
		name := e.Path
		if i := strings.LastIndexByte(e.Path, '/'); i >= 0 {
			dir, name = e.Path[:i], e.Path[i+1:]
		}
		parent := dirFor(dir)
		parent.Children = append(parent.Children, &TreeNode{
			Name: name,
			Path: e.Path,
			Size: e.Size,
		})
	}

	sortTree(root)
	return root
}

func sortTree(n *TreeNode) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Dir != b.Dir {
			return a.Dir
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		if c.Dir {
			sortTree(c)
		}
	}
}

// MarshalTree renders the tree as indented JSON for file_tree.json.
func MarshalTree(root *TreeNode) ([]byte, error) {
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
