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
	"encoding/json"
	"fmt"
)

// Document is the serialized form of a graph, the shape written to
// code_graph.json. Field order is fixed and slices keep assembly order, so
// serializing the same graph twice yields identical bytes.
type Document struct {
	Files     []SourceFile       `json:"files"`
	Entities  map[string][]Entity `json:"entities"`
	Edges     []ImportEdge       `json:"imports"`
	Skipped   []SkippedFile      `json:"skipped,omitempty"`
	Languages []LanguageStat     `json:"languages"`
	Framework string             `json:"framework,omitempty"`
	Counts    DocumentCounts     `json:"counts"`
}

// DocumentCounts summarizes the graph for quick inspection of the artifact.
type DocumentCounts struct {
	Files      int `json:"files"`
	Entities   int `json:"entities"`
	Functions  int `json:"functions"`
	Classes    int `json:"classes"`
	Components int `json:"components"`
	Imports    int `json:"imports"`
	Skipped    int `json:"skipped"`
}

// Serialize renders a frozen graph as indented JSON. The graph must be frozen
// first; serializing a mutable graph would let the artifact drift from the
// in-memory state.
func Serialize(g *Graph) ([]byte, error) {
	if !g.Frozen() {
		return nil, fmt.Errorf("serialize: graph is not frozen")
	}

	byKind := g.CountByKind()
	doc := Document{
		Files:     g.Files(),
		Entities:  make(map[string][]Entity, len(g.Files())),
		Edges:     g.Edges(),
		Skipped:   g.Skipped(),
		Languages: g.Histogram(),
		Framework: g.Framework(),
		Counts: DocumentCounts{
			Files:      len(g.Files()),
			Entities:   g.EntityCount(),
			Functions:  byKind[KindFunction],
			Classes:    byKind[KindClass],
			Components: byKind[KindComponent],
			Imports:    len(g.Edges()),
			Skipped:    len(g.Skipped()),
		},
	}
	for _, f := range g.Files() {
		if ents := g.EntitiesFor(f.Path); len(ents) > 0 {
			doc.Entities[f.Path] = ents
		}
	}

	// encoding/json sorts map keys, so the entities object is stable too.
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	return append(out, '\n'), nil
}
