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

package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kraklabs/ccg/pkg/graph"
	"github.com/kraklabs/ccg/pkg/llm"
)

// maxDiagramEdges bounds the skeleton so huge repositories stay renderable.
const maxDiagramEdges = 150

// Diagram produces the diagram.mmd content. The Mermaid skeleton is built
// locally and deterministically from the import edges; when a provider is
// configured it gets one chance to refine the layout. A failed provider
// call fails the stage, but the skeleton is still returned so the caller
// can keep it as a partial output. A refinement that comes back as
// non-Mermaid prose degrades to the skeleton without failing.
func (r *Renderer) Diagram(ctx context.Context, g *graph.Graph) (string, error) {
	skeleton := MermaidSkeleton(g)
	if r.provider == nil {
		return skeleton, nil
	}

	prompt := skeleton + "\n\n" + BuildSummary(g, "")
	resp, err := r.provider.Generate(ctx, llm.GenerateRequest{
		System: llm.SystemPrompts.RepoDiagram,
		Prompt: prompt,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.logger.Warn("render.diagram.refine_failed", "error", err)
		return skeleton, err
	}

	refined := stripFences(resp.Text)
	if !validMermaid(refined) {
		r.logger.Warn("render.diagram.refine_invalid", "provider", r.provider.Name())
		return skeleton, nil
	}
	return refined, nil
}

// MermaidSkeleton renders the import edges as a Mermaid graph. Node order
// follows the graph's file and edge order, so output is stable.
func MermaidSkeleton(g *graph.Graph) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := map[string]bool{}
	declare := func(label string) string {
		id := mermaidID(label)
		if !declared[id] {
			declared[id] = true
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, label)
		}
		return id
	}

	for _, f := range g.Files() {
		declare(f.Path)
	}

	edges := g.Edges()
	if len(edges) > maxDiagramEdges {
		edges = edges[:maxDiagramEdges]
	}
	for _, e := range edges {
		from := declare(e.From)
		to := declare(e.Target)
		fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
	}

	return sb.String()
}

var mermaidIDPattern = regexp.MustCompile(`[^A-Za-z0-9_]`)

// mermaidID derives a node identifier from a label. Distinct labels can
// collide after sanitizing; acceptable for a visualization.
func mermaidID(label string) string {
	id := mermaidIDPattern.ReplaceAllString(label, "_")
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "n_" + id
	}
	return id
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```mermaid")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func validMermaid(s string) bool {
	return strings.HasPrefix(s, "graph ") || strings.HasPrefix(s, "flowchart ")
}
