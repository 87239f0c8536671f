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
	"log/slog"
	"strings"

	"github.com/kraklabs/ccg/pkg/graph"
	"github.com/kraklabs/ccg/pkg/llm"
)

// Renderer turns a frozen graph into documentation and diagram artifacts.
// A nil provider disables LLM-backed content; the diagram still renders
// locally and the documentation falls back to the structural summary.
type Renderer struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates a Renderer. logger must not be nil.
func New(provider llm.Provider, logger *slog.Logger) *Renderer {
	return &Renderer{provider: provider, logger: logger}
}

// Documentation produces the docs.md content for a run: a header with graph
// statistics followed by provider-written prose. When a provider is set the
// README is condensed first so the prompt carries a short summary instead of
// the raw file. Provider failures surface as errors so the stage can be
// marked failed.
func (r *Renderer) Documentation(ctx context.Context, name string, g *graph.Graph, readme string) (string, error) {
	if r.provider != nil && readme != "" {
		condensed, err := r.ReadmeSummary(ctx, readme)
		if err != nil {
			return "", err
		}
		if condensed != "" {
			readme = condensed
		}
	}

	summary := BuildSummary(g, readme)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	writeStats(&sb, g)

	if r.provider == nil {
		// Structural fallback: the summary itself is the documentation.
		sb.WriteString("\n")
		sb.WriteString(summary)
		return sb.String(), nil
	}

	r.logger.Info("render.docs.generate.start", "provider", r.provider.Name())
	resp, err := r.provider.Generate(ctx, llm.GenerateRequest{
		System: llm.SystemPrompts.RepoDocument,
		Prompt: summary,
	})
	if err != nil {
		return "", fmt.Errorf("documentation: %w", err)
	}
	r.logger.Info("render.docs.generate.done",
		"provider", r.provider.Name(),
		"output_tokens", resp.OutputTokens,
	)

	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(resp.Text))
	sb.WriteString("\n")
	return sb.String(), nil
}

// ReadmeSummary condenses README content with the provider. Empty input or a
// missing provider yields an empty summary, not an error.
func (r *Renderer) ReadmeSummary(ctx context.Context, readme string) (string, error) {
	if readme == "" || r.provider == nil {
		return "", nil
	}

	resp, err := r.provider.Generate(ctx, llm.GenerateRequest{
		System: llm.SystemPrompts.ReadmeSummary,
		Prompt: truncate(readme, maxReadmeSummaryBytes),
	})
	if err != nil {
		return "", fmt.Errorf("readme summary: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func writeStats(sb *strings.Builder, g *graph.Graph) {
	counts := g.CountByKind()
	fmt.Fprintf(sb, "Files analyzed: %d\n", len(g.Files()))
	fmt.Fprintf(sb, "Entities: %d functions, %d classes, %d components\n",
		counts[graph.KindFunction], counts[graph.KindClass], counts[graph.KindComponent])
	fmt.Fprintf(sb, "Import edges: %d\n", len(g.Edges()))
	if fw := g.Framework(); fw != "" {
		fmt.Fprintf(sb, "Framework: %s\n", fw)
	}
	if len(g.Histogram()) > 0 {
		langs := make([]string, 0, len(g.Histogram()))
		for _, stat := range g.Histogram() {
			langs = append(langs, string(stat.Language))
		}
		fmt.Fprintf(sb, "Languages: %s\n", strings.Join(langs, ", "))
	}
}
