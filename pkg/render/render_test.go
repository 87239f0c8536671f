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
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ccg/pkg/graph"
	"github.com/kraklabs/ccg/pkg/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Assemble([]graph.FileResult{
		{
			File: graph.SourceFile{Path: "app/main.py", Language: graph.LangPython, Size: 200},
			Entities: []graph.Entity{
				{Kind: graph.KindFunction, Name: "main", Line: 5, Docstring: "Entry point."},
				{Kind: graph.KindClass, Name: "App", Line: 12},
			},
			Edges: []graph.ImportEdge{{Target: "flask"}, {Target: "app.models"}},
		},
		{
			File: graph.SourceFile{Path: "web/Home.jsx", Language: graph.LangJSX, Size: 400},
			Entities: []graph.Entity{
				{Kind: graph.KindComponent, Name: "Home", Line: 3, Component: true},
			},
			Edges: []graph.ImportEdge{{Target: "react"}},
		},
	})
	require.NoError(t, err)
	g.SetClassification([]graph.LanguageStat{
		{Language: graph.LangJSX, Files: 1, Bytes: 400},
		{Language: graph.LangPython, Files: 1, Bytes: 200},
	}, "react")
	g.Freeze()
	return g
}

func TestBuildSummaryIsDeterministic(t *testing.T) {
	g := sampleGraph(t)
	assert.Equal(t, BuildSummary(g, "readme text"), BuildSummary(g, "readme text"))
}

func TestBuildSummaryContents(t *testing.T) {
	s := BuildSummary(sampleGraph(t), "A sample project.")

	assert.Contains(t, s, "Framework: react")
	assert.Contains(t, s, "app/main.py")
	assert.Contains(t, s, "function main (line 5): Entry point.")
	assert.Contains(t, s, "component Home")
	assert.Contains(t, s, "app/main.py -> flask")
	assert.Contains(t, s, "A sample project.")
}

func TestMermaidSkeleton(t *testing.T) {
	mmd := MermaidSkeleton(sampleGraph(t))

	assert.True(t, strings.HasPrefix(mmd, "graph TD\n"))
	assert.Contains(t, mmd, `app_main_py["app/main.py"]`)
	assert.Contains(t, mmd, "app_main_py --> flask")
	assert.Contains(t, mmd, "web_Home_jsx --> react")

	// stable across calls
	assert.Equal(t, mmd, MermaidSkeleton(sampleGraph(t)))
}

func TestDocumentationWithProvider(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			assert.Contains(t, req.Prompt, "app/main.py")
			return &llm.GenerateResponse{Text: "This project serves a web app.", Model: "mock-model"}, nil
		},
	}

	docs, err := New(provider, testLogger()).Documentation(context.Background(), "owner_repo", sampleGraph(t), "")
	require.NoError(t, err)

	assert.Contains(t, docs, "# owner_repo")
	assert.Contains(t, docs, "Files analyzed: 2")
	assert.Contains(t, docs, "This project serves a web app.")
}

func TestDocumentationWithoutProviderFallsBackToSummary(t *testing.T) {
	docs, err := New(nil, testLogger()).Documentation(context.Background(), "owner_repo", sampleGraph(t), "")
	require.NoError(t, err)
	assert.Contains(t, docs, "## Files and entities")
}

func TestDocumentationProviderFailure(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, &llm.GenerationError{Provider: "mock", Err: fmt.Errorf("boom")}
		},
	}

	_, err := New(provider, testLogger()).Documentation(context.Background(), "x", sampleGraph(t), "")
	require.Error(t, err)

	var genErr *llm.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestDiagramRefinementAccepted(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: "```mermaid\ngraph TD\n    a --> b\n```"}, nil
		},
	}

	mmd, err := New(provider, testLogger()).Diagram(context.Background(), sampleGraph(t))
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n    a --> b", mmd)
}

func TestDiagramRefinementRejectedKeepsSkeleton(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: "Sure! Here is a description of the diagram..."}, nil
		},
	}

	mmd, err := New(provider, testLogger()).Diagram(context.Background(), sampleGraph(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mmd, "graph TD\n"))
	assert.Contains(t, mmd, "app_main_py")
}

func TestDiagramProviderFailureReturnsSkeletonAndError(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, &llm.GenerationError{Provider: "mock", Err: fmt.Errorf("unreachable")}
		},
	}

	mmd, err := New(provider, testLogger()).Diagram(context.Background(), sampleGraph(t))
	require.Error(t, err)

	var genErr *llm.GenerationError
	assert.ErrorAs(t, err, &genErr)

	// The local skeleton is still returned as a partial output.
	assert.True(t, strings.HasPrefix(mmd, "graph TD\n"))
}

func TestDocumentationCondensesReadme(t *testing.T) {
	readme := "# Project\nA very verbose readme body that should never reach the docs prompt.\n"

	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			if req.System == llm.SystemPrompts.ReadmeSummary {
				return &llm.GenerateResponse{Text: "Condensed readme."}, nil
			}
			assert.Contains(t, req.Prompt, "Condensed readme.")
			assert.NotContains(t, req.Prompt, "very verbose readme body")
			return &llm.GenerateResponse{Text: "Docs prose."}, nil
		},
	}

	docs, err := New(provider, testLogger()).Documentation(context.Background(), "x", sampleGraph(t), readme)
	require.NoError(t, err)
	assert.Contains(t, docs, "Docs prose.")
}

func TestDocumentationReadmeCondenseFailureFails(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, &llm.GenerationError{Provider: "mock", Err: fmt.Errorf("boom")}
		},
	}

	_, err := New(provider, testLogger()).Documentation(context.Background(), "x", sampleGraph(t), "# Readme\nbody\n")
	require.Error(t, err)

	var genErr *llm.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestReadmeSummary(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return &llm.GenerateResponse{Text: " A short summary. "}, nil
		},
	}

	r := New(provider, testLogger())
	got, err := r.ReadmeSummary(context.Background(), "# Project\nLong readme.")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", got)

	empty, err := r.ReadmeSummary(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
