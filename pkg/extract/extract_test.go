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
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ccg/pkg/graph"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExtractor(t *testing.T, mode Mode) Extractor {
	t.Helper()
	x, err := New(mode, testLogger())
	require.NoError(t, err)
	return x
}

func srcFile(path string, content string) graph.SourceFile {
	return graph.SourceFile{
		Path:     path,
		Language: graph.LanguageForPath(path),
		Size:     int64(len(content)),
		Content:  []byte(content),
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New("guess", testLogger())
	require.Error(t, err)
}

func TestPythonFunctionWithDocstring(t *testing.T) {
	src := "def foo():\n    \"\"\"Hi\"\"\"\n    pass\n"

	res, err := newExtractor(t, ModeAuto).Extract(context.Background(), srcFile("app.py", src))
	require.NoError(t, err)
	assert.False(t, res.Fallback)

	require.Len(t, res.Entities, 1)
	e := res.Entities[0]
	assert.Equal(t, graph.KindFunction, e.Kind)
	assert.Equal(t, "foo", e.Name)
	assert.Equal(t, 1, e.Line)
	assert.Equal(t, "Hi", e.Docstring)
}

func TestPythonClassAndMethods(t *testing.T) {
	src := strings.Join([]string{
		"import os",
		"from pkg.sub import thing",
		"",
		"class Store:",
		"    '''Keeps things.'''",
		"",
		"    def get(self, key):",
		"        return self.data[key]",
		"",
		"async def main():",
		"    pass",
		"",
	}, "\n")

	res, err := newExtractor(t, ModeAuto).Extract(context.Background(), srcFile("store.py", src))
	require.NoError(t, err)

	byName := map[string]graph.Entity{}
	for _, e := range res.Entities {
		byName[e.Name] = e
	}
	require.Len(t, byName, 3)
	assert.Equal(t, graph.KindClass, byName["Store"].Kind)
	assert.Equal(t, "Keeps things.", byName["Store"].Docstring)
	assert.Equal(t, graph.KindFunction, byName["get"].Kind)
	assert.Equal(t, graph.KindFunction, byName["main"].Kind)

	targets := map[string]bool{}
	for _, e := range res.Edges {
		targets[e.Target] = true
	}
	assert.True(t, targets["os"])
	assert.True(t, targets["pkg.sub"])
}

func TestJSXComponentDetection(t *testing.T) {
	src := strings.Join([]string{
		"import React from 'react';",
		"import { api } from './api';",
		"",
		"export function App() {",
		"  return <div>hello</div>;",
		"}",
		"",
		"const Button = () => <button>go</button>;",
		"",
		"function formatDate(d) {",
		"  return d.toISOString();",
		"}",
		"",
	}, "\n")

	res, err := newExtractor(t, ModeAuto).Extract(context.Background(), srcFile("web/App.jsx", src))
	require.NoError(t, err)

	byName := map[string]graph.Entity{}
	for _, e := range res.Entities {
		byName[e.Name] = e
	}
	require.Len(t, byName, 3)

	assert.Equal(t, graph.KindComponent, byName["App"].Kind)
	assert.True(t, byName["App"].Component)
	assert.Equal(t, graph.KindComponent, byName["Button"].Kind)
	assert.Equal(t, graph.KindFunction, byName["formatDate"].Kind)
	assert.False(t, byName["formatDate"].Component)

	targets := map[string]bool{}
	for _, e := range res.Edges {
		targets[e.Target] = true
	}
	assert.True(t, targets["react"])
	assert.True(t, targets["./api"])
}

func TestTypeScriptClassAndArrow(t *testing.T) {
	src := strings.Join([]string{
		"import { Injectable } from '@nestjs/common';",
		"",
		"export class UserService {",
		"  find(id: string) { return null; }",
		"}",
		"",
		"export const parseId = (raw: string): number => Number(raw);",
		"",
	}, "\n")

	res, err := newExtractor(t, ModeAuto).Extract(context.Background(), srcFile("src/user.service.ts", src))
	require.NoError(t, err)

	byName := map[string]graph.Entity{}
	for _, e := range res.Entities {
		byName[e.Name] = e
	}
	assert.Equal(t, graph.KindClass, byName["UserService"].Kind)
	assert.Equal(t, graph.KindFunction, byName["parseId"].Kind)
}

func TestUnknownLanguageYieldsNothing(t *testing.T) {
	res, err := newExtractor(t, ModeAuto).Extract(context.Background(), srcFile("README.md", "# hi\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.Edges)
}

func TestSimplifiedModePython(t *testing.T) {
	src := strings.Join([]string{
		"def first():",
		"    \"\"\"Does the first thing.\"\"\"",
		"    return 1",
		"",
		"class Thing:",
		"    pass",
		"",
	}, "\n")

	res, err := newExtractor(t, ModeSimplified).Extract(context.Background(), srcFile("m.py", src))
	require.NoError(t, err)

	byName := map[string]graph.Entity{}
	for _, e := range res.Entities {
		byName[e.Name] = e
	}
	require.Len(t, byName, 2)
	assert.Equal(t, 1, byName["first"].Line)
	assert.Equal(t, "Does the first thing.", byName["first"].Docstring)
	assert.Equal(t, graph.KindClass, byName["Thing"].Kind)
	assert.Equal(t, 5, byName["Thing"].Line)
}

func TestSimplifiedModeScriptComponent(t *testing.T) {
	src := strings.Join([]string{
		"export const Card = (props) => {",
		"  return <section>{props.title}</section>;",
		"};",
		"",
		"export const sum = (a, b) => a + b;",
		"",
	}, "\n")

	res, err := newExtractor(t, ModeSimplified).Extract(context.Background(), srcFile("Card.jsx", src))
	require.NoError(t, err)

	byName := map[string]graph.Entity{}
	for _, e := range res.Entities {
		byName[e.Name] = e
	}
	require.Len(t, byName, 2)
	assert.Equal(t, graph.KindComponent, byName["Card"].Kind)
	assert.Equal(t, graph.KindFunction, byName["sum"].Kind)
}

func TestCleanDocstringTruncates(t *testing.T) {
	long := strings.Repeat("x", graph.DocstringLimit+50)
	got := cleanDocstring(`"""` + long + `"""`)
	assert.Len(t, got, graph.DocstringLimit)
}

func TestExtractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newExtractor(t, ModeSimplified).Extract(ctx, srcFile("a.py", "def f():\n    pass\n"))
	require.ErrorIs(t, err, context.Canceled)
}
