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
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ccg/pkg/graph"
	"github.com/kraklabs/ccg/pkg/llm"
)

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	if cfg.OutDir == "" {
		cfg.OutDir = t.TempDir()
	}
	if cfg.Provider == nil {
		cfg.Provider = &llm.MockProvider{}
	}
	o, err := NewOrchestrator(cfg, testLogger(), NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestExecuteHappyPath(t *testing.T) {
	root := sampleRepo(t)
	out := t.TempDir()
	o := newTestOrchestrator(t, Config{Source: root, OutDir: out})

	run, err := o.Execute(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)

	for _, s := range run.Stages {
		assert.Equal(t, StateComplete, s.State, "stage %s", s.Stage)
	}
	assert.False(t, run.Failed())
	assert.False(t, run.Finished.IsZero())

	for _, path := range []string{
		run.Outputs.Documentation,
		run.Outputs.Diagram,
		run.Outputs.Graph,
		run.Outputs.FileTree,
	} {
		require.NotEmpty(t, path)
		_, err := os.Stat(path)
		assert.NoError(t, err, "artifact %s", path)
	}

	runDir := filepath.Join(out, run.Name)
	graphJSON, err := os.ReadFile(filepath.Join(runDir, "code_graph.json"))
	require.NoError(t, err)
	assert.Contains(t, string(graphJSON), `"framework": "react"`)
	assert.Contains(t, string(graphJSON), "src/app.py")
}

func TestExecuteFailFastOnPathCollision(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs a case-sensitive filesystem")
	}

	root := t.TempDir()
	writeFile(t, root, "a/x.py", "def f():\n    pass\n")
	writeFile(t, root, "A/x.py", "def g():\n    pass\n")

	o := newTestOrchestrator(t, Config{Source: root})
	run, err := o.Execute(context.Background())
	require.Error(t, err)

	var collision *graph.PathCollisionError
	assert.True(t, errors.As(err, &collision))

	assert.Equal(t, StateComplete, run.StageStatus(StageMap).State)
	assert.Equal(t, StateError, run.StageStatus(StageAnalyze).State)

	// later stages fail without ever running
	for _, stage := range []Stage{StageDocument, StageDiagram} {
		st := run.StageStatus(stage)
		assert.Equal(t, StateError, st.State, "stage %s", stage)
		assert.Equal(t, "skipped: earlier stage failed", st.Error)
		assert.Zero(t, st.Duration)
	}
}

func TestExecuteDocumentFailureSkipsDiagram(t *testing.T) {
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
			return nil, &llm.GenerationError{Provider: "mock", Err: errors.New("provider down")}
		},
	}

	o := newTestOrchestrator(t, Config{Source: sampleRepo(t), Provider: provider})
	run, err := o.Execute(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateComplete, run.StageStatus(StageMap).State)
	assert.Equal(t, StateComplete, run.StageStatus(StageAnalyze).State)
	assert.Equal(t, StateError, run.StageStatus(StageDocument).State)
	assert.Equal(t, "skipped: earlier stage failed", run.StageStatus(StageDiagram).Error)

	// graph artifacts were written before the failure
	assert.NotEmpty(t, run.Outputs.Graph)
	assert.Empty(t, run.Outputs.Documentation)
}

func TestExecuteFrameworkFromImportOnly(t *testing.T) {
	// No manifest anywhere; the import specifier alone labels the repo.
	root := t.TempDir()
	writeFile(t, root, "app.py", "from react import Component\n\ndef render():\n    pass\n")

	o := newTestOrchestrator(t, Config{Source: root})
	run, err := o.Execute(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(run.Outputs.Graph)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"framework": "react"`)
}

func TestExecuteCancelledContext(t *testing.T) {
	o := newTestOrchestrator(t, Config{Source: sampleRepo(t)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := o.Execute(ctx)
	require.Error(t, err)
	assert.True(t, run.Failed())
}

func TestExecuteRegistersRun(t *testing.T) {
	reg := NewRegistry()
	o, err := NewOrchestrator(Config{
		Source:   sampleRepo(t),
		OutDir:   t.TempDir(),
		Provider: &llm.MockProvider{},
	}, testLogger(), reg)
	require.NoError(t, err)
	defer o.Close()

	run, err := o.Execute(context.Background())
	require.NoError(t, err)

	got, ok := reg.Get(run.ID)
	require.True(t, ok)
	assert.Same(t, run, got)
}

func TestExecuteParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	// enough files to trigger the worker pool
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		writeFile(t, root, "src/"+name+".py", "def fn_"+name+"():\n    pass\n")
	}

	runOnce := func(workers int) string {
		out := t.TempDir()
		o := newTestOrchestrator(t, Config{Source: root, OutDir: out, Workers: workers})
		run, err := o.Execute(context.Background())
		require.NoError(t, err)
		data, err := os.ReadFile(run.Outputs.Graph)
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, runOnce(1), runOnce(8))
}

func TestNewOrchestratorRequiresSource(t *testing.T) {
	_, err := NewOrchestrator(Config{}, testLogger(), nil)
	require.Error(t, err)
}
