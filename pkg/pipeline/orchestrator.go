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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/ccg/pkg/classify"
	"github.com/kraklabs/ccg/pkg/extract"
	"github.com/kraklabs/ccg/pkg/graph"
	"github.com/kraklabs/ccg/pkg/llm"
	"github.com/kraklabs/ccg/pkg/render"
)

// Config configures an analysis run.
type Config struct {
	// Source is a git URL or a local directory.
	Source string

	// OutDir is where artifacts land, under OutDir/<run name>/.
	OutDir string

	// Workers bounds the extraction pool. 0 means GOMAXPROCS.
	Workers int

	// MaxFileSize is the per-file ceiling; 0 means DefaultMaxFileSize.
	MaxFileSize int64

	// Excludes extend the default exclude globs.
	Excludes []string

	// ParserMode selects the extraction implementation.
	ParserMode extract.Mode

	// Provider powers the documentation and diagram stages. Nil disables
	// LLM content; artifacts are still produced from the graph alone.
	Provider llm.Provider
}

// Orchestrator drives a run through its four stages. It is the sole writer
// of the run's stage states.
type Orchestrator struct {
	cfg       Config
	logger    *slog.Logger
	loader    *Loader
	extractor extract.Extractor
	renderer  *render.Renderer
	registry  *Registry

	// Progress, when set, is called after each scanned file with the number
	// of files completed so far.
	Progress func(done, total int)
}

// NewOrchestrator validates cfg and assembles the run machinery. registry
// may be nil when the caller does not track runs.
func NewOrchestrator(cfg Config, logger *slog.Logger, registry *Registry) (*Orchestrator, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "ccg-output"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	loader, err := NewLoader(logger, cfg.Excludes, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	extractor, err := extract.New(cfg.ParserMode, logger)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		loader:    loader,
		extractor: extractor,
		renderer:  render.New(cfg.Provider, logger),
		registry:  registry,
	}, nil
}

// Close releases loader resources (clone temp dirs).
func (o *Orchestrator) Close() error {
	return o.loader.Close()
}

// Execute runs the pipeline to completion. The returned Run always carries
// the final stage states; err is the first stage failure, if any.
//
// Stages run strictly in order. When one fails, every later stage moves from
// pending directly to error and the run finishes without touching them.
func (o *Orchestrator) Execute(ctx context.Context) (*Run, error) {
	pipeMetrics.init()
	pipeMetrics.runsStarted.Inc()

	run := NewRun(o.cfg.Source)
	if o.registry != nil {
		if err := o.registry.Register(run); err != nil {
			return nil, err
		}
	}

	o.logger.Info("pipeline.run.start",
		"run_id", run.ID,
		"name", run.Name,
		"source", run.Source,
	)
	start := time.Now()

	var (
		load *LoadResult
		g    *graph.Graph
	)
	outDir := filepath.Join(o.cfg.OutDir, run.Name)

	steps := []struct {
		stage Stage
		fn    func(context.Context) error
	}{
		{StageMap, func(ctx context.Context) error {
			var err error
			load, err = o.loader.Load(ctx, o.cfg.Source)
			return err
		}},
		{StageAnalyze, func(ctx context.Context) error {
			var err error
			g, err = o.analyze(ctx, load)
			if err != nil {
				return err
			}
			return o.writeGraphArtifacts(run, outDir, g, load)
		}},
		{StageDocument, func(ctx context.Context) error {
			docs, err := o.renderer.Documentation(ctx, run.Name, g, load.Readme)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, "docs.md")
			if err := os.WriteFile(path, []byte(docs), 0o644); err != nil {
				return err
			}
			run.Outputs.Documentation = path
			return nil
		}},
		{StageDiagram, func(ctx context.Context) error {
			// On refinement failure the renderer still hands back the local
			// skeleton; persist it as a partial output before reporting the
			// stage error.
			mmd, err := o.renderer.Diagram(ctx, g)
			if mmd != "" {
				path := filepath.Join(outDir, "diagram.mmd")
				if werr := os.WriteFile(path, []byte(mmd), 0o644); werr != nil {
					if err == nil {
						err = werr
					}
				} else {
					run.Outputs.Diagram = path
				}
			}
			return err
		}},
	}

	var firstErr error
	for _, step := range steps {
		if firstErr != nil {
			// Fail fast: never initiate stages after a failure.
			run.setStage(step.stage, StateError, "skipped: earlier stage failed", 0)
			continue
		}

		run.setStage(step.stage, StateInitiated, "", 0)
		o.logger.Info("pipeline.stage.start", "run_id", run.ID, "stage", step.stage)
		run.setStage(step.stage, StateRunning, "", 0)

		stageStart := time.Now()
		err := step.fn(ctx)
		elapsed := time.Since(stageStart)
		pipeMetrics.stageDuration.WithLabelValues(string(step.stage)).Observe(elapsed.Seconds())

		if err != nil {
			run.setStage(step.stage, StateError, err.Error(), elapsed)
			o.logger.Error("pipeline.stage.error",
				"run_id", run.ID,
				"stage", step.stage,
				"err", err,
			)
			firstErr = fmt.Errorf("stage %s: %w", step.stage, err)
			continue
		}

		run.setStage(step.stage, StateComplete, "", elapsed)
		o.logger.Info("pipeline.stage.complete",
			"run_id", run.ID,
			"stage", step.stage,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	run.Finished = time.Now().UTC()
	pipeMetrics.runDuration.Observe(time.Since(start).Seconds())
	if firstErr != nil {
		pipeMetrics.runsFailed.Inc()
		o.logger.Error("pipeline.run.failed", "run_id", run.ID, "err", firstErr)
		return run, firstErr
	}

	pipeMetrics.runsComplete.Inc()
	o.logger.Info("pipeline.run.complete",
		"run_id", run.ID,
		"name", run.Name,
		"files", len(g.Files()),
		"entities", g.EntityCount(),
		"edges", len(g.Edges()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return run, nil
}

// analyze extracts every loaded file and assembles the frozen graph.
func (o *Orchestrator) analyze(ctx context.Context, load *LoadResult) (*graph.Graph, error) {
	results, err := o.extractFiles(ctx, load.Files)
	if err != nil {
		return nil, err
	}

	for _, s := range load.Skipped {
		results = append(results, graph.FileResult{
			File:       graph.SourceFile{Path: s.Path, Size: s.Size},
			Skipped:    true,
			SkipReason: s.Reason,
		})
		pipeMetrics.filesSkipped.Inc()
	}

	g, err := graph.Assemble(results)
	if err != nil {
		return nil, err
	}

	g.SetClassification(classify.Histogram(g.Files()), classify.Framework(load.Manifests, g.Edges()))
	g.Freeze()

	pipeMetrics.entitiesExtracted.Add(float64(g.EntityCount()))
	pipeMetrics.edgesExtracted.Add(float64(len(g.Edges())))
	return g, nil
}

// extractFiles runs the extractor over files with a bounded worker pool.
// Small file sets are processed sequentially.
func (o *Orchestrator) extractFiles(ctx context.Context, files []graph.SourceFile) ([]graph.FileResult, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) < 10 || o.cfg.Workers <= 1 {
		return o.extractSequential(ctx, files)
	}

	jobs := make(chan int, len(files))
	type indexed struct {
		index  int
		result graph.FileResult
		err    error
	}
	resultsChan := make(chan indexed, len(files))

	var done int32
	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					resultsChan <- indexed{index: i, err: ctx.Err()}
					continue
				default:
				}

				fr, err := o.extractOne(ctx, files[i])
				resultsChan <- indexed{index: i, result: fr, err: err}
				if o.Progress != nil {
					o.Progress(int(atomic.AddInt32(&done, 1)), len(files))
				}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	ordered := make([]graph.FileResult, len(files))
	var firstErr error
	for r := range resultsChan {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		ordered[r.index] = r.result
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return ordered, nil
}

func (o *Orchestrator) extractSequential(ctx context.Context, files []graph.SourceFile) ([]graph.FileResult, error) {
	results := make([]graph.FileResult, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr, err := o.extractOne(ctx, f)
		if err != nil {
			return nil, err
		}
		results = append(results, fr)
		if o.Progress != nil {
			o.Progress(i+1, len(files))
		}
	}
	return results, nil
}

func (o *Orchestrator) extractOne(ctx context.Context, f graph.SourceFile) (graph.FileResult, error) {
	res, err := o.extractor.Extract(ctx, f)
	if err != nil {
		return graph.FileResult{}, err
	}

	pipeMetrics.filesScanned.Inc()
	if res.Fallback {
		pipeMetrics.extractFallbacks.Inc()
	}
	return graph.FileResult{
		File:     f,
		Entities: res.Entities,
		Edges:    res.Edges,
		Fallback: res.Fallback,
	}, nil
}

// writeGraphArtifacts writes code_graph.json and file_tree.json.
func (o *Orchestrator) writeGraphArtifacts(run *Run, outDir string, g *graph.Graph, load *LoadResult) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	graphJSON, err := graph.Serialize(g)
	if err != nil {
		return err
	}
	graphPath := filepath.Join(outDir, "code_graph.json")
	if err := os.WriteFile(graphPath, graphJSON, 0o644); err != nil {
		return err
	}
	run.Outputs.Graph = graphPath

	treeJSON, err := MarshalTree(BuildTree(run.Name, load.Tree))
	if err != nil {
		return err
	}
	treePath := filepath.Join(outDir, "file_tree.json")
	if err := os.WriteFile(treePath, treeJSON, 0o644); err != nil {
		return err
	}
	run.Outputs.FileTree = treePath

	return nil
}
