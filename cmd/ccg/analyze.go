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

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccg/internal/errors"
	"github.com/kraklabs/ccg/internal/output"
	"github.com/kraklabs/ccg/internal/ui"
	"github.com/kraklabs/ccg/pkg/extract"
	"github.com/kraklabs/ccg/pkg/graph"
	"github.com/kraklabs/ccg/pkg/llm"
	"github.com/kraklabs/ccg/pkg/pipeline"
)

// runAnalyze executes the 'analyze' CLI command, running the full pipeline
// against a repository: map, analyze, document, diagram.
//
// The source argument is a git URL (cloned shallowly into a temp dir) or a
// local directory. Artifacts land under <out>/<run name>/.
//
// Flags:
//   - --out: Output directory root (default: from config, then "ccg-output")
//   - --workers: Extraction worker count (default: number of CPUs)
//   - --max-file-size: Per-file size ceiling in bytes
//   - --parser: Extractor mode: auto, treesitter, simplified
//   - --exclude: Additional exclude glob (repeatable)
//   - --provider: LLM backend: ollama, openai, anthropic, mock, none
//   - --model, --base-url, --api-key: Provider overrides
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	ccg analyze .                          Analyze the current directory
//	ccg analyze https://github.com/a/b     Clone and analyze
//	ccg analyze . --provider none          Structural docs, no LLM calls
//	ccg analyze . --exclude "**/fixtures/**" --workers 4
func runAnalyze(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	outDir := fs.String("out", "", "Output directory root (default: from config)")
	workers := fs.Int("workers", 0, "Extraction worker count (0 = all CPUs)")
	maxFileSize := fs.Int64("max-file-size", 0, "Per-file size ceiling in bytes (0 = default 1 MiB)")
	parserMode := fs.String("parser", "", "Extractor mode: auto, treesitter, simplified")
	excludes := fs.StringArray("exclude", nil, "Additional exclude glob (repeatable)")
	providerType := fs.String("provider", "", "LLM backend: ollama, openai, anthropic, mock, none")
	model := fs.String("model", "", "Generation model name")
	baseURL := fs.String("base-url", "", "Provider endpoint URL")
	apiKey := fs.String("api-key", "", "Provider API key")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccg analyze <source> [options]

Analyzes a repository and writes docs.md, diagram.mmd, code_graph.json,
and file_tree.json under <out>/<run name>/. The source is a git URL or a
local directory; flags override values from .ccg/project.yaml.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	source := "."
	if fs.NArg() > 0 {
		source = fs.Arg(0)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	applyAnalyzeOverrides(cfg, *outDir, *workers, *maxFileSize, *parserMode, *excludes)

	logLevel := slog.LevelInfo
	if globals.Verbose > 0 {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Start Prometheus metrics endpoint (optional)
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	provider, err := buildProvider(cfg, *providerType, *model, *baseURL, *apiKey)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	orch, err := pipeline.NewOrchestrator(pipeline.Config{
		Source:      source,
		OutDir:      cfg.Output.Dir,
		Workers:     cfg.Analysis.Workers,
		MaxFileSize: cfg.Analysis.MaxFileSize,
		Excludes:    cfg.Analysis.Exclude,
		ParserMode:  extract.Mode(cfg.Analysis.ParserMode),
		Provider:    provider,
	}, logger, pipeline.NewRegistry())
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot start analysis",
			err.Error(),
			"Check the source path and flag values",
		), globals.JSON)
	}
	defer orch.Close()

	// Wire the extraction progress bar. The bar is created on the first
	// callback, once the file total is known; callbacks arrive from
	// multiple workers.
	progress := NewProgressConfig(globals)
	var barOnce sync.Once
	var bar *progressbar.ProgressBar
	orch.Progress = func(done, total int) {
		barOnce.Do(func() {
			bar = NewProgressBar(progress, int64(total), stageDescription(pipeline.StageAnalyze))
		})
		if bar != nil {
			_ = bar.Set(done)
		}
	}

	run, err := orch.Execute(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(categorizeRunError(err), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(run); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	printRunSummary(run)
}

// applyAnalyzeOverrides folds non-zero flag values into the loaded config.
func applyAnalyzeOverrides(cfg *Config, outDir string, workers int, maxFileSize int64, parserMode string, excludes []string) {
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if workers > 0 {
		cfg.Analysis.Workers = workers
	}
	if maxFileSize > 0 {
		cfg.Analysis.MaxFileSize = maxFileSize
	}
	if parserMode != "" {
		cfg.Analysis.ParserMode = parserMode
	}
	cfg.Analysis.Exclude = append(cfg.Analysis.Exclude, excludes...)
}

// buildProvider resolves the generation provider from config and flag
// overrides. "none" disables LLM content entirely; the pipeline then falls
// back to structural documentation and the locally rendered diagram.
func buildProvider(cfg *Config, typeFlag, modelFlag, baseURLFlag, apiKeyFlag string) (llm.Provider, error) {
	providerType := cfg.LLM.Type
	enabled := cfg.LLM.Enabled
	if typeFlag != "" {
		providerType = typeFlag
		enabled = true
	}
	if providerType == "none" || !enabled {
		return nil, nil
	}

	pc := llm.ProviderConfig{
		Type:    providerType,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
	}
	if modelFlag != "" {
		pc.Model = modelFlag
	}
	if baseURLFlag != "" {
		pc.BaseURL = baseURLFlag
	}
	if apiKeyFlag != "" {
		pc.APIKey = apiKeyFlag
	}

	provider, err := llm.NewProvider(pc)
	if err != nil {
		return nil, errors.NewInputError(
			"Invalid LLM provider",
			err.Error(),
			"Pass --provider ollama, openai, anthropic, mock, or none",
		)
	}
	return provider, nil
}

// categorizeRunError maps pipeline failures onto user-facing error
// categories with actionable fixes.
func categorizeRunError(err error) error {
	var cloneErr *pipeline.CloneError
	if stderrors.As(err, &cloneErr) {
		return errors.NewCloneError(
			"Cannot clone repository",
			err.Error(),
			"Check the URL and your network connection, then retry",
			err,
		)
	}

	var collision *graph.PathCollisionError
	if stderrors.As(err, &collision) {
		return errors.NewAnalysisError(
			"Cannot analyze repository",
			fmt.Sprintf("File paths %q and %q differ only by letter case", collision.Path, collision.Existing),
			"Rename one of the conflicting files and rerun the analysis",
			err,
		)
	}

	var readErr *pipeline.FileReadError
	if stderrors.As(err, &readErr) {
		return errors.NewAnalysisError(
			"Cannot read source file",
			err.Error(),
			"Check file permissions, or exclude the file with --exclude",
			err,
		)
	}

	var genErr *llm.GenerationError
	if stderrors.As(err, &genErr) {
		return errors.NewGenerationError(
			"Cannot generate documentation",
			err.Error(),
			"Check that the provider is reachable, or pass --provider none for structural output",
			err,
		)
	}

	return errors.NewInternalError(
		"Analysis failed",
		err.Error(),
		"This may be a bug. Please report it at github.com/kraklabs/ccg/issues",
		err,
	)
}

// printRunSummary prints a human-readable run summary to stdout.
func printRunSummary(run *pipeline.Run) {
	fmt.Println()
	ui.Header("Analysis Complete")
	fmt.Printf("%s %s\n", ui.Label("Run:"), run.Name)
	fmt.Printf("%s %s\n", ui.Label("Source:"), run.Source)
	fmt.Println()

	for _, stage := range run.Stages {
		fmt.Printf("  %-10s %s", stage.Stage, stage.State)
		if stage.Duration > 0 {
			fmt.Printf("  (%s)", stage.Duration.Round(time.Millisecond))
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println("Artifacts:")
	artifacts := []struct {
		label string
		path  string
	}{
		{"Documentation:", run.Outputs.Documentation},
		{"Diagram:", run.Outputs.Diagram},
		{"Graph:", run.Outputs.Graph},
		{"File tree:", run.Outputs.FileTree},
	}
	for _, a := range artifacts {
		if a.path != "" {
			fmt.Printf("  %-14s %s\n", a.label, ui.DimText(a.path))
		}
	}
	fmt.Println()
	ui.Successf("Run %s finished", run.ID)
}
