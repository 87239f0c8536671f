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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccg/internal/errors"
	"github.com/kraklabs/ccg/internal/output"
	"github.com/kraklabs/ccg/internal/ui"
	"github.com/kraklabs/ccg/pkg/graph"
)

// RunArtifacts summarizes one run directory for status output.
type RunArtifacts struct {
	Name      string    `json:"name"`
	Dir       string    `json:"dir"`
	Files     int       `json:"files"`
	Entities  int       `json:"entities"`
	Imports   int       `json:"imports"`
	Framework string    `json:"framework,omitempty"`
	HasDocs   bool      `json:"has_docs"`
	HasGraph  bool      `json:"has_graph"`
	Diagram   bool      `json:"has_diagram"`
	Modified  time.Time `json:"modified"`
	Error     string    `json:"error,omitempty"`
}

// runStatus executes the 'status' CLI command, listing artifacts left by
// previous analysis runs.
//
// It scans the output directory for run subdirectories, reads each
// code_graph.json, and reports file, entity, and import counts.
//
// Flags:
//   - --out: Output directory root to inspect (default: from config)
//
// Examples:
//
//	ccg status           List all run artifacts
//	ccg status --json    Output as JSON for programmatic use
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	outDir := fs.String("out", "", "Output directory root to inspect (default: from config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccg status [options]

Lists artifacts written by previous 'ccg analyze' runs.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	root := cfg.Output.Dir
	if *outDir != "" {
		root = *outDir
	}

	runs, err := collectRunArtifacts(root)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot read output directory",
			err.Error(),
			"Run 'ccg analyze' first, or point --out at the right directory",
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(runs); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	if len(runs) == 0 {
		fmt.Printf("No runs found under %s. Run 'ccg analyze' first.\n", root)
		return
	}

	ui.Header("Analysis Runs")
	for _, r := range runs {
		fmt.Printf("%s  %s\n", ui.Label(r.Name), ui.DimText(r.Dir))
		if r.Error != "" {
			ui.Warningf("  %s", r.Error)
			continue
		}
		fmt.Printf("  Files: %s  Entities: %s  Imports: %s",
			ui.CountText(r.Files), ui.CountText(r.Entities), ui.CountText(r.Imports))
		if r.Framework != "" {
			fmt.Printf("  Framework: %s", r.Framework)
		}
		fmt.Println()
	}
}

// collectRunArtifacts scans root for run directories and summarizes each
// one. Directories without a code_graph.json are reported with an error
// note rather than skipped.
func collectRunArtifacts(root string) ([]RunArtifacts, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var runs []RunArtifacts
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		run := RunArtifacts{Name: e.Name(), Dir: dir}

		if info, err := e.Info(); err == nil {
			run.Modified = info.ModTime()
		}
		run.HasDocs = fileExists(filepath.Join(dir, "docs.md"))
		run.Diagram = fileExists(filepath.Join(dir, "diagram.mmd"))

		graphPath := filepath.Join(dir, "code_graph.json")
		data, err := os.ReadFile(graphPath) //nolint:gosec // G304: path built from the output dir
		if err != nil {
			run.Error = "missing code_graph.json"
			runs = append(runs, run)
			continue
		}
		run.HasGraph = true

		var doc graph.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			run.Error = "corrupt code_graph.json"
			runs = append(runs, run)
			continue
		}

		run.Files = len(doc.Files)
		for _, ents := range doc.Entities {
			run.Entities += len(ents)
		}
		run.Imports = len(doc.Edges)
		run.Framework = doc.Framework
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Name < runs[j].Name })
	return runs, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
