// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package extract turns raw source files into graph entities and import
// edges. The primary path parses with Tree-sitter; files the grammar cannot
// parse fall back to pattern matching so a single malformed file never sinks
// a run.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/ccg/pkg/graph"
)

// Extractor extracts entities and import edges from one source file.
// Implementations must be safe for concurrent use; the scanner calls Extract
// from multiple workers.
type Extractor interface {
	Extract(ctx context.Context, f graph.SourceFile) (*Result, error)
}

// Result is the extraction output for a single file.
type Result struct {
	Entities []graph.Entity
	Edges    []graph.ImportEdge

	// Fallback reports that the AST parse failed and the entities came from
	// the pattern-matching path.
	Fallback bool
}

// Mode selects the extraction implementation.
type Mode string

const (
	// ModeTreeSitter parses with Tree-sitter grammars, falling back to
	// pattern matching per file when a parse fails.
	ModeTreeSitter Mode = "treesitter"

	// ModeSimplified uses pattern matching only. Less accurate, no CGO.
	ModeSimplified Mode = "simplified"

	// ModeAuto picks the best available implementation.
	ModeAuto Mode = "auto"
)

// DefaultMode is used when no mode is configured.
const DefaultMode = ModeAuto

// New builds the extractor for mode. The logger must not be nil.
func New(mode Mode, logger *slog.Logger) (Extractor, error) {
	switch mode {
	case ModeTreeSitter, ModeAuto, "":
		return &astExtractor{
			logger:   logger,
			fallback: &patternExtractor{logger: logger},
		}, nil
	case ModeSimplified:
		return &patternExtractor{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown extractor mode %q", mode)
	}
}

var (
	_ Extractor = (*astExtractor)(nil)
	_ Extractor = (*patternExtractor)(nil)
)
