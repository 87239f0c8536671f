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
	"path/filepath"
	"strings"
)

// Language identifies a supported source language, detected from the file
// extension.
type Language string

// Supported language tags. Files outside the allowlist carry LangUnknown and
// produce no entities.
const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJSX        Language = "jsx"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

// LanguageForPath maps a file path to its language tag by extension.
func LanguageForPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return LangPython
	case ".js":
		return LangJavaScript
	case ".jsx":
		return LangJSX
	case ".ts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	default:
		return LangUnknown
	}
}

// SourceFile is one scanned file. It is immutable once read; the Content
// slice must not be modified after construction.
type SourceFile struct {
	// Path is the repo-relative path with forward slashes.
	Path string `json:"path"`

	// Language is the tag detected from the extension.
	Language Language `json:"language"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Content is the raw file content. Not serialized.
	Content []byte `json:"-"`
}

// EntityKind distinguishes the declaration kinds the extractor recognizes.
type EntityKind string

// Entity kinds. KindComponent is a function-shaped declaration that the
// extractor classified as a UI component (uppercase name, markup in body).
const (
	KindFunction  EntityKind = "function"
	KindClass     EntityKind = "class"
	KindComponent EntityKind = "component"
)

// Entity is a declared function, class, or UI component discovered in a
// source file.
type Entity struct {
	Kind EntityKind `json:"kind"`

	// Name is the declared identifier. Never empty.
	Name string `json:"name"`

	// File is the declaring file's repo-relative path.
	File string `json:"file"`

	// Line is the 1-based line of the declaration.
	Line int `json:"line"`

	// Docstring is the declaration's documentation text, if present,
	// trimmed and truncated to DocstringLimit characters.
	Docstring string `json:"docstring,omitempty"`

	// Component marks entities that were classified as UI components.
	// Derived during extraction; preserved so renderers can list components
	// separately.
	Component bool `json:"component,omitempty"`
}

// DocstringLimit bounds captured docstring length to keep rendered output
// compact.
const DocstringLimit = 200

// EntityKey uniquely identifies an entity within a graph. Duplicate
// extractions with an identical key collapse to one entity.
type EntityKey struct {
	File string
	Kind EntityKind
	Name string
	Line int
}

// Key returns the entity's identity key.
func (e Entity) Key() EntityKey {
	return EntityKey{File: e.File, Kind: e.Kind, Name: e.Name, Line: e.Line}
}

// ImportEdge is a directed edge from a source file to a module specifier,
// kept exactly as written in the source. Specifiers are not resolved against
// the filesystem.
type ImportEdge struct {
	// From is the importing file's repo-relative path.
	From string `json:"from"`

	// Target is the raw module specifier as written.
	Target string `json:"target"`
}

// SkippedFile records a file that was excluded from extraction, typically
// because it exceeded the size ceiling. Skips are metadata, not errors.
type SkippedFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"`
}

// LanguageStat is one row of the graph's language histogram.
type LanguageStat struct {
	Language Language `json:"language"`
	Files    int      `json:"files"`
	Bytes    int64    `json:"bytes"`
}

// Graph is the Code Context Graph. Zero value is not usable; create with New.
//
// The graph is single-writer during construction (the assembler) and
// read-only after Freeze. It is safe for concurrent reads once frozen.
type Graph struct {
	files     []SourceFile
	fileIndex map[string]int // normalized path key -> index into files
	entities  map[string][]Entity
	entitySet map[EntityKey]struct{}
	edges     []ImportEdge
	edgeSet   map[ImportEdge]struct{}
	skipped   []SkippedFile
	histogram []LanguageStat
	framework string
	frozen    bool
}

// New creates an empty, unfrozen graph.
func New() *Graph {
	return &Graph{
		fileIndex: make(map[string]int),
		entities:  make(map[string][]Entity),
		entitySet: make(map[EntityKey]struct{}),
		edgeSet:   make(map[ImportEdge]struct{}),
	}
}

// pathKey normalizes a path for identity comparison: forward slashes,
// case-folded. Two distinct files that fold to the same key collide.
func pathKey(path string) string {
	return strings.ToLower(filepath.ToSlash(path))
}

func (g *Graph) checkWritable() {
	if g.frozen {
		panic("graph: write after Freeze")
	}
}

// AddFile appends a file to the graph. Returns a *PathCollisionError if
// another file already occupies the same normalized path key.
func (g *Graph) AddFile(f SourceFile) error {
	g.checkWritable()

	key := pathKey(f.Path)
	if prev, ok := g.fileIndex[key]; ok {
		return &PathCollisionError{Path: f.Path, Existing: g.files[prev].Path}
	}

	f.Path = filepath.ToSlash(f.Path)
	g.fileIndex[key] = len(g.files)
	g.files = append(g.files, f)
	return nil
}

// HasFile reports whether path (after normalization) is in the file list.
func (g *Graph) HasFile(path string) bool {
	_, ok := g.fileIndex[pathKey(path)]
	return ok
}

// AddEntities records entities declared in the file at path. Entities whose
// identity key was already recorded are dropped (first-seen wins; extraction
// runs once per file). Returns a *UnknownFileError if the declaring file is
// not in the file list, preserving referential integrity.
func (g *Graph) AddEntities(path string, ents []Entity) error {
	g.checkWritable()

	if !g.HasFile(path) {
		return &UnknownFileError{Path: path}
	}

	path = filepath.ToSlash(path)
	for _, e := range ents {
		if e.Name == "" {
			continue
		}
		e.File = path
		key := e.Key()
		if _, dup := g.entitySet[key]; dup {
			continue
		}
		g.entitySet[key] = struct{}{}
		g.entities[path] = append(g.entities[path], e)
	}
	return nil
}

// AddImportEdges records import edges originating at path, deduplicated by
// (source, target). Returns a *UnknownFileError if the source file is not in
// the file list.
func (g *Graph) AddImportEdges(path string, edges []ImportEdge) error {
	g.checkWritable()

	if !g.HasFile(path) {
		return &UnknownFileError{Path: path}
	}

	path = filepath.ToSlash(path)
	for _, e := range edges {
		if e.Target == "" {
			continue
		}
		e.From = path
		if _, dup := g.edgeSet[e]; dup {
			continue
		}
		g.edgeSet[e] = struct{}{}
		g.edges = append(g.edges, e)
	}
	return nil
}

// MarkSkipped records a file excluded from extraction. Skipped files are not
// part of the file list and contribute no entities or edges.
func (g *Graph) MarkSkipped(path string, size int64, reason string) {
	g.checkWritable()
	g.skipped = append(g.skipped, SkippedFile{
		Path:   filepath.ToSlash(path),
		Size:   size,
		Reason: reason,
	})
}

// SetClassification records the language histogram and framework label
// produced by the classifier. An empty framework means none was detected.
func (g *Graph) SetClassification(hist []LanguageStat, framework string) {
	g.checkWritable()
	g.histogram = hist
	g.framework = framework
}

// Freeze marks the graph read-only. Freezing twice is harmless.
func (g *Graph) Freeze() { g.frozen = true }

// Frozen reports whether the graph has been frozen.
func (g *Graph) Frozen() bool { return g.frozen }

// Files returns the ordered file list. Callers must not modify the result.
func (g *Graph) Files() []SourceFile { return g.files }

// EntitiesFor returns the entities declared in path, in extraction order.
func (g *Graph) EntitiesFor(path string) []Entity {
	return g.entities[filepath.ToSlash(path)]
}

// Edges returns all import edges in insertion order.
func (g *Graph) Edges() []ImportEdge { return g.edges }

// Skipped returns the skipped-file records.
func (g *Graph) Skipped() []SkippedFile { return g.skipped }

// Histogram returns the language histogram set by the classifier.
func (g *Graph) Histogram() []LanguageStat { return g.histogram }

// Framework returns the inferred framework label, or "" if none.
func (g *Graph) Framework() string { return g.framework }

// EntityCount returns the total number of entities across all files.
func (g *Graph) EntityCount() int { return len(g.entitySet) }

// CountByKind returns entity counts keyed by kind.
func (g *Graph) CountByKind() map[EntityKind]int {
	counts := make(map[EntityKind]int)
	for _, ents := range g.entities {
		for _, e := range ents {
			counts[e.Kind]++
		}
	}
	return counts
}
