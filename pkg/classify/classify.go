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

// Package classify derives repository-level facts from a scanned file set:
// the language histogram and the framework label.
package classify

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/kraklabs/ccg/pkg/graph"
)

// Histogram aggregates files into per-language rows, ordered by bytes
// descending, then file count descending, then language name ascending. The
// fixed order keeps serialized graphs stable across runs.
func Histogram(files []graph.SourceFile) []graph.LanguageStat {
	agg := make(map[graph.Language]*graph.LanguageStat)
	for _, f := range files {
		row, ok := agg[f.Language]
		if !ok {
			row = &graph.LanguageStat{Language: f.Language}
			agg[f.Language] = row
		}
		row.Files++
		row.Bytes += f.Size
	}

	stats := make([]graph.LanguageStat, 0, len(agg))
	for _, row := range agg {
		stats = append(stats, *row)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Bytes != stats[j].Bytes {
			return stats[i].Bytes > stats[j].Bytes
		}
		if stats[i].Files != stats[j].Files {
			return stats[i].Files > stats[j].Files
		}
		return stats[i].Language < stats[j].Language
	})
	return stats
}

// frameworkChecks is the detection order. The first hit wins, so more
// specific frameworks come before the ones they build on (Next.js before
// React, NestJS before Express).
var frameworkChecks = []struct {
	name string
	dep  string // package.json dependency, or requirements.txt package when py is set
	py   bool
}{
	{name: "next", dep: "next"},
	{name: "react", dep: "react"},
	{name: "vue", dep: "vue"},
	{name: "angular", dep: "@angular/core"},
	{name: "nestjs", dep: "@nestjs/core"},
	{name: "express", dep: "express"},
	{name: "django", dep: "django", py: true},
	{name: "flask", dep: "flask", py: true},
	{name: "fastapi", dep: "fastapi", py: true},
}

// Framework infers the repository's framework from its dependency manifests
// and from the import specifiers extracted across the repository. Both
// signals feed the same priority table; the first hit wins. Returns "" when
// neither names a known framework.
func Framework(manifests []graph.SourceFile, edges []graph.ImportEdge) string {
	jsDeps := map[string]bool{}
	pyDeps := map[string]bool{}

	for _, f := range manifests {
		switch base := strings.ToLower(pathBase(f.Path)); base {
		case "package.json":
			// Manifests in subdirectories count too (monorepos).
			collectPackageJSON(f.Content, jsDeps)
		case "requirements.txt":
			collectRequirements(f.Content, pyDeps)
		}
	}

	markers := importMarkers(edges)

	for _, check := range frameworkChecks {
		deps := jsDeps
		if check.py {
			deps = pyDeps
		}
		if deps[check.dep] || markers[check.dep] {
			return check.name
		}
	}
	return ""
}

// importMarkers flattens edge targets into candidate dependency names:
// "next/router" counts as next, "@angular/core/testing" as @angular/core,
// "flask.views" as flask. Relative imports carry no framework signal.
func importMarkers(edges []graph.ImportEdge) map[string]bool {
	markers := map[string]bool{}
	for _, e := range edges {
		spec := strings.ToLower(strings.TrimSpace(e.Target))
		if spec == "" || spec[0] == '.' || spec[0] == '/' {
			continue
		}
		markers[spec] = true
		if i := strings.IndexByte(spec, '.'); i > 0 {
			markers[spec[:i]] = true
		}
		if i := strings.IndexByte(spec, '/'); i > 0 {
			root := spec[:i]
			if spec[0] == '@' {
				// Scoped packages keep the scope and name segments.
				root = spec
				if j := strings.IndexByte(spec[i+1:], '/'); j >= 0 {
					root = spec[:i+1+j]
				}
			}
			markers[root] = true
		}
	}
	return markers
}

func pathBase(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func collectPackageJSON(content []byte, into map[string]bool) {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return // malformed manifest, no signal
	}
	for name := range manifest.Dependencies {
		into[strings.ToLower(name)] = true
	}
	for name := range manifest.DevDependencies {
		into[strings.ToLower(name)] = true
	}
}

func collectRequirements(content []byte, into map[string]bool) {
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Strip version constraints, extras, and environment markers.
		name := line
		for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<", "[", ";", " "} {
			if i := strings.Index(name, sep); i >= 0 {
				name = name[:i]
			}
		}
		if name != "" {
			into[strings.ToLower(name)] = true
		}
	}
}
