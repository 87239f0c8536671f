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

// Package graph defines the Code Context Graph (CCG), the central artifact of
// a repository analysis run, and the assembler that builds it.
//
// A Graph holds the ordered list of source files that were scanned, the
// entities (functions, classes, UI components) declared in each file, the raw
// import edges between files and module specifiers, a language histogram, and
// an inferred framework label.
//
// Construction is append-only: files, entities, and edges are added through
// the Graph's Add* methods (normally via Assemble), then the graph is frozen.
// A frozen graph is read-only; any further write is a programming error and
// panics. Serialization is deterministic: assembling the same per-file results
// in the same order yields byte-identical output from Serialize.
package graph
