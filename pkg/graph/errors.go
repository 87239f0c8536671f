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

import "fmt"

// PathCollisionError reports two distinct files normalizing to the same
// identity key. Path normalization is case-insensitive, so "a/x.py" and
// "A/x.py" collide. A collision is fatal to the Analyze stage.
type PathCollisionError struct {
	// Path is the file that failed to register.
	Path string

	// Existing is the previously registered file occupying the same key.
	Existing string
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf("path collision: %q normalizes to the same key as %q", e.Path, e.Existing)
}

// UnknownFileError reports an attempt to attach entities or edges to a file
// that is not in the graph's file list.
type UnknownFileError struct {
	Path string
}

func (e *UnknownFileError) Error() string {
	return fmt.Sprintf("file not in graph: %q", e.Path)
}
