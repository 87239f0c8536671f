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

import "fmt"

// CloneError reports a failure to materialize a remote repository.
type CloneError struct {
	URL string
	Err error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("clone %s: %v", e.URL, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// FileReadError reports a file that existed during the walk but could not be
// read. The Map stage records it as a skip; it is fatal only if the
// repository root itself is unreadable.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }
