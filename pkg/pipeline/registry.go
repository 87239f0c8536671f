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
	"fmt"
	"sort"
	"sync"
)

// Registry tracks runs by ID and by run name. Registration is append-only:
// runs are never replaced or removed, so a registered run's record survives
// for the life of the process. Each run name owns its output directory
// exclusively, so a second run with the same name is rejected rather than
// allowed to clobber the first run's artifacts. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	names map[string]*Run
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		runs:  make(map[string]*Run),
		names: make(map[string]*Run),
	}
}

// Register adds a run. Registering a duplicate ID or a duplicate run name
// is rejected.
func (r *Registry) Register(run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("register run: missing ID")
	}
	if run.Name == "" {
		return fmt.Errorf("register run: missing name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("register run: duplicate ID %s", run.ID)
	}
	if prior, exists := r.names[run.Name]; exists {
		return fmt.Errorf("register run: name %s already in use by run %s", run.Name, prior.ID)
	}
	r.runs[run.ID] = run
	r.names[run.Name] = run
	return nil
}

// Get returns the run with the given ID, or false if unknown.
func (r *Registry) Get(id string) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	return run, ok
}

// GetByName returns the run that owns the given run name, or false if
// unknown.
func (r *Registry) GetByName(name string) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.names[name]
	return run, ok
}

// List returns all registered runs ordered by start time, oldest first.
func (r *Registry) List() []*Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID < out[j].ID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// Len returns the number of registered runs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}
