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

// Package pipeline orchestrates a full repository analysis run: load the
// source tree, extract the code context graph, render documentation, and
// render the architecture diagram.
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage identifies one phase of a run.
type Stage string

// The four stages, in execution order.
const (
	StageMap      Stage = "map"      // load and inventory the repository
	StageAnalyze  Stage = "analyze"  // extract entities and assemble the graph
	StageDocument Stage = "document" // render documentation
	StageDiagram  Stage = "diagram"  // render the architecture diagram
)

// Stages returns the execution order. Callers must not modify the result.
func Stages() []Stage {
	return []Stage{StageMap, StageAnalyze, StageDocument, StageDiagram}
}

// StageState is the lifecycle state of a stage within a run.
type StageState string

// Stage lifecycle. A stage normally moves pending -> initiated -> running ->
// complete. When an earlier stage fails, the remaining stages move from
// pending straight to error without ever running.
const (
	StatePending   StageState = "pending"
	StateInitiated StageState = "initiated"
	StateRunning   StageState = "running"
	StateComplete  StageState = "complete"
	StateError     StageState = "error"
)

// StageStatus is the recorded status of one stage.
type StageStatus struct {
	Stage    Stage         `json:"stage"`
	State    StageState    `json:"state"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Outputs lists the artifact paths a completed run wrote.
type Outputs struct {
	Documentation string `json:"documentation,omitempty"`
	Diagram       string `json:"diagram,omitempty"`
	Graph         string `json:"graph,omitempty"`
	FileTree      string `json:"file_tree,omitempty"`
}

// Run is the record of one pipeline execution. The orchestrator is the only
// writer of stage states; everything else reads.
type Run struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Source   string        `json:"source"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished,omitempty"`
	Stages   []StageStatus `json:"stages"`
	Outputs  Outputs       `json:"outputs"`
}

// NewRun creates a run with a fresh ID and all stages pending.
func NewRun(source string) *Run {
	stages := make([]StageStatus, 0, len(Stages()))
	for _, s := range Stages() {
		stages = append(stages, StageStatus{Stage: s, State: StatePending})
	}
	return &Run{
		ID:      uuid.NewString(),
		Name:    RunName(source),
		Source:  source,
		Started: time.Now().UTC(),
		Stages:  stages,
	}
}

// StageStatus returns the recorded status for stage.
func (r *Run) StageStatus(stage Stage) StageStatus {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s
		}
	}
	return StageStatus{Stage: stage, State: StatePending}
}

// Failed reports whether any stage errored.
func (r *Run) Failed() bool {
	for _, s := range r.Stages {
		if s.State == StateError {
			return true
		}
	}
	return false
}

func (r *Run) setStage(stage Stage, state StageState, errMsg string, d time.Duration) {
	for i := range r.Stages {
		if r.Stages[i].Stage == stage {
			r.Stages[i].State = state
			r.Stages[i].Error = errMsg
			r.Stages[i].Duration = d
			return
		}
	}
}

// RunName derives a run's directory name from its source: "owner_repo" for
// git URLs, the base directory name for local paths.
func RunName(source string) string {
	s := strings.TrimSuffix(source, "/")
	s = strings.TrimSuffix(s, ".git")

	if strings.Contains(s, "://") || strings.HasPrefix(s, "git@") {
		s = strings.TrimPrefix(s, "git@")
		if i := strings.Index(s, "://"); i >= 0 {
			s = s[i+3:]
		}
		s = strings.ReplaceAll(s, ":", "/")
		parts := strings.Split(s, "/")
		// host/owner/repo -> owner_repo
		if len(parts) >= 3 {
			return sanitizeName(parts[len(parts)-2] + "_" + parts[len(parts)-1])
		}
		if len(parts) == 2 {
			return sanitizeName(parts[1])
		}
	}

	base := filepath.Base(s)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "repository"
	}
	return sanitizeName(base)
}

func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "repository"
	}
	return sb.String()
}
