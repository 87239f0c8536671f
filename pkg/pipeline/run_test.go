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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/widgets.git": "acme_widgets",
		"https://github.com/acme/widgets":     "acme_widgets",
		"git@github.com:acme/widgets.git":     "acme_widgets",
		"/home/dev/projects/widgets":          "widgets",
		"./widgets":                           "widgets",
	}
	for source, want := range cases {
		assert.Equal(t, want, RunName(source), "source %q", source)
	}
}

func TestNewRunStartsAllStagesPending(t *testing.T) {
	run := NewRun("https://github.com/acme/widgets")

	require.NotEmpty(t, run.ID)
	assert.Equal(t, "acme_widgets", run.Name)
	require.Len(t, run.Stages, 4)
	for _, s := range run.Stages {
		assert.Equal(t, StatePending, s.State)
	}
	assert.False(t, run.Failed())
}

func TestRunIDsAreUnique(t *testing.T) {
	a := NewRun("x")
	b := NewRun("x")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSetStage(t *testing.T) {
	run := NewRun("x")
	run.setStage(StageAnalyze, StateError, "boom", 0)

	assert.Equal(t, StateError, run.StageStatus(StageAnalyze).State)
	assert.Equal(t, "boom", run.StageStatus(StageAnalyze).Error)
	assert.Equal(t, StatePending, run.StageStatus(StageMap).State)
	assert.True(t, run.Failed())
}
