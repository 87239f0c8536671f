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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	run := NewRun("a")

	require.NoError(t, reg.Register(run))

	got, ok := reg.Get(run.ID)
	require.True(t, ok)
	assert.Same(t, run, got)

	_, ok = reg.Get("nope")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	run := NewRun("a")

	require.NoError(t, reg.Register(run))
	assert.Error(t, reg.Register(run))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()

	// Same source, distinct IDs, identical run names: the second run would
	// share the first run's output directory, so it must be rejected.
	first := NewRun("/repos/demo")
	second := NewRun("/repos/demo")
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, first.Name, second.Name)

	require.NoError(t, reg.Register(first))
	err := reg.Register(second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), first.Name)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGetByName(t *testing.T) {
	reg := NewRegistry()
	run := NewRun("/repos/demo")
	require.NoError(t, reg.Register(run))

	got, ok := reg.GetByName(run.Name)
	require.True(t, ok)
	assert.Same(t, run, got)

	_, ok = reg.GetByName("nope")
	assert.False(t, ok)
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&Run{}))
	assert.Error(t, reg.Register(&Run{ID: "id-without-name"}))
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run := NewRun(fmt.Sprintf("source-%d", i))
			assert.NoError(t, reg.Register(run))
			_, ok := reg.Get(run.ID)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, reg.Len())
	assert.Len(t, reg.List(), 50)
}
