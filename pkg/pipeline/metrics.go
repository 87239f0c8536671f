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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for the analysis pipeline.
type metricsPipeline struct {
	once sync.Once

	runsStarted  prometheus.Counter
	runsComplete prometheus.Counter
	runsFailed   prometheus.Counter

	filesScanned      prometheus.Counter
	filesSkipped      prometheus.Counter
	extractFallbacks  prometheus.Counter
	entitiesExtracted prometheus.Counter
	edgesExtracted    prometheus.Counter

	stageDuration *prometheus.HistogramVec
	runDuration   prometheus.Histogram
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.runsStarted = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_runs_started_total", Help: "Pipeline runs started"})
		m.runsComplete = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_runs_complete_total", Help: "Pipeline runs completed"})
		m.runsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_runs_failed_total", Help: "Pipeline runs failed"})

		m.filesScanned = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_files_scanned_total", Help: "Source files scanned"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_files_skipped_total", Help: "Source files skipped"})
		m.extractFallbacks = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_extract_fallbacks_total", Help: "Files extracted via the pattern fallback"})
		m.entitiesExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_entities_extracted_total", Help: "Entities extracted"})
		m.edgesExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "ccg_edges_extracted_total", Help: "Import edges extracted"})

		buckets := []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ccg_stage_seconds",
			Help:    "Stage duration",
			Buckets: buckets,
		}, []string{"stage"})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ccg_run_seconds",
			Help:    "Total run duration",
			Buckets: buckets,
		})

		prometheus.MustRegister(
			m.runsStarted, m.runsComplete, m.runsFailed,
			m.filesScanned, m.filesSkipped, m.extractFallbacks,
			m.entitiesExtracted, m.edgesExtracted,
			m.stageDuration, m.runDuration,
		)
	})
}
