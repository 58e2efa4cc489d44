// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package topn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Paths taken by an accumulator step.
const (
	PathEmpty     = "empty"
	PathPruned    = "pruned"
	PathArgMinMax = "argminmax"
	PathGeneral   = "general"
)

// Metrics counts accumulator activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	blocks           *prometheus.CounterVec
	rowsAdmitted     prometheus.Counter
	rowsEvicted      prometheus.Counter
	memLimitExceeded prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		blocks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "blockagg_topn_blocks_total",
			Help: "Blocks consumed by top-n accumulators, by the path that handled them.",
		}, []string{"path"}),
		rowsAdmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "blockagg_topn_rows_admitted_total",
			Help: "Rows inserted into a top-n heap.",
		}),
		rowsEvicted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "blockagg_topn_rows_evicted_total",
			Help: "Rows evicted from a full top-n heap by a better row.",
		}),
		memLimitExceeded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "blockagg_topn_memory_limit_exceeded_total",
			Help: "Accumulator steps that failed because a state exceeded its memory limit.",
		}),
	}
}

func (m *Metrics) block(path string) {
	if m != nil {
		m.blocks.WithLabelValues(path).Inc()
	}
}

func (m *Metrics) admitted() {
	if m != nil {
		m.rowsAdmitted.Inc()
	}
}

func (m *Metrics) evicted() {
	if m != nil {
		m.rowsEvicted.Inc()
	}
}

func (m *Metrics) exceeded() {
	if m != nil {
		m.memLimitExceeded.Inc()
	}
}
