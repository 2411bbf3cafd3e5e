// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bench_sweeps_total",
		Help: "Completed benchmark sweeps.",
	})
	modelsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_models_scored_total",
		Help: "Score rows persisted, by vendor.",
	}, []string{"vendor"})
	sentinelsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_sentinels_total",
		Help: "Sentinel score rows persisted, by kind.",
	}, []string{"kind"})
	modelsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_models_skipped_total",
		Help: "Models skipped before benchmarking, by reason.",
	}, []string{"reason"})
	trialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_trials_total",
		Help: "Completed trials, by outcome.",
	}, []string{"outcome"})
	taskFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bench_task_failures_total",
		Help: "Tasks with zero successful trials after both phases.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bench_sweep_duration_seconds",
		Help:    "Wall-clock duration of a full sweep.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
