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

package store

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/driftbench/driftbench/pkg/types"
)

// minSyntheticHistory is the real-row count required before a synthetic
// replacement may be generated.
const minSyntheticHistory = 10

// syntheticJitterSigma bounds the jitter at ±1.5 standard deviations.
const syntheticJitterSigma = 1.5

// SyntheticScore generates and persists a replacement score row for an
// upstream error path: historical per-axis means jittered by a seeded
// ±1.5σ. The row renders like a real one but carries the synthetic flag,
// which every baseline query excludes. Fails when fewer than
// minSyntheticHistory real rows exist.
func (s *Store) SyntheticScore(ctx context.Context, modelID int64, suite types.Suite, ts time.Time) (*types.Score, error) {
	history, err := s.queryScores(ctx, `
		SELECT `+scoreColumns+` FROM scores
		WHERE model_id = ? AND suite = ? AND stupid_score >= 0 AND synthetic = 0
		ORDER BY ts DESC, id DESC LIMIT 50`, modelID, string(suite))
	if err != nil {
		return nil, err
	}
	if len(history) < minSyntheticHistory {
		return nil, fmt.Errorf("synthetic score needs %d real rows, have %d: %w",
			minSyntheticHistory, len(history), ErrNotFound)
	}

	rng := rand.New(rand.NewSource(modelID ^ ts.Unix()))
	jitter := func(mean, std float64) float64 {
		return mean + (rng.Float64()*2-1)*syntheticJitterSigma*std
	}

	values := make([]float64, len(history))
	for i, sc := range history {
		values[i] = sc.StupidScore
	}
	scoreMean, scoreStd := mean(values), stddev(values)

	axes := make(map[string]float64, len(types.AxisNames))
	for _, name := range types.AxisNames {
		series := make([]float64, 0, len(history))
		for _, sc := range history {
			if v, ok := sc.Axes[name]; ok {
				series = append(series, v)
			}
		}
		axes[name] = clamp01(jitter(mean(series), stddev(series)))
	}

	score := &types.Score{
		ModelID:     modelID,
		TS:          ts,
		Suite:       suite,
		StupidScore: math.Max(0, math.Min(100, jitter(scoreMean, scoreStd))),
		Axes:        axes,
		Note:        "fallback estimate",
		SampleSize:  0,
		Synthetic:   true,
	}
	if err := s.InsertScore(ctx, score); err != nil {
		return nil, err
	}
	return score, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
