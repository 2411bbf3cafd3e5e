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

// Package drift derives behaviour signatures and change points from the
// score log. Everything here is read-only over scores; the only write is
// the change-point row, which the store deduplicates.
package drift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/driftbench/driftbench/internal/log"
	"github.com/driftbench/driftbench/pkg/bench"
	"github.com/driftbench/driftbench/pkg/store"
	"github.com/driftbench/driftbench/pkg/types"
)

// ErrInsufficientData means the score log is too thin to compute a
// signature for the model.
var ErrInsufficientData = errors.New("insufficient score history")

const (
	baselineDays = 28
	varianceHrs  = 24

	// degradedFloor is the minimum baseline-vs-current gap that can flag
	// DEGRADED when the confidence interval is narrow.
	degradedFloor = 8.0

	recoveringDelta  = 5.0
	volatileVariance = 8.0

	cusumAlert   = 0.10
	cusumWarning = 0.05

	axisTrendWindow    = 3
	axisTrendThreshold = 5.0 // percentage points
)

// Computer builds drift signatures from the score store.
type Computer struct {
	store *store.Store
}

// NewComputer returns a drift computer over s.
func NewComputer(s *store.Store) *Computer {
	return &Computer{store: s}
}

// Signature computes the current drift signature for a model's hourly
// track. Returns ErrInsufficientData when fewer than two non-sentinel
// scores exist in the 28-day baseline window.
func (c *Computer) Signature(ctx context.Context, modelID int64) (*types.DriftSignature, error) {
	now := time.Now().UTC()
	real, err := c.store.ScoresSince(ctx, modelID, types.SuiteHourly,
		now.Add(-baselineDays*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if len(real) < 2 {
		return nil, fmt.Errorf("model %d has %d usable scores: %w",
			modelID, len(real), ErrInsufficientData)
	}

	values := scoreValues(real)
	baseline := bench.Mean(values)
	current := real[len(real)-1]

	lower, upper, _ := bench.ConfidenceInterval(values)
	ciWidth := upper - lower

	var recent []float64
	cutoff := now.Add(-varianceHrs * time.Hour)
	for _, sc := range real {
		if !sc.TS.Before(cutoff) {
			recent = append(recent, sc.StupidScore)
		}
	}
	variance := bench.StdDev(recent)

	cusum := bench.PageHinkleyStat(lastN(values, 12), bench.PageHinkleyDelta)

	regime := classifyRegime(baseline, current.StupidScore, ciWidth, variance, values)
	status := classifyStatus(regime, cusum, variance)
	trends := axisTrends(real)
	diagnosis, recommendation := diagnose(regime, status, trends, baseline, current.StupidScore)

	return &types.DriftSignature{
		ModelID:        modelID,
		Timestamp:      now,
		CurrentScore:   current.StupidScore,
		Baseline28d:    baseline,
		CILower:        lower,
		CIUpper:        upper,
		Regime:         regime,
		Variance24h:    variance,
		CUSUM:          cusum,
		AxisTrends:     trends,
		Status:         status,
		Diagnosis:      diagnosis,
		Recommendation: recommendation,
		SampleSize:     len(real),
	}, nil
}

func classifyRegime(baseline, current, ciWidth, variance float64, values []float64) string {
	threshold := ciWidth
	if threshold < degradedFloor {
		threshold = degradedFloor
	}
	switch {
	case baseline-current > threshold:
		return types.RegimeDegraded
	case improvement(values) > recoveringDelta && variance < volatileVariance:
		return types.RegimeRecovering
	case variance > volatileVariance:
		return types.RegimeVolatile
	default:
		return types.RegimeStable
	}
}

// improvement measures the newest-3 vs older-3 score delta.
func improvement(values []float64) float64 {
	if len(values) < 2*axisTrendWindow {
		return 0
	}
	newest := bench.Mean(values[len(values)-axisTrendWindow:])
	older := bench.Mean(values[len(values)-2*axisTrendWindow : len(values)-axisTrendWindow])
	return newest - older
}

func classifyStatus(regime string, cusum, variance float64) string {
	switch {
	case regime == types.RegimeDegraded || cusum > cusumAlert:
		return types.StatusAlert
	case regime == types.RegimeVolatile || cusum > cusumWarning || variance > volatileVariance:
		return types.StatusWarning
	default:
		return types.StatusNormal
	}
}

// axisTrends compares the newest three axis vectors against the three
// before them. Axis values live in [0,1]; the change is reported in
// percentage points.
func axisTrends(scores []types.Score) map[string]types.AxisTrend {
	trends := make(map[string]types.AxisTrend, len(types.AxisNames))
	for _, name := range types.AxisNames {
		series := make([]float64, 0, len(scores))
		for _, sc := range scores {
			if v, ok := sc.Axes[name]; ok && v >= 0 {
				series = append(series, v*100)
			}
		}
		t := types.AxisTrend{Trend: "stable", Status: types.StatusNormal}
		if len(series) > 0 {
			t.Current = series[len(series)-1] / 100
		}
		if len(series) >= 2*axisTrendWindow {
			newest := bench.Mean(series[len(series)-axisTrendWindow:])
			older := bench.Mean(series[len(series)-2*axisTrendWindow : len(series)-axisTrendWindow])
			t.ChangePct = newest - older
			switch {
			case t.ChangePct > axisTrendThreshold:
				t.Trend = "up"
			case t.ChangePct < -axisTrendThreshold:
				t.Trend = "down"
				t.Status = types.StatusWarning
			}
		}
		trends[name] = t
	}
	return trends
}

// diagnose picks the primary issue by priority and emits a short
// operator-facing recommendation.
func diagnose(regime, status string, trends map[string]types.AxisTrend, baseline, current float64) (string, string) {
	safety := trends[types.AxisSafety]
	correctness := trends[types.AxisCorrectness]
	complexity := trends[types.AxisComplexity]

	switch {
	case safety.Trend == "down" && safety.ChangePct < -2*axisTrendThreshold:
		return "safety axis collapsing, likely over-refusal after a tuning change",
			"inspect recent refusal transcripts; consider excluding the model from rankings"
	case correctness.Trend == "down":
		return "correctness degrading against the 28-day baseline",
			"re-run the deep suite manually and compare failing task transcripts"
	case complexity.Trend == "down":
		return "solutions passing fewer hard tasks than the baseline",
			"check whether the provider silently routed to a smaller variant"
	case regime == types.RegimeVolatile:
		return "score variance exceeds the stability threshold",
			"widen the sampling window before acting on single-sweep moves"
	case regime == types.RegimeDegraded:
		return fmt.Sprintf("general decline: %.1f baseline vs %.1f current", baseline, current),
			"review the latest change points and provider status pages"
	case status == types.StatusWarning:
		return "early drift indicators present, no dominant axis yet",
			"keep the model on the hourly sweep and re-check next cycle"
	default:
		return "behaviour consistent with the 28-day baseline", "no action needed"
	}
}

// Precompute refreshes the cache entry and runs change-point detection
// for every ranked model. Errors are logged per model, never fatal.
func (c *Computer) Precompute(ctx context.Context, cache *Cache) {
	models, err := c.store.ListModels(ctx, true)
	if err != nil {
		log.Error("drift precompute failed to list models", zap.Error(err))
		return
	}
	for _, m := range models {
		sig, err := c.Signature(ctx, m.ID)
		if err != nil {
			if !errors.Is(err, ErrInsufficientData) {
				log.Warn("drift signature failed",
					zap.Int64("modelId", m.ID), zap.Error(err))
			}
			continue
		}
		cache.Put(m.ID, sig)
		if _, err := c.DetectChangePoints(ctx, m.ID); err != nil {
			log.Warn("change-point detection failed",
				zap.Int64("modelId", m.ID), zap.Error(err))
		}
	}
}

func scoreValues(scores []types.Score) []float64 {
	values := make([]float64, len(scores))
	for i, sc := range scores {
		values[i] = sc.StupidScore
	}
	return values
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
