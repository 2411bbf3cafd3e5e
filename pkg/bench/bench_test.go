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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbench/driftbench/pkg/types"
)

func TestSeedDeterminism(t *testing.T) {
	a := SeedFromTimestamp("2026-08-24T10:00:00Z")
	b := SeedFromTimestamp("2026-08-24T10:00:00Z")
	c := SeedFromTimestamp("2026-08-24T11:00:00Z")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSymbolAliasStablePerBatch(t *testing.T) {
	seed := SeedFromTimestamp("2026-08-24T10:00:00Z")
	alias := SymbolAlias(seed, "reverse-words", "reverse_words")
	assert.Equal(t, alias, SymbolAlias(seed, "reverse-words", "reverse_words"))
	assert.Contains(t, alias, "reverse_words_")

	other := SymbolAlias(SeedFromTimestamp("2026-08-24T11:00:00Z"), "reverse-words", "reverse_words")
	assert.NotEqual(t, alias, other)
}

func TestAliasPrompt(t *testing.T) {
	prompt := "Write reverse_words(s). reverse_words must return a string."
	got := AliasPrompt(prompt, "reverse_words", "reverse_words_ab12")
	assert.NotContains(t, got, "reverse_words(s)")
	assert.Contains(t, got, "reverse_words_ab12(s)")
}

func TestBuildPromptRotation(t *testing.T) {
	seed := SeedFromTimestamp("2026-08-24T10:00:00Z")
	p1 := BuildPrompt(seed, "slug-a", "task body")
	assert.Equal(t, p1, BuildPrompt(seed, "slug-a", "task body"))
	assert.Contains(t, p1, "task body")

	// Different slugs or batches may rotate the envelope; across six
	// slugs at least two distinct envelopes must appear.
	seen := map[string]bool{}
	for _, slug := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		seen[BuildPrompt(seed, slug, "x")] = true
	}
	assert.GreaterOrEqual(t, len(seen), 2)
}

func TestSelectTasksDeterministic(t *testing.T) {
	seed := SeedFromTimestamp("2026-08-24T10:00:00Z")
	first := SelectTasks(seed, 10, 7)
	second := SelectTasks(seed, 10, 7)
	require.Len(t, first, 7)
	assert.Equal(t, first, second)

	unique := map[int]bool{}
	for _, idx := range first {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 10)
		unique[idx] = true
	}
	assert.Len(t, unique, 7)

	assert.Len(t, SelectTasks(seed, 5, 7), 5)
}

func TestStats(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-9)
	assert.Equal(t, 0.0, StdDev([]float64{7}))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-2, 0, 1))
	assert.Equal(t, 1.0, Clamp(9, 0, 1))
}

func TestConfidenceInterval(t *testing.T) {
	lower, upper, stderr := ConfidenceInterval(nil)
	assert.Zero(t, lower)
	assert.Zero(t, upper)
	assert.Zero(t, stderr)

	lower, upper, stderr = ConfidenceInterval([]float64{80})
	assert.Equal(t, 75.0, lower)
	assert.Equal(t, 85.0, upper)
	assert.Equal(t, 5.0, stderr)

	values := []float64{80, 82, 84, 78, 81}
	lower, upper, _ = ConfidenceInterval(values)
	mean := Mean(values)
	assert.Less(t, lower, mean)
	assert.Greater(t, upper, mean)
	// t(4) = 2.776.
	assert.InDelta(t, mean-lower, upper-mean, 1e-9)
}

func TestTCritical(t *testing.T) {
	assert.Equal(t, 12.706, tCritical(1))
	assert.Equal(t, 2.776, tCritical(4))
	// Untabulated df walks down to the nearest entry below.
	assert.Equal(t, 2.060, tCritical(27))
	assert.Equal(t, 1.96, tCritical(500))
}

func TestPageHinkleyTripsOnDegradation(t *testing.T) {
	scores := []float64{90, 90, 90, 90, 90, 88, 70, 68, 66, 65, 60, 55}
	assert.True(t, PageHinkley(scores, PageHinkleyDelta, PageHinkleyLambda))
}

func TestPageHinkleyQuietOnStableSeries(t *testing.T) {
	scores := []float64{85, 86, 84, 85, 85, 86, 85, 84, 85, 86, 85, 85}
	assert.False(t, PageHinkley(scores, PageHinkleyDelta, PageHinkleyLambda))
	assert.False(t, PageHinkley([]float64{90}, PageHinkleyDelta, PageHinkleyLambda))
}

func perfectAxes() map[string]float64 {
	return map[string]float64{
		types.AxisCorrectness: 1.0,
		types.AxisComplexity:  0.7,
		types.AxisCodeQuality: 0.8,
		types.AxisStability:   0.95,
		types.AxisFormat:      1.0,
		types.AxisEfficiency:  0.9,
		types.AxisEdgeCases:   1.0,
		types.AxisDebugging:   1.0,
		types.AxisSafety:      1.0,
	}
}

func TestCalculateScoreIsPure(t *testing.T) {
	axes := perfectAxes()
	cal := DefaultCalibration()
	a := CalculateScore(axes, nil, 7, 1.0, cal)
	b := CalculateScore(axes, nil, 7, 1.0, cal)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 70.0)
	assert.LessOrEqual(t, a, 100.0)
}

func TestCalculateScoreQualityGates(t *testing.T) {
	cal := DefaultCalibration()
	good := perfectAxes()
	bad := perfectAxes()
	bad[types.AxisCorrectness] = 0.45

	// Below 0.50 all three correctness gates apply: −5 −6 −8.
	gGood := CalculateScore(good, nil, 7, 1.0, cal)
	gBad := CalculateScore(bad, nil, 7, 1.0, cal)
	assert.Greater(t, gGood-gBad, 19.0)

	lowQ := perfectAxes()
	lowQ[types.AxisCodeQuality] = 0.3
	assert.Less(t, CalculateScore(lowQ, nil, 7, 1.0, cal), gGood-15)
}

func TestCalculateScoreShrinksThinEvidence(t *testing.T) {
	cal := DefaultCalibration()
	axes := perfectAxes()
	full := CalculateScore(axes, nil, 7, 1.0, cal)
	thin := CalculateScore(axes, nil, 2, 1.0, cal)
	// λ = 2/3 pulls the score a third of the way toward 70.
	expected := (2.0/3.0)*full + (1.0/3.0)*CohortCentre
	assert.InDelta(t, expected, thin, 0.5)
}

func TestCalculateScoreSuccessRatePenalty(t *testing.T) {
	cal := DefaultCalibration()
	axes := perfectAxes()
	all := CalculateScore(axes, nil, 7, 1.0, cal)
	partial := CalculateScore(axes, nil, 5, 5.0/7.0, cal)
	assert.InDelta(t, 6.0*(2.0/7.0), all-partial, 0.2)
}

func TestCalculateScoreCalibratingPenalty(t *testing.T) {
	cal := DefaultCalibration()
	axes := perfectAxes()
	noBaseline := CalculateScore(axes, NewBaseline(nil), 7, 1.0, cal)
	history := make([]map[string]float64, MinBaselineSamples)
	for i := range history {
		history[i] = perfectAxes()
	}
	warm := CalculateScore(axes, NewBaseline(history), 7, 1.0, cal)
	// Warm baseline drops the −2 penalty; matching axes add no variance term.
	assert.InDelta(t, 2.0, warm-noBaseline, 0.3)
}

func TestCalculateScoreRejectsIncompleteAxes(t *testing.T) {
	axes := perfectAxes()
	delete(axes, types.AxisSafety)
	assert.Panics(t, func() {
		CalculateScore(axes, nil, 7, 1.0, DefaultCalibration())
	})
}

func TestCalibration(t *testing.T) {
	cal := Calibration{Scale: 1.1, Lift: 2, Min: 0, Max: 100}
	assert.InDelta(t, 90.2, cal.Apply(80.18), 0.01)
	assert.Equal(t, 100.0, cal.Apply(99))
	// Sentinels pass through uncalibrated.
	assert.Equal(t, types.ScoreAllTasksFailed, cal.Apply(types.ScoreAllTasksFailed))
}

func TestBaselineFloorsStd(t *testing.T) {
	history := []map[string]float64{perfectAxes(), perfectAxes(), perfectAxes()}
	b := NewBaseline(history)
	assert.Equal(t, 3, b.Samples)
	assert.True(t, b.Calibrating())
	for _, name := range types.AxisNames {
		assert.GreaterOrEqual(t, b.Std[name], 1e-6, name)
	}
	var nilBaseline *Baseline
	assert.True(t, nilBaseline.Calibrating())
}

func TestAggregateAxesStabilityBlend(t *testing.T) {
	results := []*TaskResult{
		{Axes: axesWithCorrectness(1.0), Stability: 1.0},
		{Axes: axesWithCorrectness(1.0), Stability: 1.0},
		{Axes: axesWithCorrectness(1.0), Stability: 1.0},
	}
	axes := aggregateAxes(results)
	// Zero cross-task spread, within-task clamped at 0.95.
	assert.InDelta(t, 0.7*1.0+0.3*0.95, axes[types.AxisStability], 1e-9)
	assert.Equal(t, 1.0, axes[types.AxisCorrectness])
}

func axesWithCorrectness(c float64) map[string]float64 {
	axes := perfectAxes()
	axes[types.AxisCorrectness] = c
	return axes
}

func TestRawAxisScoreMonotone(t *testing.T) {
	low := axesWithCorrectness(0.4)
	high := axesWithCorrectness(1.0)
	assert.Greater(t, rawAxisScore(high), rawAxisScore(low))
	assert.False(t, math.IsNaN(rawAxisScore(low)))
}
