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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbench/driftbench/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedModel(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	m := &types.Model{Name: name, Vendor: types.VendorOpenAI, ShowInRankings: true}
	require.NoError(t, s.UpsertModel(context.Background(), m))
	require.NotZero(t, m.ID)
	return m.ID
}

func realAxes() map[string]float64 {
	axes := make(map[string]float64, len(types.AxisNames))
	for _, name := range types.AxisNames {
		axes[name] = 0.8
	}
	return axes
}

func insertScoreAt(t *testing.T, s *Store, modelID int64, suite types.Suite, value float64, ts time.Time) *types.Score {
	t.Helper()
	sc := &types.Score{
		ModelID:     modelID,
		TS:          ts,
		Suite:       suite,
		StupidScore: value,
		Axes:        realAxes(),
		SampleSize:  7,
	}
	if types.IsSentinel(value) {
		sc.Axes = types.PlaceholderAxes()
	}
	require.NoError(t, s.InsertScore(context.Background(), sc))
	return sc
}

func TestUpsertModelIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := &types.Model{Name: "gpt-test", Vendor: types.VendorOpenAI, ShowInRankings: true}
	require.NoError(t, s.UpsertModel(ctx, m))
	first := m.ID

	again := &types.Model{Name: "gpt-test", Vendor: types.VendorOpenAI, DisplayName: "GPT Test"}
	require.NoError(t, s.UpsertModel(ctx, again))
	assert.Equal(t, first, again.ID)

	models, err := s.ListModels(ctx, false)
	require.NoError(t, err)
	assert.Len(t, models, 1)
	assert.Equal(t, "GPT Test", models[0].DisplayName)
}

func TestListModelsRankedFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := seedModel(t, s, "ranked")
	hidden := &types.Model{Name: "hidden", Vendor: types.VendorGemini}
	require.NoError(t, s.UpsertModel(ctx, hidden))

	ranked, err := s.ListModels(ctx, true)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, id, ranked[0].ID)

	require.NoError(t, s.SetShowInRankings(ctx, hidden.ID, true))
	ranked, err = s.ListModels(ctx, true)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestInsertScoreRejectsInvalidRows(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")

	bad := &types.Score{ModelID: id, TS: time.Now(), Suite: types.SuiteHourly,
		StupidScore: 150, Axes: realAxes()}
	assert.Error(t, s.InsertScore(context.Background(), bad))

	mixed := &types.Score{ModelID: id, TS: time.Now(), Suite: types.SuiteHourly,
		StupidScore: types.ScoreAllTasksFailed, Axes: realAxes()}
	assert.Error(t, s.InsertScore(context.Background(), mixed))
}

func TestLatestScoreTiebreak(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	ts := time.Now().Add(-time.Hour).Truncate(time.Second)

	insertScoreAt(t, s, id, types.SuiteHourly, 70, ts)
	second := insertScoreAt(t, s, id, types.SuiteHourly, 75, ts)
	// Sentinel and synthetic rows never win "latest".
	insertScoreAt(t, s, id, types.SuiteHourly, types.ScoreCanaryFailed, ts.Add(time.Minute))

	latest, err := s.LatestScore(context.Background(), id, types.SuiteHourly)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 75.0, latest.StupidScore)
}

func TestRecentScoresOldestFirst(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	base := time.Now().Add(-3 * time.Hour)
	for i, v := range []float64{60, 70, 80} {
		insertScoreAt(t, s, id, types.SuiteHourly, v, base.Add(time.Duration(i)*time.Hour))
	}

	scores, err := s.RecentScores(context.Background(), id, types.SuiteHourly, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{70, 80}, scores)

	axes, err := s.RecentAxes(context.Background(), id, types.SuiteHourly, 10)
	require.NoError(t, err)
	assert.Len(t, axes, 3)
}

func TestHasScoreCountsSentinels(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	ctx := context.Background()

	has, err := s.HasScore(ctx, id, types.SuiteHourly)
	require.NoError(t, err)
	assert.False(t, has)

	insertScoreAt(t, s, id, types.SuiteHourly, types.ScoreProviderUnavailable, time.Now())
	has, err = s.HasScore(ctx, id, types.SuiteHourly)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCombinedScoreFallback(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	ctx := context.Background()

	// Only hourly=80: (80·0.5 + 50·0.25 + 50·0.25) · 0.8 = 52.
	insertScoreAt(t, s, id, types.SuiteHourly, 80, time.Now().Add(-time.Minute))
	combined, ok, err := s.CombinedScore(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 52.0, combined)

	// Two suites present: 10% penalty.
	insertScoreAt(t, s, id, types.SuiteDeep, 80, time.Now().Add(-time.Minute))
	combined, ok, err = s.CombinedScore(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, math.Round((80*0.5+80*0.25+50*0.25)*0.9), combined)

	// All three: no penalty.
	insertScoreAt(t, s, id, types.SuiteTooling, 80, time.Now().Add(-time.Minute))
	combined, _, err = s.CombinedScore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 80.0, combined)
}

func TestCombinedScoreUnavailable(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	_, ok, err := s.CombinedScore(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPeriodAggregate(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	base := time.Now().Add(-6 * time.Hour)
	for i, v := range []float64{70, 72, 71, 73, 85} {
		insertScoreAt(t, s, id, types.SuiteHourly, v, base.Add(time.Duration(i)*time.Hour))
	}

	stats, err := s.PeriodAggregate(context.Background(), id, types.SuiteHourly, Period24h)
	require.NoError(t, err)
	assert.Equal(t, "up", stats.Trend)
	assert.Equal(t, 5, stats.Samples)
	assert.InDelta(t, 74.2, stats.Average, 0.01)
	assert.GreaterOrEqual(t, stats.Stability, 20.0)
	assert.LessOrEqual(t, stats.Stability, 95.0)

	_, err = s.PeriodAggregate(context.Background(), id, types.SuiteHourly, "bogus")
	assert.Error(t, err)
}

func TestChangePointIdempotency(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	ctx := context.Background()
	at := time.Now().Truncate(time.Second)

	cp := &types.ChangePoint{
		ModelID: id, DetectedAt: at, FromScore: 90, ToScore: 62, Delta: -28,
		Significance: 3.1, ChangeType: types.ChangeDegradation,
		AffectedAxes: []string{types.AxisCorrectness},
	}
	inserted, err := s.InsertChangePoint(ctx, cp)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same candidate within the hour is suppressed.
	dup := *cp
	dup.ID = 0
	dup.DetectedAt = at.Add(30 * time.Minute)
	inserted, err = s.InsertChangePoint(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	later := *cp
	later.ID = 0
	later.DetectedAt = at.Add(2 * time.Hour)
	inserted, err = s.InsertChangePoint(ctx, &later)
	require.NoError(t, err)
	assert.True(t, inserted)

	points, err := s.ListChangePoints(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, []string{types.AxisCorrectness}, points[0].AffectedAxes)
}

func TestSyntheticScoreRequiresHistory(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	ctx := context.Background()

	_, err := s.SyntheticScore(ctx, id, types.SuiteHourly, time.Now())
	assert.Error(t, err)

	base := time.Now().Add(-20 * time.Hour)
	for i := 0; i < 10; i++ {
		insertScoreAt(t, s, id, types.SuiteHourly, 80, base.Add(time.Duration(i)*time.Hour))
	}

	sc, err := s.SyntheticScore(ctx, id, types.SuiteHourly, time.Now())
	require.NoError(t, err)
	assert.True(t, sc.Synthetic)
	assert.GreaterOrEqual(t, sc.StupidScore, 0.0)
	assert.LessOrEqual(t, sc.StupidScore, 100.0)

	// Synthetic rows never feed the baseline or "latest" reads.
	latest, err := s.LatestScore(ctx, id, types.SuiteHourly)
	require.NoError(t, err)
	assert.False(t, latest.Synthetic)
	axes, err := s.RecentAxes(ctx, id, types.SuiteHourly, 50)
	require.NoError(t, err)
	assert.Len(t, axes, 10)
}

func TestInsertRunWithMetrics(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s, "m")
	ctx := context.Background()

	run := &types.Run{
		ModelID: id, TaskSlug: "reverse-words", TS: time.Now(),
		Temp: 0.1, Seed: "00ff", TokensIn: 120, TokensOut: 80,
		LatencyMs: 300, Attempts: 5, Passed: true,
		Artifacts: map[string]any{"alias": "reverse_words_ab12"},
	}
	metrics := &types.RunMetrics{Correctness: 1, Spec: 0.3, CodeQuality: 0.7,
		Efficiency: 0.9, Stability: 0.95, Refusal: 1, Recovery: 1}
	require.NoError(t, s.InsertRun(ctx, run, metrics))
	assert.NotZero(t, run.ID)
}

func TestSeedTasks(t *testing.T) {
	s := openTestStore(t)
	entries := []struct{ Slug, Type, Difficulty string }{
		{"reverse-words", "implement", "easy"},
		{"lcs-length", "implement", "hard"},
	}
	require.NoError(t, s.SeedTasks(context.Background(), entries))
	// Re-seeding is a no-op.
	require.NoError(t, s.SeedTasks(context.Background(), entries))
}
