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

package drift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbench/driftbench/pkg/store"
	"github.com/driftbench/driftbench/pkg/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedModel(t *testing.T, s *store.Store) int64 {
	t.Helper()
	m := &types.Model{Name: "drift-model", Vendor: types.VendorAnthropic, ShowInRankings: true}
	require.NoError(t, s.UpsertModel(context.Background(), m))
	return m.ID
}

// loadSeries inserts hourly scores oldest first, ending one hour ago.
// Correctness tracks the score; the remaining axes stay flat.
func loadSeries(t *testing.T, s *store.Store, modelID int64, values []float64) {
	t.Helper()
	start := time.Now().UTC().Add(-time.Duration(len(values)) * time.Hour)
	for i, v := range values {
		axes := make(map[string]float64, len(types.AxisNames))
		for _, name := range types.AxisNames {
			axes[name] = 0.8
		}
		axes[types.AxisCorrectness] = v / 100
		sc := &types.Score{
			ModelID:     modelID,
			TS:          start.Add(time.Duration(i) * time.Hour),
			Suite:       types.SuiteHourly,
			StupidScore: v,
			Axes:        axes,
			SampleSize:  7,
		}
		require.NoError(t, s.InsertScore(context.Background(), sc))
	}
}

var degradedSeries = []float64{90, 90, 90, 90, 90, 88, 70, 68, 66, 65, 60, 55}

func TestSignatureDegradedSeries(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, degradedSeries)

	sig, err := NewComputer(s).Signature(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeDegraded, sig.Regime)
	assert.Equal(t, types.StatusAlert, sig.Status)
	assert.Equal(t, 55.0, sig.CurrentScore)
	assert.Greater(t, sig.Baseline28d, sig.CurrentScore)
	assert.Greater(t, sig.CUSUM, cusumAlert)
	assert.Equal(t, 12, sig.SampleSize)

	correctness := sig.AxisTrends[types.AxisCorrectness]
	assert.Equal(t, "down", correctness.Trend)
	assert.Equal(t, types.StatusWarning, correctness.Status)
	assert.Contains(t, sig.Diagnosis, "correctness")
}

func TestSignatureStableSeries(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, []float64{80, 81, 79, 80, 82, 80, 81, 80})

	sig, err := NewComputer(s).Signature(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.RegimeStable, sig.Regime)
	assert.Equal(t, types.StatusNormal, sig.Status)
	assert.Equal(t, "no action needed", sig.Recommendation)
}

func TestSignatureRecoveringSeries(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, []float64{60, 60, 60, 60, 60, 60, 70, 71, 72})

	sig, err := NewComputer(s).Signature(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.RegimeRecovering, sig.Regime)
}

func TestSignatureVolatileSeries(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, []float64{85, 55, 88, 52, 86, 50, 84, 58})

	sig, err := NewComputer(s).Signature(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.RegimeVolatile, sig.Regime)
	assert.NotEqual(t, types.StatusNormal, sig.Status)
}

func TestSignatureInsufficientData(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, []float64{80})

	_, err := NewComputer(s).Signature(context.Background(), id)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDetectChangePointsDegradation(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, degradedSeries)

	c := NewComputer(s)
	written, err := c.DetectChangePoints(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, written, 1)

	cp := written[0]
	assert.Equal(t, types.ChangeDegradation, cp.ChangeType)
	assert.Less(t, cp.Delta, -changeMinDelta)
	assert.Contains(t, cp.AffectedAxes, types.AxisCorrectness)

	// Unchanged history detects nothing new.
	again, err := c.DetectChangePoints(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDetectChangePointsQuietOnStableHistory(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, []float64{80, 81, 79, 80, 82, 80, 81, 80, 79, 81, 80, 80})

	written, err := NewComputer(s).DetectChangePoints(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestCacheStates(t *testing.T) {
	c := NewCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	_, state := c.Get(7)
	assert.Equal(t, CacheMiss, state)

	sig := &types.DriftSignature{ModelID: 7, Regime: types.RegimeStable}
	c.Put(7, sig)
	got, state := c.Get(7)
	assert.Equal(t, CacheHit, state)
	assert.Same(t, sig, got)

	// Model 7's TTL is 3600s + 7s of smear.
	now = now.Add(cacheBaseTTL + 8*time.Second)
	got, state = c.Get(7)
	assert.Equal(t, CachePartial, state)
	assert.Same(t, sig, got)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestPrecomputePopulatesCache(t *testing.T) {
	s := openTestStore(t)
	id := seedModel(t, s)
	loadSeries(t, s, id, degradedSeries)

	cache := NewCache()
	NewComputer(s).Precompute(context.Background(), cache)

	sig, state := cache.Get(id)
	require.Equal(t, CacheHit, state)
	assert.Equal(t, types.StatusAlert, sig.Status)

	points, err := s.ListChangePoints(context.Background(), id, 10)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}
