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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbench/driftbench/pkg/config"
	"github.com/driftbench/driftbench/pkg/drift"
	"github.com/driftbench/driftbench/pkg/store"
	"github.com/driftbench/driftbench/pkg/types"
)

type testEnv struct {
	store  *store.Store
	server *Server
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	srv, err := New(Config{
		Store: s,
		Drift: drift.NewComputer(s),
		Cache: drift.NewCache(),
		Pricing: config.Pricing{
			"alpha": {InputPerMTok: 1, OutputPerMTok: 4},
			"beta":  {InputPerMTok: 10, OutputPerMTok: 40},
		},
	})
	require.NoError(t, err)
	return &testEnv{store: s, server: srv, router: srv.Router()}
}

func (e *testEnv) seedModel(t *testing.T, name string, vendor types.Vendor) int64 {
	t.Helper()
	m := &types.Model{Name: name, Vendor: vendor, ShowInRankings: true}
	require.NoError(t, e.store.UpsertModel(context.Background(), m))
	return m.ID
}

func (e *testEnv) seedScores(t *testing.T, modelID int64, values []float64) {
	t.Helper()
	start := time.Now().UTC().Add(-time.Duration(len(values)) * time.Hour)
	for i, v := range values {
		axes := make(map[string]float64, len(types.AxisNames))
		for _, name := range types.AxisNames {
			axes[name] = 0.8
		}
		axes[types.AxisCorrectness] = v / 100
		sc := &types.Score{
			ModelID: modelID, TS: start.Add(time.Duration(i) * time.Hour),
			Suite: types.SuiteHourly, StupidScore: v, Axes: axes, SampleSize: 7,
		}
		require.NoError(t, e.store.InsertScore(context.Background(), sc))
	}
}

func (e *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec, env := e.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestScoresValidation(t *testing.T) {
	e := newTestEnv(t)
	rec, env := e.get(t, "/dashboard/scores?period=fortnight")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "period")

	rec, _ = e.get(t, "/dashboard/scores?sortBy=vibes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoresRanking(t *testing.T) {
	e := newTestEnv(t)
	alphaID := e.seedModel(t, "alpha", types.VendorOpenAI)
	betaID := e.seedModel(t, "beta", types.VendorAnthropic)
	e.seedScores(t, alphaID, []float64{70, 72, 71})
	e.seedScores(t, betaID, []float64{85, 86, 88})

	rec, env := e.get(t, "/dashboard/scores")
	require.Equal(t, http.StatusOK, rec.Code)

	var ranking []RankedModel
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &ranking))
	require.Len(t, ranking, 2)
	assert.Equal(t, betaID, ranking[0].ModelID)
	assert.Greater(t, ranking[0].Combined, ranking[1].Combined)

	// price sorts ascending: alpha is the cheaper model.
	_, env = e.get(t, "/dashboard/scores?sortBy=price")
	raw, _ = json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &ranking))
	assert.Equal(t, "alpha", ranking[0].Name)
}

func TestScoresUnscoredModelRanksLast(t *testing.T) {
	e := newTestEnv(t)
	scoredID := e.seedModel(t, "alpha", types.VendorOpenAI)
	e.seedModel(t, "fresh", types.VendorGemini)
	e.seedScores(t, scoredID, []float64{75})

	_, env := e.get(t, "/dashboard/scores")
	var ranking []RankedModel
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &ranking))
	require.Len(t, ranking, 2)
	assert.Equal(t, "alpha", ranking[0].Name)
	assert.True(t, ranking[1].Unavailable)
}

func TestHistoryEndpoints(t *testing.T) {
	e := newTestEnv(t)
	id := e.seedModel(t, "alpha", types.VendorOpenAI)
	e.seedScores(t, id, []float64{70, 75, 80})

	rec, env := e.get(t, "/dashboard/history/9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = e.get(t, "/dashboard/history/not-a-number")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = e.get(t, "/dashboard/history/"+itoa(id))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []types.Score
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &history))
	assert.Len(t, history, 3)
}

func TestHistoryBatch(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedModel(t, "alpha", types.VendorOpenAI)
	b := e.seedModel(t, "beta", types.VendorAnthropic)
	e.seedScores(t, a, []float64{70})
	e.seedScores(t, b, []float64{80})

	rec, env := e.get(t, "/dashboard/history/batch?modelIds="+itoa(a)+","+itoa(b))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=30, stale-while-revalidate=60",
		rec.Header().Get("Cache-Control"))

	var result map[string][]types.Score
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Len(t, result, 2)

	rec, _ = e.get(t, "/dashboard/history/batch")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.get(t, "/dashboard/history/batch?modelIds=1,x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBestModelAndGlobalIndex(t *testing.T) {
	e := newTestEnv(t)

	rec, _ := e.get(t, "/dashboard/best-model")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	a := e.seedModel(t, "alpha", types.VendorOpenAI)
	b := e.seedModel(t, "beta", types.VendorAnthropic)
	e.seedScores(t, a, []float64{70})
	e.seedScores(t, b, []float64{90})

	_, env := e.get(t, "/dashboard/best-model")
	var best RankedModel
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &best))
	assert.Equal(t, "beta", best.Name)

	rec, env = e.get(t, "/dashboard/global-index")
	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	assert.Equal(t, float64(2), data["models"])
	assert.Greater(t, data["index"].(float64), 0.0)
}

func TestSignatureCacheHeaders(t *testing.T) {
	e := newTestEnv(t)
	id := e.seedModel(t, "alpha", types.VendorOpenAI)
	e.seedScores(t, id, []float64{80, 81, 80, 79, 80, 81, 80, 80})

	rec, env := e.get(t, "/drift/signature/"+itoa(id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.False(t, env.Cached)

	rec, env = e.get(t, "/drift/signature/"+itoa(id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.True(t, env.Cached)
}

func TestSignatureInsufficientData(t *testing.T) {
	e := newTestEnv(t)
	id := e.seedModel(t, "alpha", types.VendorOpenAI)
	e.seedScores(t, id, []float64{80})

	rec, env := e.get(t, "/drift/signature/"+itoa(id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.Error, "insufficient")
}

func TestChangePointsValidation(t *testing.T) {
	e := newTestEnv(t)
	id := e.seedModel(t, "alpha", types.VendorOpenAI)

	rec, _ := e.get(t, "/drift/change-points/"+itoa(id)+"?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := e.get(t, "/drift/change-points/"+itoa(id))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestDriftStatusAndBatch(t *testing.T) {
	e := newTestEnv(t)
	id := e.seedModel(t, "alpha", types.VendorOpenAI)
	e.seedScores(t, id, []float64{90, 90, 90, 90, 90, 88, 70, 68, 66, 65, 60, 55})

	_, env := e.get(t, "/drift/status")
	data := env.Data.(map[string]any)
	byStatus := data["byStatus"].(map[string]any)
	assert.Equal(t, float64(1), byStatus[types.StatusAlert])

	_, env = e.get(t, "/drift/batch")
	var batch map[string]*types.DriftSignature
	raw, _ := json.Marshal(env.Data)
	require.NoError(t, json.Unmarshal(raw, &batch))
	require.Len(t, batch, 1)
	assert.Equal(t, types.RegimeDegraded, batch[itoa(id)].Regime)
}

func TestPrecomputeWarmsCache(t *testing.T) {
	e := newTestEnv(t)
	id := e.seedModel(t, "alpha", types.VendorOpenAI)
	e.seedScores(t, id, []float64{80, 81, 80, 79, 80, 81, 80, 80})

	req := httptest.NewRequest(http.MethodPost, "/drift/precompute", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.get(t, "/drift/signature/"+itoa(id))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestDriftHealth(t *testing.T) {
	e := newTestEnv(t)
	rec, env := e.get(t, "/drift/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/drift/metrics", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
