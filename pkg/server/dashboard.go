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
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/driftbench/driftbench/pkg/store"
	"github.com/driftbench/driftbench/pkg/types"
)

const maxBatchIDs = 100

var validSortKeys = map[string]bool{
	"combined": true, "reasoning": true, "speed": true, "7axis": true,
	"tooling": true, "price": true, "trend": true, "stability": true,
	"change": true,
}

var validPeriods = map[string]bool{
	"latest": true, store.Period24h: true, store.Period7d: true, store.Period1m: true,
}

// RankedModel is one row of the dashboard ranking.
type RankedModel struct {
	ModelID     int64              `json:"modelId"`
	Name        string             `json:"name"`
	Vendor      types.Vendor       `json:"vendor"`
	DisplayName string             `json:"displayName,omitempty"`
	Score       float64            `json:"score"`
	Combined    float64            `json:"combined"`
	Suites      map[string]float64 `json:"suites"`
	Axes        map[string]float64 `json:"axes,omitempty"`
	Trend       string             `json:"trend"`
	TrendDelta  float64            `json:"trendDelta"`
	Stability   float64            `json:"stability"`
	Price       float64            `json:"price,omitempty"`
	SampleSize  int                `json:"sampleSize"`
	Unavailable bool               `json:"unavailable,omitempty"`

	sortValue float64
}

func queryParam(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	period := queryParam(r, "period", "latest")
	sortBy := queryParam(r, "sortBy", "combined")
	if !validPeriods[period] {
		s.fail(w, http.StatusBadRequest, "invalid period")
		return
	}
	if !validSortKeys[sortBy] {
		s.fail(w, http.StatusBadRequest, "invalid sortBy")
		return
	}

	ranking, err := s.buildRanking(r.Context(), period, sortBy)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, ranking)
}

func (s *Server) buildRanking(ctx context.Context, period, sortBy string) ([]RankedModel, error) {
	models, err := s.store.ListModels(ctx, true)
	if err != nil {
		return nil, err
	}

	ranking := make([]RankedModel, 0, len(models))
	for _, m := range models {
		row, err := s.buildRow(ctx, m, period)
		if err != nil {
			return nil, err
		}
		row.sortValue = s.sortValue(*row, sortBy)
		ranking = append(ranking, *row)
	}

	ascending := sortBy == "price"
	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		// Models with no data rank last regardless of direction.
		if a.Unavailable != b.Unavailable {
			return b.Unavailable
		}
		if ascending {
			return a.sortValue < b.sortValue
		}
		return a.sortValue > b.sortValue
	})
	return ranking, nil
}

func (s *Server) buildRow(ctx context.Context, m types.Model, period string) (*RankedModel, error) {
	row := &RankedModel{
		ModelID:     m.ID,
		Name:        m.Name,
		Vendor:      m.Vendor,
		DisplayName: m.DisplayName,
		Trend:       "stable",
		Suites:      make(map[string]float64, 3),
	}

	for _, suite := range []types.Suite{types.SuiteHourly, types.SuiteDeep, types.SuiteTooling} {
		latest, err := s.store.LatestScore(ctx, m.ID, suite)
		if err != nil {
			continue // missing suite, not an error
		}
		row.Suites[string(suite)] = latest.StupidScore
		if suite == types.SuiteHourly {
			row.Score = latest.StupidScore
			row.Axes = latest.Axes
			row.SampleSize = latest.SampleSize
		}
	}

	combined, ok, err := s.store.CombinedScore(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		row.Unavailable = true
		return row, nil
	}
	row.Combined = combined

	window := period
	if window == "latest" {
		window = store.Period24h
	}
	stats, err := s.store.PeriodAggregate(ctx, m.ID, types.SuiteHourly, window)
	if err == nil && stats.Samples > 0 {
		row.Trend = stats.Trend
		row.TrendDelta = stats.TrendDelta
		row.Stability = stats.Stability
	}

	if entry, ok := s.pricing.Lookup(m.Name); ok {
		row.Price = entry.Blended()
	}
	return row, nil
}

func (s *Server) sortValue(row RankedModel, sortBy string) float64 {
	suite := func(name types.Suite) float64 {
		if v, ok := row.Suites[string(name)]; ok {
			return v
		}
		return 0
	}
	switch sortBy {
	case "reasoning":
		return suite(types.SuiteDeep)
	case "tooling":
		return suite(types.SuiteTooling)
	case "speed":
		return row.Axes[types.AxisEfficiency] * 100
	case "7axis":
		if len(row.Axes) == 0 {
			return 0
		}
		var sum float64
		var n int
		for _, v := range row.Axes {
			if v >= 0 {
				sum += v
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n) * 100
	case "price":
		if row.Price == 0 {
			return math.MaxFloat64 // unpriced models sink to the bottom
		}
		return row.Price
	case "trend":
		return row.TrendDelta
	case "stability":
		return row.Stability
	case "change":
		return math.Abs(row.TrendDelta)
	default: // combined
		return row.Combined
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := modelIDParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid model id")
		return
	}
	period := queryParam(r, "period", store.Period24h)
	if !validPeriods[period] || period == "latest" {
		s.fail(w, http.StatusBadRequest, "invalid period")
		return
	}
	if _, err := s.store.GetModel(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	history, err := s.store.History(r.Context(), id, types.SuiteHourly, period)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, history)
}

func (s *Server) handleHistoryBatch(w http.ResponseWriter, r *http.Request) {
	csv := r.URL.Query().Get("modelIds")
	if csv == "" {
		s.fail(w, http.StatusBadRequest, "modelIds is required")
		return
	}
	period := queryParam(r, "period", store.Period24h)
	if !validPeriods[period] || period == "latest" {
		s.fail(w, http.StatusBadRequest, "invalid period")
		return
	}

	parts := strings.Split(csv, ",")
	if len(parts) > maxBatchIDs {
		s.fail(w, http.StatusBadRequest, "too many model ids")
		return
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			s.fail(w, http.StatusBadRequest, "invalid model id")
			return
		}
		ids = append(ids, id)
	}

	var mu sync.Mutex
	result := make(map[int64][]types.Score, len(ids))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(8)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			history, err := s.store.History(ctx, id, types.SuiteHourly, period)
			if err != nil {
				return err
			}
			mu.Lock()
			result[id] = history
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.storeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=30, stale-while-revalidate=60")
	s.ok(w, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	models, err := s.store.ListModels(r.Context(), true)
	if err != nil {
		s.storeError(w, err)
		return
	}
	data := map[string]any{
		"rankedModels": len(models),
	}
	if s.sched != nil {
		data["scheduler"] = s.sched.Status()
	}
	s.ok(w, data)
}

// handleBatchStatus reports the most recent sweep: its timestamp and how
// many ranked models carry a row from it.
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	models, err := s.store.ListModels(r.Context(), true)
	if err != nil {
		s.storeError(w, err)
		return
	}

	var newest time.Time
	timestamps := make(map[int64]time.Time, len(models))
	for _, m := range models {
		latest, err := s.store.LatestScore(r.Context(), m.ID, types.SuiteHourly)
		if err != nil {
			continue
		}
		timestamps[m.ID] = latest.TS
		if latest.TS.After(newest) {
			newest = latest.TS
		}
	}

	scored := 0
	for _, ts := range timestamps {
		if ts.Equal(newest) {
			scored++
		}
	}
	s.ok(w, map[string]any{
		"batchTimestamp": newest,
		"modelsScored":   scored,
		"modelsTracked":  len(models),
	})
}

func (s *Server) handleBestModel(w http.ResponseWriter, r *http.Request) {
	ranking, err := s.buildRanking(r.Context(), "latest", "combined")
	if err != nil {
		s.storeError(w, err)
		return
	}
	for _, row := range ranking {
		if !row.Unavailable {
			s.ok(w, row)
			return
		}
	}
	s.fail(w, http.StatusNotFound, "no scored models")
}

// handleGlobalIndex reports the mean combined score over every ranked
// model with data, a single market-style number for the fleet.
func (s *Server) handleGlobalIndex(w http.ResponseWriter, r *http.Request) {
	ranking, err := s.buildRanking(r.Context(), "latest", "combined")
	if err != nil {
		s.storeError(w, err)
		return
	}
	var sum float64
	var n int
	for _, row := range ranking {
		if !row.Unavailable {
			sum += row.Combined
			n++
		}
	}
	if n == 0 {
		s.fail(w, http.StatusNotFound, "no scored models")
		return
	}
	s.ok(w, map[string]any{
		"index":  math.Round(sum/float64(n)*10) / 10,
		"models": n,
	})
}
