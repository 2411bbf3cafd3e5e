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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/driftbench/driftbench/pkg/types"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("store: not found")

// Period identifiers accepted by the read API.
const (
	PeriodLatest = "latest"
	Period24h    = "24h"
	Period7d     = "7d"
	Period1m     = "1m"
)

// PeriodWindow maps a period name to its lookback duration. Zero means
// "latest only".
func PeriodWindow(period string) (time.Duration, error) {
	switch period {
	case PeriodLatest, "":
		return 0, nil
	case Period24h:
		return 24 * time.Hour, nil
	case Period7d:
		return 7 * 24 * time.Hour, nil
	case Period1m:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown period %q", period)
	}
}

// InsertScore appends one score row. Rows are never updated or deleted.
func (s *Store) InsertScore(ctx context.Context, score *types.Score) error {
	if err := score.Validate(); err != nil {
		return fmt.Errorf("invalid score row: %w", err)
	}
	axes, err := json.Marshal(score.Axes)
	if err != nil {
		return fmt.Errorf("failed to encode axes: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (model_id, ts, stupid_score, axes, cusum, note, suite,
			confidence_lower, confidence_upper, standard_error, sample_size,
			model_variance, synthetic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		score.ModelID, score.TS.Unix(), score.StupidScore, string(axes),
		score.CUSUM, score.Note, string(score.Suite),
		score.ConfidenceLower, score.ConfidenceUpper, score.StandardError,
		score.SampleSize, score.ModelVariance, boolInt(score.Synthetic))
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		score.ID = id
	}
	return nil
}

// InsertRun appends one audit run row and its metrics.
func (s *Store) InsertRun(ctx context.Context, run *types.Run, metrics *types.RunMetrics) error {
	artifacts, err := json.Marshal(run.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to encode artifacts: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (model_id, task_slug, ts, temp, seed, tokens_in,
			tokens_out, latency_ms, attempts, passed, artifacts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ModelID, run.TaskSlug, run.TS.Unix(), run.Temp, run.Seed,
		run.TokensIn, run.TokensOut, run.LatencyMs, run.Attempts,
		boolInt(run.Passed), string(artifacts))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id

	if metrics != nil {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO metrics (run_id, correctness, spec, code_quality,
				efficiency, stability, refusal, recovery)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, metrics.Correctness, metrics.Spec, metrics.CodeQuality,
			metrics.Efficiency, metrics.Stability, metrics.Refusal, metrics.Recovery)
		if err != nil {
			return fmt.Errorf("failed to insert metrics: %w", err)
		}
	}
	return nil
}

// HasScore reports whether any score row exists for (model, suite),
// sentinel or not.
func (s *Store) HasScore(ctx context.Context, modelID int64, suite types.Suite) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM scores WHERE model_id = ? AND suite = ?`,
		modelID, string(suite)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count scores: %w", err)
	}
	return n > 0, nil
}

const scoreColumns = `id, model_id, ts, stupid_score, axes, cusum,
	COALESCE(note, ''), suite, COALESCE(confidence_lower, 0),
	COALESCE(confidence_upper, 0), COALESCE(standard_error, 0),
	COALESCE(sample_size, 0), COALESCE(model_variance, 0), synthetic`

func scanScore(row rowScanner) (*types.Score, error) {
	var (
		sc        types.Score
		ts        int64
		axesJSON  string
		suite     string
		synthetic int
	)
	if err := row.Scan(&sc.ID, &sc.ModelID, &ts, &sc.StupidScore, &axesJSON,
		&sc.CUSUM, &sc.Note, &suite, &sc.ConfidenceLower, &sc.ConfidenceUpper,
		&sc.StandardError, &sc.SampleSize, &sc.ModelVariance, &synthetic); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan score: %w", err)
	}
	sc.TS = time.Unix(ts, 0).UTC()
	sc.Suite = types.Suite(suite)
	sc.Synthetic = synthetic != 0
	if err := json.Unmarshal([]byte(axesJSON), &sc.Axes); err != nil {
		return nil, fmt.Errorf("failed to decode axes: %w", err)
	}
	return &sc, nil
}

func (s *Store) queryScores(ctx context.Context, query string, args ...any) ([]types.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Score
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// LatestScore returns the most recent non-sentinel, non-synthetic score
// for (model, suite). Ties on ts break by insertion order.
func (s *Store) LatestScore(ctx context.Context, modelID int64, suite types.Suite) (*types.Score, error) {
	scores, err := s.queryScores(ctx, `
		SELECT `+scoreColumns+` FROM scores
		WHERE model_id = ? AND suite = ? AND stupid_score >= 0 AND synthetic = 0
		ORDER BY ts DESC, id DESC LIMIT 1`, modelID, string(suite))
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, ErrNotFound
	}
	return &scores[0], nil
}

// RecentAxes returns up to limit non-sentinel, non-synthetic axis maps,
// newest first. Feeds the per-axis baseline.
func (s *Store) RecentAxes(ctx context.Context, modelID int64, suite types.Suite, limit int) ([]map[string]float64, error) {
	scores, err := s.queryScores(ctx, `
		SELECT `+scoreColumns+` FROM scores
		WHERE model_id = ? AND suite = ? AND stupid_score >= 0 AND synthetic = 0
		ORDER BY ts DESC, id DESC LIMIT ?`, modelID, string(suite), limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]float64, len(scores))
	for i, sc := range scores {
		out[i] = sc.Axes
	}
	return out, nil
}

// RecentScores returns up to limit non-sentinel, non-synthetic score
// values, oldest first. Feeds the Page-Hinkley drift check.
func (s *Store) RecentScores(ctx context.Context, modelID int64, suite types.Suite, limit int) ([]float64, error) {
	scores, err := s.queryScores(ctx, `
		SELECT `+scoreColumns+` FROM scores
		WHERE model_id = ? AND suite = ? AND stupid_score >= 0 AND synthetic = 0
		ORDER BY ts DESC, id DESC LIMIT ?`, modelID, string(suite), limit)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(scores))
	for i, sc := range scores {
		out[len(scores)-1-i] = sc.StupidScore
	}
	return out, nil
}

// ScoresSince returns non-sentinel, non-synthetic scores on or after
// since, oldest first. Drift windows (24h, 7d, 28d) build on this.
func (s *Store) ScoresSince(ctx context.Context, modelID int64, suite types.Suite, since time.Time) ([]types.Score, error) {
	return s.queryScores(ctx, `
		SELECT `+scoreColumns+` FROM scores
		WHERE model_id = ? AND suite = ? AND stupid_score >= 0 AND synthetic = 0
			AND ts >= ?
		ORDER BY ts ASC, id ASC`, modelID, string(suite), since.Unix())
}

// History returns the score time series for one model and period,
// including sentinel rows, newest first.
func (s *Store) History(ctx context.Context, modelID int64, suite types.Suite, period string) ([]types.Score, error) {
	window, err := PeriodWindow(period)
	if err != nil {
		return nil, err
	}
	if window == 0 {
		window = 24 * time.Hour
	}
	return s.queryScores(ctx, `
		SELECT `+scoreColumns+` FROM scores
		WHERE model_id = ? AND suite = ? AND ts >= ?
		ORDER BY ts DESC, id DESC`,
		modelID, string(suite), time.Now().Add(-window).Unix())
}

// Combined-score weights and penalties.
const (
	combinedWeightHourly  = 0.5
	combinedWeightDeep    = 0.25
	combinedWeightTooling = 0.25
	missingSuiteSub       = 50.0
)

// CombinedScore mixes the latest per-suite scores into the default
// ranking value: 0.5·hourly + 0.25·deep + 0.25·tooling, substituting 50
// per missing suite, with a 10% penalty when one suite is missing and
// 20% when two are. ok is false when every suite is missing.
func (s *Store) CombinedScore(ctx context.Context, modelID int64) (combined float64, ok bool, err error) {
	value := func(suite types.Suite) (float64, bool, error) {
		sc, err := s.LatestScore(ctx, modelID, suite)
		if errors.Is(err, ErrNotFound) {
			return missingSuiteSub, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		return sc.StupidScore, true, nil
	}

	hourly, haveHourly, err := value(types.SuiteHourly)
	if err != nil {
		return 0, false, err
	}
	deep, haveDeep, err := value(types.SuiteDeep)
	if err != nil {
		return 0, false, err
	}
	tooling, haveTooling, err := value(types.SuiteTooling)
	if err != nil {
		return 0, false, err
	}

	present := 0
	for _, have := range []bool{haveHourly, haveDeep, haveTooling} {
		if have {
			present++
		}
	}
	if present == 0 {
		return 0, false, nil
	}

	combined = combinedWeightHourly*hourly + combinedWeightDeep*deep + combinedWeightTooling*tooling
	switch present {
	case 2:
		combined *= 0.9
	case 1:
		combined *= 0.8
	}
	return math.Round(combined), true, nil
}

// PeriodStats is a period aggregate of one model's scores.
type PeriodStats struct {
	Average    float64 `json:"average"`
	Trend      string  `json:"trend"` // up | down | stable
	TrendDelta float64 `json:"trendDelta"`
	Stability  float64 `json:"stability"`
	Samples    int     `json:"samples"`
}

// trendThreshold is the ±point delta separating up/down from stable.
const trendThreshold = 5.0

// PeriodAggregate summarises the non-sentinel scores inside the period
// window: mean, newest-vs-oldest trend, and a stability grade in [0,95]
// derived from the in-window standard deviation.
func (s *Store) PeriodAggregate(ctx context.Context, modelID int64, suite types.Suite, period string) (*PeriodStats, error) {
	window, err := PeriodWindow(period)
	if err != nil {
		return nil, err
	}
	if window == 0 {
		window = 24 * time.Hour
	}
	scores, err := s.ScoresSince(ctx, modelID, suite, time.Now().Add(-window))
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, ErrNotFound
	}

	values := make([]float64, len(scores))
	for i, sc := range scores {
		values[i] = sc.StupidScore
	}

	stats := &PeriodStats{
		Average:   mean(values),
		Trend:     "stable",
		Stability: stabilityFromStd(stddev(values)),
		Samples:   len(values),
	}
	delta := values[len(values)-1] - values[0]
	stats.TrendDelta = delta
	if delta > trendThreshold {
		stats.Trend = "up"
	} else if delta < -trendThreshold {
		stats.Trend = "down"
	}
	return stats, nil
}

// stabilityFromStd maps a score standard deviation into a [0,95]
// stability grade, piecewise: tighter spread grades higher.
func stabilityFromStd(std float64) float64 {
	switch {
	case std <= 1:
		return 95
	case std <= 2:
		return 90
	case std <= 4:
		return 80
	case std <= 6:
		return 70
	case std <= 8:
		return 55
	case std <= 12:
		return 40
	default:
		return 20
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
