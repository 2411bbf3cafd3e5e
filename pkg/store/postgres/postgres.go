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

// Package postgres is the score-log backend for deployments that set
// DATABASE_URL. It covers the write path the orchestrator needs; the
// embedded SQLite store remains the default for single-node setups.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" driver
	"github.com/driftbench/driftbench/pkg/types"
)

// Store is a Postgres-backed score log.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and initialises the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scores (
		id BIGSERIAL PRIMARY KEY,
		model_id BIGINT NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		stupid_score DOUBLE PRECISION NOT NULL,
		axes JSONB NOT NULL,
		cusum DOUBLE PRECISION NOT NULL DEFAULT 0,
		note TEXT,
		suite TEXT NOT NULL DEFAULT 'hourly',
		confidence_lower DOUBLE PRECISION,
		confidence_upper DOUBLE PRECISION,
		standard_error DOUBLE PRECISION,
		sample_size INTEGER,
		model_variance DOUBLE PRECISION,
		synthetic BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_scores_model_suite_ts
		ON scores(model_id, suite, ts DESC, id DESC);

	CREATE TABLE IF NOT EXISTS runs (
		id BIGSERIAL PRIMARY KEY,
		model_id BIGINT NOT NULL,
		task_slug TEXT,
		ts TIMESTAMPTZ NOT NULL,
		temp DOUBLE PRECISION,
		seed TEXT,
		tokens_in INTEGER,
		tokens_out INTEGER,
		latency_ms BIGINT,
		attempts INTEGER,
		passed BOOLEAN NOT NULL DEFAULT FALSE,
		artifacts JSONB
	);

	CREATE TABLE IF NOT EXISTS metrics (
		run_id BIGINT PRIMARY KEY REFERENCES runs(id),
		correctness DOUBLE PRECISION,
		spec DOUBLE PRECISION,
		code_quality DOUBLE PRECISION,
		efficiency DOUBLE PRECISION,
		stability DOUBLE PRECISION,
		refusal DOUBLE PRECISION,
		recovery DOUBLE PRECISION
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertScore appends one score row.
func (s *Store) InsertScore(ctx context.Context, score *types.Score) error {
	if err := score.Validate(); err != nil {
		return fmt.Errorf("invalid score row: %w", err)
	}
	axes, err := json.Marshal(score.Axes)
	if err != nil {
		return fmt.Errorf("failed to encode axes: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO scores (model_id, ts, stupid_score, axes, cusum, note, suite,
			confidence_lower, confidence_upper, standard_error, sample_size,
			model_variance, synthetic)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		score.ModelID, score.TS, score.StupidScore, axes, score.CUSUM,
		score.Note, string(score.Suite), score.ConfidenceLower,
		score.ConfidenceUpper, score.StandardError, score.SampleSize,
		score.ModelVariance, score.Synthetic).Scan(&score.ID)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// InsertRun appends one audit run row and its metrics.
func (s *Store) InsertRun(ctx context.Context, run *types.Run, metrics *types.RunMetrics) error {
	artifacts, err := json.Marshal(run.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to encode artifacts: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO runs (model_id, task_slug, ts, temp, seed, tokens_in,
			tokens_out, latency_ms, attempts, passed, artifacts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		run.ModelID, run.TaskSlug, run.TS, run.Temp, run.Seed, run.TokensIn,
		run.TokensOut, run.LatencyMs, run.Attempts, run.Passed, artifacts).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	if metrics != nil {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO metrics (run_id, correctness, spec, code_quality,
				efficiency, stability, refusal, recovery)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			run.ID, metrics.Correctness, metrics.Spec, metrics.CodeQuality,
			metrics.Efficiency, metrics.Stability, metrics.Refusal, metrics.Recovery)
		if err != nil {
			return fmt.Errorf("failed to insert metrics: %w", err)
		}
	}
	return nil
}

// HasScore reports whether any score row exists for (model, suite).
func (s *Store) HasScore(ctx context.Context, modelID int64, suite types.Suite) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM scores WHERE model_id = $1 AND suite = $2`,
		modelID, string(suite)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count scores: %w", err)
	}
	return n > 0, nil
}

// RecentAxes returns non-sentinel, non-synthetic axis maps, newest first.
func (s *Store) RecentAxes(ctx context.Context, modelID int64, suite types.Suite, limit int) ([]map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT axes FROM scores
		WHERE model_id = $1 AND suite = $2 AND stupid_score >= 0 AND NOT synthetic
		ORDER BY ts DESC, id DESC LIMIT $3`, modelID, string(suite), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query axes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []map[string]float64
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan axes: %w", err)
		}
		axes := make(map[string]float64)
		if err := json.Unmarshal(raw, &axes); err != nil {
			return nil, fmt.Errorf("failed to decode axes: %w", err)
		}
		out = append(out, axes)
	}
	return out, rows.Err()
}

// RecentScores returns non-sentinel, non-synthetic scores, oldest first.
func (s *Store) RecentScores(ctx context.Context, modelID int64, suite types.Suite, limit int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stupid_score FROM scores
		WHERE model_id = $1 AND suite = $2 AND stupid_score >= 0 AND NOT synthetic
		ORDER BY ts DESC, id DESC LIMIT $3`, modelID, string(suite), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var newest []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		newest = append(newest, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

// LatestScore returns the newest non-sentinel, non-synthetic score.
func (s *Store) LatestScore(ctx context.Context, modelID int64, suite types.Suite) (*types.Score, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, model_id, ts, stupid_score, axes, cusum, COALESCE(note, ''),
			suite, COALESCE(confidence_lower, 0), COALESCE(confidence_upper, 0),
			COALESCE(standard_error, 0), COALESCE(sample_size, 0),
			COALESCE(model_variance, 0), synthetic
		FROM scores
		WHERE model_id = $1 AND suite = $2 AND stupid_score >= 0 AND NOT synthetic
		ORDER BY ts DESC, id DESC LIMIT 1`, modelID, string(suite))

	var (
		sc    types.Score
		raw   []byte
		suite2 string
	)
	err := row.Scan(&sc.ID, &sc.ModelID, &sc.TS, &sc.StupidScore, &raw,
		&sc.CUSUM, &sc.Note, &suite2, &sc.ConfidenceLower, &sc.ConfidenceUpper,
		&sc.StandardError, &sc.SampleSize, &sc.ModelVariance, &sc.Synthetic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no score for model %d: %w", modelID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan score: %w", err)
	}
	sc.Suite = types.Suite(suite2)
	if err := json.Unmarshal(raw, &sc.Axes); err != nil {
		return nil, fmt.Errorf("failed to decode axes: %w", err)
	}
	return &sc, nil
}
