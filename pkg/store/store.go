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

// Package store persists the append-only score log and its derived views
// in SQLite. The orchestrator is the single writer of score rows; the
// read API and the drift computer only query.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/driftbench/driftbench/internal/sqlitedriver"
	"github.com/driftbench/driftbench/pkg/types"
)

// Store wraps the SQLite database holding models, scores, runs, and
// change points.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a Store at path, enabling WAL mode and initialising the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// WAL lets the read API query while a sweep writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the tables if they do not exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		vendor TEXT NOT NULL,
		version TEXT,
		notes TEXT,
		created_at INTEGER NOT NULL,
		display_name TEXT,
		show_in_rankings INTEGER NOT NULL DEFAULT 1,
		supports_tool_calling INTEGER NOT NULL DEFAULT 0,
		max_tools_per_call INTEGER DEFAULT 0,
		tool_call_reliability REAL DEFAULT 0,
		uses_reasoning_effort INTEGER NOT NULL DEFAULT 0,
		UNIQUE (name, vendor)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		lang TEXT NOT NULL DEFAULT 'python',
		type TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		schema_uri TEXT,
		hidden INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model_id INTEGER NOT NULL,
		ts INTEGER NOT NULL,
		stupid_score REAL NOT NULL,
		axes TEXT NOT NULL,
		cusum REAL NOT NULL DEFAULT 0,
		note TEXT,
		suite TEXT NOT NULL DEFAULT 'hourly',
		confidence_lower REAL,
		confidence_upper REAL,
		standard_error REAL,
		sample_size INTEGER,
		model_variance REAL,
		synthetic INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (model_id) REFERENCES models(id)
	);
	CREATE INDEX IF NOT EXISTS idx_scores_model_suite_ts
		ON scores(model_id, suite, ts DESC, id DESC);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model_id INTEGER NOT NULL,
		task_id INTEGER,
		task_slug TEXT,
		ts INTEGER NOT NULL,
		temp REAL,
		seed TEXT,
		tokens_in INTEGER,
		tokens_out INTEGER,
		latency_ms INTEGER,
		attempts INTEGER,
		passed INTEGER NOT NULL DEFAULT 0,
		artifacts TEXT,
		api_version TEXT,
		response_headers TEXT,
		model_fingerprint TEXT,
		FOREIGN KEY (model_id) REFERENCES models(id)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_model_ts ON runs(model_id, ts DESC);

	CREATE TABLE IF NOT EXISTS metrics (
		run_id INTEGER PRIMARY KEY,
		correctness REAL,
		spec REAL,
		code_quality REAL,
		efficiency REAL,
		stability REAL,
		refusal REAL,
		recovery REAL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS change_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model_id INTEGER NOT NULL,
		detected_at INTEGER NOT NULL,
		from_score REAL NOT NULL,
		to_score REAL NOT NULL,
		delta REAL NOT NULL,
		significance REAL NOT NULL,
		change_type TEXT NOT NULL,
		affected_axes TEXT,
		suspected_cause TEXT,
		FOREIGN KEY (model_id) REFERENCES models(id)
	);
	CREATE INDEX IF NOT EXISTS idx_change_points_model
		ON change_points(model_id, detected_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertModel inserts the model or returns the existing id for its
// (name, vendor) pair.
func (s *Store) UpsertModel(ctx context.Context, m *types.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO models (name, vendor, version, created_at, display_name,
			show_in_rankings, supports_tool_calling, uses_reasoning_effort)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, vendor) DO UPDATE SET
			version = excluded.version,
			display_name = excluded.display_name`,
		m.Name, string(m.Vendor), m.Version, m.CreatedAt.Unix(), m.DisplayName,
		boolInt(m.ShowInRankings), boolInt(m.SupportsToolCalling), boolInt(m.UsesReasoningEffort))
	if err != nil {
		return fmt.Errorf("failed to upsert model %s: %w", m.Name, err)
	}
	// LastInsertId is unreliable on the conflict path; resolve the id
	// explicitly.
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM models WHERE name = ? AND vendor = ?`, m.Name, string(m.Vendor))
	if err := row.Scan(&m.ID); err != nil {
		return fmt.Errorf("failed to resolve model id: %w", err)
	}
	return nil
}

// GetModel returns the model with the given id.
func (s *Store) GetModel(ctx context.Context, id int64) (*types.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, vendor, COALESCE(version, ''), COALESCE(display_name, ''),
			show_in_rankings, supports_tool_calling, uses_reasoning_effort, created_at
		FROM models WHERE id = ?`, id)
	return scanModel(row)
}

// ListModels returns all models, or only those shown in rankings.
func (s *Store) ListModels(ctx context.Context, onlyRanked bool) ([]types.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `
		SELECT id, name, vendor, COALESCE(version, ''), COALESCE(display_name, ''),
			show_in_rankings, supports_tool_calling, uses_reasoning_effort, created_at
		FROM models`
	if onlyRanked {
		query += ` WHERE show_in_rankings = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// SetShowInRankings flips the only mutable model field.
func (s *Store) SetShowInRankings(ctx context.Context, id int64, show bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE models SET show_in_rankings = ? WHERE id = ?`, boolInt(show), id)
	if err != nil {
		return fmt.Errorf("failed to update model %d: %w", id, err)
	}
	return nil
}

// SeedTasks records the task catalogue rows for auditing joins.
func (s *Store) SeedTasks(ctx context.Context, entries []struct{ Slug, Type, Difficulty string }) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO tasks (slug, type, difficulty) VALUES (?, ?, ?)
			ON CONFLICT (slug) DO NOTHING`, e.Slug, e.Type, e.Difficulty)
		if err != nil {
			return fmt.Errorf("failed to seed task %s: %w", e.Slug, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*types.Model, error) {
	var (
		m       types.Model
		vendor  string
		created int64
		show    int
		tools   int
		effort  int
	)
	if err := row.Scan(&m.ID, &m.Name, &vendor, &m.Version, &m.DisplayName,
		&show, &tools, &effort, &created); err != nil {
		return nil, fmt.Errorf("failed to scan model: %w", err)
	}
	m.Vendor = types.Vendor(vendor)
	m.ShowInRankings = show != 0
	m.SupportsToolCalling = tools != 0
	m.UsesReasoningEffort = effort != 0
	m.CreatedAt = time.Unix(created, 0).UTC()
	return &m, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
