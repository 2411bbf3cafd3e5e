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
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftbench/driftbench/pkg/types"
)

// changePointCollisionWindow suppresses duplicate detections: a candidate
// within ±1 hour of an existing row for the same model is dropped.
const changePointCollisionWindow = time.Hour

// InsertChangePoint appends a change point unless one already exists for
// the model within the collision window. Returns true when a row was
// written.
func (s *Store) InsertChangePoint(ctx context.Context, cp *types.ChangePoint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM change_points
		WHERE model_id = ? AND detected_at BETWEEN ? AND ?`,
		cp.ModelID,
		cp.DetectedAt.Add(-changePointCollisionWindow).Unix(),
		cp.DetectedAt.Add(changePointCollisionWindow).Unix()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check change-point window: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	axes, err := json.Marshal(cp.AffectedAxes)
	if err != nil {
		return false, fmt.Errorf("failed to encode affected axes: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO change_points (model_id, detected_at, from_score, to_score,
			delta, significance, change_type, affected_axes, suspected_cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.ModelID, cp.DetectedAt.Unix(), cp.FromScore, cp.ToScore,
		cp.Delta, cp.Significance, cp.ChangeType, string(axes), cp.SuspectedCause)
	if err != nil {
		return false, fmt.Errorf("failed to insert change point: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		cp.ID = id
	}
	return true, nil
}

// ListChangePoints returns the newest change points for a model.
func (s *Store) ListChangePoints(ctx context.Context, modelID int64, limit int) ([]types.ChangePoint, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_id, detected_at, from_score, to_score, delta,
			significance, change_type, COALESCE(affected_axes, '[]'),
			COALESCE(suspected_cause, '')
		FROM change_points WHERE model_id = ?
		ORDER BY detected_at DESC LIMIT ?`, modelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list change points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.ChangePoint
	for rows.Next() {
		var (
			cp       types.ChangePoint
			detected int64
			axesJSON string
		)
		if err := rows.Scan(&cp.ID, &cp.ModelID, &detected, &cp.FromScore,
			&cp.ToScore, &cp.Delta, &cp.Significance, &cp.ChangeType,
			&axesJSON, &cp.SuspectedCause); err != nil {
			return nil, fmt.Errorf("failed to scan change point: %w", err)
		}
		cp.DetectedAt = time.Unix(detected, 0).UTC()
		if err := json.Unmarshal([]byte(axesJSON), &cp.AffectedAxes); err != nil {
			return nil, fmt.Errorf("failed to decode affected axes: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}
