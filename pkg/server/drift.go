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
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/driftbench/driftbench/pkg/drift"
	"github.com/driftbench/driftbench/pkg/types"
)

// handleSignature serves one model's drift signature through the cache.
// A fresh entry is a HIT; an expired one is served as PARTIAL while the
// recomputed value replaces it; a MISS computes synchronously.
func (s *Server) handleSignature(w http.ResponseWriter, r *http.Request) {
	id, err := modelIDParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid model id")
		return
	}
	if _, err := s.store.GetModel(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}

	sig, state := s.cache.Get(id)
	w.Header().Set("X-Cache", string(state))
	switch state {
	case drift.CacheHit:
		s.okCached(w, sig)
		return
	case drift.CachePartial:
		// Serve stale, refresh out of band.
		go s.refreshSignature(id)
		s.okCached(w, sig)
		return
	}

	sig, err = s.drift.Signature(r.Context(), id)
	if err != nil {
		if errors.Is(err, drift.ErrInsufficientData) {
			s.fail(w, http.StatusNotFound, "insufficient data")
			return
		}
		s.storeError(w, err)
		return
	}
	s.cache.Put(id, sig)
	s.ok(w, sig)
}

func (s *Server) refreshSignature(id int64) {
	sig, err := s.drift.Signature(context.Background(), id)
	if err != nil {
		s.logger.Warn("Background signature refresh failed",
			zap.Int64("modelId", id), zap.Error(err))
		return
	}
	s.cache.Put(id, sig)
}

func (s *Server) handleChangePoints(w http.ResponseWriter, r *http.Request) {
	id, err := modelIDParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid model id")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			s.fail(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if _, err := s.store.GetModel(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	points, err := s.store.ListChangePoints(r.Context(), id, limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, points)
}

// handleDriftStatus summarises alert states across the fleet.
func (s *Server) handleDriftStatus(w http.ResponseWriter, r *http.Request) {
	signatures, err := s.collectSignatures(r)
	if err != nil {
		s.storeError(w, err)
		return
	}
	counts := map[string]int{
		types.StatusNormal:  0,
		types.StatusWarning: 0,
		types.StatusAlert:   0,
	}
	var alerting []int64
	for _, sig := range signatures {
		counts[sig.Status]++
		if sig.Status == types.StatusAlert {
			alerting = append(alerting, sig.ModelID)
		}
	}
	s.ok(w, map[string]any{
		"models":   len(signatures),
		"byStatus": counts,
		"alerting": alerting,
	})
}

// handleDriftBatch returns every computable signature, keyed by model.
func (s *Server) handleDriftBatch(w http.ResponseWriter, r *http.Request) {
	signatures, err := s.collectSignatures(r)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.ok(w, signatures)
}

// collectSignatures walks the ranked models, serving from cache where
// possible. Models with insufficient history are skipped.
func (s *Server) collectSignatures(r *http.Request) (map[int64]*types.DriftSignature, error) {
	models, err := s.store.ListModels(r.Context(), true)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*types.DriftSignature, len(models))
	for _, m := range models {
		if sig, state := s.cache.Get(m.ID); state == drift.CacheHit {
			out[m.ID] = sig
			continue
		}
		sig, err := s.drift.Signature(r.Context(), m.ID)
		if err != nil {
			if errors.Is(err, drift.ErrInsufficientData) {
				continue
			}
			return nil, err
		}
		s.cache.Put(m.ID, sig)
		out[m.ID] = sig
	}
	return out, nil
}

func (s *Server) handleDriftHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	status := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}
	data := map[string]any{
		"db":    dbStatus,
		"cache": s.cache.Stats(),
	}
	if s.sched != nil {
		data["scheduler"] = s.sched.Status()
	}
	s.writeJSON(w, status, envelope{Success: status == http.StatusOK, Data: data})
}

// handlePrecompute is the internal cache warmer.
func (s *Server) handlePrecompute(w http.ResponseWriter, r *http.Request) {
	s.drift.Precompute(r.Context(), s.cache)
	s.ok(w, map[string]any{"cache": s.cache.Stats()})
}
