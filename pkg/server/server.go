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

// Package server is the HTTP read side. Every endpoint is a thin
// wrapper over the store and the drift computer; nothing here writes
// scores.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/driftbench/driftbench/pkg/config"
	"github.com/driftbench/driftbench/pkg/drift"
	"github.com/driftbench/driftbench/pkg/scheduler"
	"github.com/driftbench/driftbench/pkg/store"
)

// Server serves the dashboard and drift endpoints.
type Server struct {
	store   *store.Store
	drift   *drift.Computer
	cache   *drift.Cache
	sched   *scheduler.Scheduler
	pricing config.Pricing
	logger  *zap.Logger

	httpServer *http.Server
}

// Config wires the server's collaborators.
type Config struct {
	Store     *store.Store
	Drift     *drift.Computer
	Cache     *drift.Cache
	Scheduler *scheduler.Scheduler
	Pricing   config.Pricing
	Logger    *zap.Logger
}

// New builds a server. Store and Drift are required; the scheduler and
// pricing table are optional (status fields degrade gracefully).
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Drift == nil {
		return nil, errors.New("drift computer is required")
	}
	if cfg.Cache == nil {
		cfg.Cache = drift.NewCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Server{
		store:   cfg.Store,
		drift:   cfg.Drift,
		cache:   cfg.Cache,
		sched:   cfg.Scheduler,
		pricing: cfg.Pricing,
		logger:  cfg.Logger,
	}, nil
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/scores", s.handleScores)
		r.Get("/history/batch", s.handleHistoryBatch)
		r.Get("/history/{modelId}", s.handleHistory)
		r.Get("/status", s.handleStatus)
		r.Get("/batch-status", s.handleBatchStatus)
		r.Get("/best-model", s.handleBestModel)
		r.Get("/global-index", s.handleGlobalIndex)
	})

	r.Route("/drift", func(r chi.Router) {
		r.Get("/signature/{modelId}", s.handleSignature)
		r.Get("/change-points/{modelId}", s.handleChangePoints)
		r.Get("/status", s.handleDriftStatus)
		r.Get("/batch", s.handleDriftBatch)
		r.Get("/health", s.handleDriftHealth)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
		r.Post("/precompute", s.handlePrecompute)
	})

	return r
}

// Start begins serving on addr and blocks until the listener fails.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Read API listening", zap.String("addr", addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// envelope is the uniform response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) okCached(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Cached: true})
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{Success: false, Error: msg})
}

// storeError maps store failures onto the status-code contract. Internal
// details are logged, never returned to the client.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.fail(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error("Store query failed", zap.Error(err))
	s.fail(w, http.StatusInternalServerError, "store query failed")
}

func modelIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "modelId"), 10, 64)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.fail(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	data := map[string]any{
		"status": "ok",
		"db":     "ok",
		"cache":  s.cache.Stats(),
	}
	if s.sched != nil {
		data["scheduler"] = s.sched.Status()
	}
	s.ok(w, data)
}
