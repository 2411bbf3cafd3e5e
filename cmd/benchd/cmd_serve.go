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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/driftbench/driftbench/internal/log"
	"github.com/driftbench/driftbench/pkg/bench"
	"github.com/driftbench/driftbench/pkg/config"
	"github.com/driftbench/driftbench/pkg/drift"
	"github.com/driftbench/driftbench/pkg/llm/factory"
	"github.com/driftbench/driftbench/pkg/sandbox"
	"github.com/driftbench/driftbench/pkg/scheduler"
	"github.com/driftbench/driftbench/pkg/server"
	"github.com/driftbench/driftbench/pkg/store"
	"github.com/driftbench/driftbench/pkg/store/postgres"
	"github.com/driftbench/driftbench/pkg/tasks"
)

const shutdownGrace = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the benchmark engine: hourly sweeps, drift precompute, read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	// The score log the orchestrator writes to. DATABASE_URL points it at
	// Postgres for multi-node deployments; reads always come from the
	// local store.
	var benchStore bench.Store = s
	if cfg.Database.URL != "" {
		pg, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open postgres score log: %w", err)
		}
		defer func() { _ = pg.Close() }()
		benchStore = pg
		log.Info("Score log on postgres", zap.String("backend", "postgres"))
	}

	registry, err := factory.NewRegistry(factory.Config{})
	if err != nil {
		return err
	}
	if len(registry.Vendors()) == 0 {
		log.Warn("No provider credentials configured; sweeps will only persist sentinels")
	}

	orch := bench.New(bench.Options{
		Registry:    registry,
		Store:       benchStore,
		Evaluator:   sandbox.NewEvaluator(cfg.Benchmark.Python),
		Calibration: cfg.Calibration(),
		CanaryOff:   cfg.Benchmark.CanaryMode == "off",
	})

	computer := drift.NewComputer(s)
	cache := drift.NewCache()

	sched, err := scheduler.New(scheduler.Config{
		Sweep: func(ctx context.Context) error {
			return runSweepOnce(ctx, s, orch)
		},
		Precompute: func(ctx context.Context) {
			computer.Precompute(ctx, cache)
		},
		Logger: log.Logger(),
	})
	if err != nil {
		return err
	}

	pricing, err := config.LoadPricing(cfg.Benchmark.PricingFile)
	if err != nil {
		return err
	}
	srv, err := server.New(server.Config{
		Store:     s,
		Drift:     computer,
		Cache:     cache,
		Scheduler: sched,
		Pricing:   pricing,
		Logger:    log.Logger(),
	})
	if err != nil {
		return err
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Start(cfg.ListenAddr()) }()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	}

	// Second signal aborts the in-flight sweep instead of draining it.
	go func() {
		<-sigCh
		sched.Abort()
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown failed", zap.Error(err))
	}
	return sched.Stop(shutdownCtx)
}

// openStore opens the local store and seeds the model whitelist and
// task catalogue.
func openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := s.SeedDefaults(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	entries := make([]struct{ Slug, Type, Difficulty string }, 0, len(tasks.Catalogue()))
	for _, task := range tasks.Catalogue() {
		entries = append(entries, struct{ Slug, Type, Difficulty string }{
			Slug: task.Slug, Type: task.Type, Difficulty: task.Difficulty,
		})
	}
	if err := s.SeedTasks(ctx, entries); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// runSweepOnce benchmarks every ranked model for one batch timestamp.
func runSweepOnce(ctx context.Context, s *store.Store, orch *bench.Orchestrator) error {
	batchTS := time.Now().UTC()
	if override, err := cfg.BatchTimestamp(); err == nil && !override.IsZero() {
		batchTS = override
	}
	models, err := s.ListModels(ctx, true)
	if err != nil {
		return err
	}
	return orch.RunSweep(ctx, batchTS, models)
}
