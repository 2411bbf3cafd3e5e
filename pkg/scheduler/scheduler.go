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

// Package scheduler drives the two recurring duties of the engine: the
// hourly benchmark sweep at the top of the hour and the drift-signature
// precompute five minutes past it.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cron expressions for the two duties.
const (
	sweepSpec      = "0 * * * *"
	precomputeSpec = "5 * * * *"
)

// Config contains scheduler configuration.
type Config struct {
	// Sweep runs one full benchmark batch. Required.
	Sweep func(ctx context.Context) error
	// Precompute refreshes drift signatures and change points. Required.
	Precompute func(ctx context.Context)
	Logger     *zap.Logger
}

// Status is the in-process view the read API reports.
type Status struct {
	IsRunning        bool      `json:"isRunning"`
	NextScheduledRun time.Time `json:"nextScheduledRun"`
	MinutesUntilNext float64   `json:"minutesUntilNext"`
}

// Scheduler owns the cron engine and tracks whether a sweep is in flight.
type Scheduler struct {
	mu      sync.RWMutex
	running bool

	cronEngine *cron.Cron
	sweepEntry cron.EntryID
	logger     *zap.Logger
	config     Config

	// baseCtx is cancelled on abort; sweeps launched from cron inherit it.
	baseCtx context.Context
	abort   context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler. Start must be called before any duty fires.
func New(config Config) (*Scheduler, error) {
	if config.Sweep == nil {
		return nil, fmt.Errorf("sweep function is required")
	}
	if config.Precompute == nil {
		return nil, fmt.Errorf("precompute function is required")
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Scheduler{
		cronEngine: cron.New(),
		logger:     config.Logger,
		config:     config,
	}, nil
}

// Start registers both duties and starts the cron engine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.baseCtx, s.abort = context.WithCancel(context.WithoutCancel(ctx))

	sweepEntry, err := s.cronEngine.AddFunc(sweepSpec, s.runSweep)
	if err != nil {
		return fmt.Errorf("failed to register sweep: %w", err)
	}
	s.sweepEntry = sweepEntry

	if _, err := s.cronEngine.AddFunc(precomputeSpec, s.runPrecompute); err != nil {
		return fmt.Errorf("failed to register precompute: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Scheduler started",
		zap.String("sweep", sweepSpec),
		zap.String("precompute", precomputeSpec))
	return nil
}

func (s *Scheduler) runSweep() {
	s.mu.Lock()
	if s.running {
		// A sweep that overruns the hour skips the next slot rather than
		// stacking batches.
		s.mu.Unlock()
		s.logger.Warn("Sweep still running, skipping this slot")
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.config.Sweep(s.baseCtx); err != nil {
		s.logger.Error("Sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Sweep finished", zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) runPrecompute() {
	s.wg.Add(1)
	defer s.wg.Done()
	s.config.Precompute(s.baseCtx)
}

// TriggerSweep runs a sweep immediately, outside the cron slot. Used by
// the sweep CLI command and by tests.
func (s *Scheduler) TriggerSweep() {
	s.runSweep()
}

// Status reports the in-flight flag and the next sweep slot.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	status := Status{IsRunning: running}
	entry := s.cronEngine.Entry(s.sweepEntry)
	if !entry.Next.IsZero() {
		status.NextScheduledRun = entry.Next
		status.MinutesUntilNext = time.Until(entry.Next).Minutes()
	}
	return status
}

// Stop drains in-flight duties and returns. The first call waits for the
// running sweep to finish; Abort cuts it short.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping scheduler")
	cronCtx := s.cronEngine.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		<-cronCtx.Done()
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler shutdown timeout, sweep may still be running")
		return ctx.Err()
	}
}

// Abort cancels the context in-flight duties run under. Wired to the
// second shutdown signal.
func (s *Scheduler) Abort() {
	if s.abort != nil {
		s.abort()
	}
	s.logger.Warn("Scheduler aborted, in-flight sweep cancelled")
}
