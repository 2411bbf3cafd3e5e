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

package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/driftbench/driftbench/internal/log"
	"github.com/driftbench/driftbench/pkg/llm"
	"github.com/driftbench/driftbench/pkg/llm/factory"
	"github.com/driftbench/driftbench/pkg/sandbox"
	"github.com/driftbench/driftbench/pkg/tasks"
	"github.com/driftbench/driftbench/pkg/types"
)

// Sweep shape.
const (
	TasksPerSweep = 7
	// Phase 2 raises the token ceiling fourfold, capped.
	phase2MaxTokens    = 6000
	phase2Trials       = 2
	phase2PromptSuffix = "Provide a complete, working solution. No commentary."
	// Scores in the Page-Hinkley window, counting the one being persisted.
	driftWindow = 12
	// Scores loaded for the per-axis baseline.
	baselineWindow = 50
)

// Store is the score-log surface the orchestrator writes through.
type Store interface {
	InsertScore(ctx context.Context, score *types.Score) error
	InsertRun(ctx context.Context, run *types.Run, metrics *types.RunMetrics) error
	// RecentAxes returns non-sentinel, non-synthetic axis maps, newest first.
	RecentAxes(ctx context.Context, modelID int64, suite types.Suite, limit int) ([]map[string]float64, error)
	// RecentScores returns non-sentinel, non-synthetic score values, oldest first.
	RecentScores(ctx context.Context, modelID int64, suite types.Suite, limit int) ([]float64, error)
	// HasScore reports whether any row at all exists for (model, suite).
	HasScore(ctx context.Context, modelID int64, suite types.Suite) (bool, error)
}

// Orchestrator owns one sweep: canaries, task selection, both phases,
// scoring, and persistence. It is the only writer of Score rows.
type Orchestrator struct {
	registry    *factory.Registry
	store       Store
	tracker     *llm.OverloadTracker
	evaluator   *sandbox.Evaluator
	calibration Calibration
	canaryOff   bool
	retrier     *llm.Retrier
}

// Options configures an Orchestrator.
type Options struct {
	Registry    *factory.Registry
	Store       Store
	Tracker     *llm.OverloadTracker
	Evaluator   *sandbox.Evaluator
	Calibration Calibration
	// CanaryOff skips the adapter validation ping; used in stub-driven tests.
	CanaryOff bool
	Retrier   *llm.Retrier
}

// New builds an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Tracker == nil {
		opts.Tracker = llm.NewOverloadTracker(nil)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = sandbox.NewEvaluator("")
	}
	if opts.Retrier == nil {
		opts.Retrier = llm.NewRetrier(llm.DefaultRetrierConfig())
	}
	if opts.Calibration == (Calibration{}) {
		opts.Calibration = DefaultCalibration()
	}
	return &Orchestrator{
		registry:    opts.Registry,
		store:       opts.Store,
		tracker:     opts.Tracker,
		evaluator:   opts.Evaluator,
		calibration: opts.Calibration,
		canaryOff:   opts.CanaryOff,
		retrier:     opts.Retrier,
	}
}

// errRetryModel marks a model whose canary failed retryably; the sweep
// retries it once after all providers finish Phase 1.
var errRetryModel = errors.New("model canary failed retryably")

// RunSweep benchmarks every given model for the hourly suite at the batch
// timestamp. Providers run in parallel; models within a provider run
// sequentially to respect rate limits. No per-model error aborts the sweep.
func (o *Orchestrator) RunSweep(ctx context.Context, batchTS time.Time, models []types.Model) error {
	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	batch := batchTS.UTC().Format(time.RFC3339)
	sweepID := uuid.NewString()
	seed := SeedFromTimestamp(batch)
	selected := o.selectTasks(seed)

	byVendor := make(map[types.Vendor][]types.Model)
	for _, m := range models {
		byVendor[m.Vendor] = append(byVendor[m.Vendor], m)
	}
	if len(byVendor) == 0 {
		log.Info("sweep no-op: no models to benchmark", zap.String("batch", batch))
		return nil
	}

	var g errgroup.Group
	retryCh := make(chan types.Model, len(models))
	for vendor, group := range byVendor {
		vendor, group := vendor, group
		g.Go(func() error {
			provider, _, err := o.registry.Provider(vendor)
			if errors.Is(err, llm.ErrNoCredentials) {
				o.handleMissingCredentials(ctx, batchTS, vendor, group)
				return nil
			}
			if err != nil {
				return err
			}
			for _, model := range group {
				if err := o.benchmarkModel(ctx, sweepID, batchTS, seed, provider, model, selected, false); errors.Is(err, errRetryModel) {
					retryCh <- model
				} else if err != nil {
					log.Error("model benchmark failed",
						zap.String("model", model.Name), zap.Error(err))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(retryCh)

	// Second pass for models whose canary failed retryably: relaxed
	// canary, same tasks, same batch timestamp.
	for model := range retryCh {
		provider, _, err := o.registry.Provider(model.Vendor)
		if err != nil {
			continue
		}
		if err := o.benchmarkModel(ctx, sweepID, batchTS, seed, provider, model, selected, true); err != nil {
			log.Error("model retry failed", zap.String("model", model.Name), zap.Error(err))
		}
	}

	sweepsTotal.Inc()
	log.Info("sweep complete",
		zap.String("sweep", sweepID),
		zap.String("batch", batch),
		zap.Int("models", len(models)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (o *Orchestrator) selectTasks(seed uint64) []tasks.Task {
	catalogue := tasks.Catalogue()
	picked := SelectTasks(seed, len(catalogue), TasksPerSweep)
	out := make([]tasks.Task, len(picked))
	for i, idx := range picked {
		out[i] = catalogue[idx]
	}
	return out
}

// handleMissingCredentials persists the -999 sentinel only for models
// that have never been scored; otherwise the last valid score stands.
func (o *Orchestrator) handleMissingCredentials(ctx context.Context, batchTS time.Time, vendor types.Vendor, models []types.Model) {
	for _, model := range models {
		modelsSkipped.WithLabelValues("no_credentials").Inc()
		seen, err := o.store.HasScore(ctx, model.ID, types.SuiteHourly)
		if err != nil {
			log.Error("credential-skip lookup failed", zap.String("model", model.Name), zap.Error(err))
			continue
		}
		if seen {
			log.Info("skipping model: provider not configured",
				zap.String("model", model.Name), zap.String("vendor", string(vendor)))
			continue
		}
		o.persistSentinel(ctx, batchTS, model, types.ScoreProviderUnavailable,
			fmt.Sprintf("Provider %s not configured", vendor))
	}
}

func (o *Orchestrator) persistSentinel(ctx context.Context, batchTS time.Time, model types.Model, value float64, note string) {
	score := &types.Score{
		ModelID:     model.ID,
		TS:          batchTS,
		Suite:       types.SuiteHourly,
		StupidScore: value,
		Axes:        types.PlaceholderAxes(),
		Note:        note,
	}
	if err := o.store.InsertScore(ctx, score); err != nil {
		log.Error("sentinel insert failed", zap.String("model", model.Name), zap.Error(err))
		return
	}
	sentinelsWritten.WithLabelValues(fmt.Sprintf("%.0f", value)).Inc()
}

// benchmarkModel runs the full per-model pipeline. relaxed marks the
// sweep-level retry pass, which tolerates retryable canary failures.
func (o *Orchestrator) benchmarkModel(ctx context.Context, sweepID string, batchTS time.Time, seed uint64, provider llm.Provider, model types.Model, selected []tasks.Task, relaxed bool) error {
	if skip, until, reason := o.tracker.ShouldSkip(model.Name); skip {
		modelsSkipped.WithLabelValues("overloaded").Inc()
		log.Warn("skipping model: persistent overload",
			zap.String("model", model.Name),
			zap.Time("until", until),
			zap.String("reason", reason))
		return nil
	}

	if !o.canaryOff {
		if err := o.canary(ctx, provider, model); err != nil {
			o.tracker.RecordFailure(model.Name, err)
			if llm.IsRetryable(err) && !relaxed {
				return errRetryModel
			}
			if !llm.IsRetryable(err) {
				o.persistSentinel(ctx, batchTS, model, types.ScoreCanaryFailed,
					"Adapter canary failed: "+err.Error())
				return nil
			}
			log.Warn("relaxed canary still failing, proceeding",
				zap.String("model", model.Name), zap.Error(err))
		}
	}

	runner := &TrialRunner{Provider: provider, Retrier: o.retrier, Evaluator: o.evaluator, Tracker: o.tracker}

	// Phase 1.
	var surviving []*TaskResult
	var failed []tasks.Task
	for _, task := range selected {
		if res := runner.RunTask(ctx, model.Name, task, seed, TrialConfig{}); res != nil {
			surviving = append(surviving, res)
		} else {
			failed = append(failed, task)
		}
	}

	// Phase 2: one relaxed retry per failed task.
	maxTokens := llm.FairMaxTokens * 4
	if maxTokens > phase2MaxTokens {
		maxTokens = phase2MaxTokens
	}
	for _, task := range failed {
		res := runner.RunTask(ctx, model.Name, task, seed, TrialConfig{
			Trials:       phase2Trials,
			MaxTokens:    maxTokens,
			PromptSuffix: phase2PromptSuffix,
		})
		if res != nil {
			surviving = append(surviving, res)
		} else {
			taskFailures.Inc()
		}
	}

	if len(surviving) == 0 {
		o.persistSentinel(ctx, batchTS, model, types.ScoreAllTasksFailed,
			"All benchmark tasks failed")
		return nil
	}

	o.assignEfficiency(surviving)
	axes := aggregateAxes(surviving)

	history, err := o.store.RecentAxes(ctx, model.ID, types.SuiteHourly, baselineWindow)
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}
	baseline := NewBaseline(history)

	successRate := float64(len(surviving)) / float64(len(selected))
	final := CalculateScore(axes, baseline, len(surviving), successRate, o.calibration)

	taskScores := make([]float64, len(surviving))
	for i, res := range surviving {
		taskScores[i] = rawAxisScore(res.Axes)
	}
	lower, upper, stderr := ConfidenceInterval(taskScores)

	recent, err := o.store.RecentScores(ctx, model.ID, types.SuiteHourly, driftWindow-1)
	if err != nil {
		return fmt.Errorf("failed to load score history: %w", err)
	}
	series := append(append([]float64(nil), recent...), final)
	cusum := PageHinkleyStat(series, PageHinkleyDelta)
	drifting := len(series) >= 2 && cusum > PageHinkleyLambda

	score := &types.Score{
		ModelID:         model.ID,
		TS:              batchTS,
		Suite:           types.SuiteHourly,
		StupidScore:     final,
		Axes:            axes,
		CUSUM:           cusum,
		Note:            buildNote(baseline, len(surviving), len(selected), drifting),
		ConfidenceLower: lower,
		ConfidenceUpper: upper,
		StandardError:   stderr,
		SampleSize:      len(surviving),
		ModelVariance:   StdDev(taskScores),
	}
	if err := score.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid score: %w", err)
	}
	if err := o.store.InsertScore(ctx, score); err != nil {
		return fmt.Errorf("failed to persist score: %w", err)
	}
	modelsScored.WithLabelValues(string(model.Vendor)).Inc()

	for _, res := range surviving {
		o.persistRun(ctx, sweepID, batchTS, model, res)
	}

	if drifting {
		log.Warn("drift detected",
			zap.String("model", model.Name),
			zap.Float64("cusum", cusum),
			zap.Float64("score", final))
	}

	o.tracker.RecordSuccess(model.Name)
	return nil
}

// canary issues one tiny validation call before committing to a full run.
func (o *Orchestrator) canary(ctx context.Context, provider llm.Provider, model types.Model) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := provider.Chat(ctx, llm.ChatRequest{
		Model:       model.Name,
		Messages:    []llm.Message{{Role: "user", Content: "Reply with OK."}},
		Temperature: llm.FairTemperature,
		MaxTokens:   16,
	})
	return err
}

// assignEfficiency derives the efficiency axis from throughput:
// tokens out per millisecond on a log scale, clamped into [0.1, 0.9].
func (o *Orchestrator) assignEfficiency(results []*TaskResult) {
	for _, res := range results {
		denom := res.LatencyMs
		if denom < 1 {
			denom = 1
		}
		eff := Clamp(math.Log10(res.TokensOut/denom+1e-6)+3, 0, 3) / 3
		res.Axes[types.AxisEfficiency] = Clamp(eff, 0.1, 0.9)
	}
}

// aggregateAxes means each axis across tasks and recomputes stability
// from cross-task correctness spread blended with within-task stability.
func aggregateAxes(results []*TaskResult) map[string]float64 {
	axes := make(map[string]float64, len(types.AxisNames))
	for _, name := range types.AxisNames {
		series := make([]float64, len(results))
		for i, res := range results {
			series[i] = res.Axes[name]
		}
		axes[name] = Mean(series)
	}

	correctness := make([]float64, len(results))
	within := make([]float64, len(results))
	for i, res := range results {
		correctness[i] = res.Axes[types.AxisCorrectness]
		within[i] = res.Stability
	}
	cross := Clamp(1-StdDev(correctness)/0.25, 0, 1)
	axes[types.AxisStability] = 0.7*cross + 0.3*Clamp(Mean(within), 0.3, 0.95)
	return axes
}

// rawAxisScore is the uncorrected weighted score of one task's axis
// vector (decay, penalties, curve; no baseline, gates, or calibration).
// Used for the per-task score distribution behind the CI.
func rawAxisScore(axes map[string]float64) float64 {
	sum := 0.0
	for name, w := range types.AxisWeights {
		p := math.Pow(Clamp(axes[name], 0, 1), 1.4)
		sum += w * p
	}
	return math.Pow(sum, 1.2) * 100
}

func buildNote(baseline *Baseline, successful, selected int, drifting bool) string {
	parts := []string{fmt.Sprintf("tasks %d/%d", successful, selected)}
	if baseline.Calibrating() {
		parts = append(parts, "calibrating")
	}
	if drifting {
		parts = append(parts, "drift suspected")
	}
	return strings.Join(parts, "; ")
}

func (o *Orchestrator) persistRun(ctx context.Context, sweepID string, batchTS time.Time, model types.Model, res *TaskResult) {
	run := &types.Run{
		ModelID:   model.ID,
		TaskSlug:  res.Slug,
		TS:        batchTS,
		Temp:      llm.FairTemperature,
		Seed:      res.Seed,
		TokensIn:  int(res.TokensIn),
		TokensOut: int(res.TokensOut),
		LatencyMs: int64(res.LatencyMs),
		Attempts:  res.Attempts,
		Passed:    res.Axes[types.AxisCorrectness] >= 1,
		Artifacts: map[string]any{"sweep": sweepID, "alias": res.Alias, "trials": res.SuccessfulTrials},
	}
	metrics := &types.RunMetrics{
		Correctness: res.Axes[types.AxisCorrectness],
		Spec:        res.Axes[types.AxisComplexity],
		CodeQuality: res.Axes[types.AxisCodeQuality],
		Efficiency:  res.Axes[types.AxisEfficiency],
		Stability:   res.Stability,
		Refusal:     res.Axes[types.AxisEdgeCases],
		Recovery:    res.Axes[types.AxisDebugging],
	}
	if err := o.store.InsertRun(ctx, run, metrics); err != nil {
		log.Error("run insert failed",
			zap.String("model", model.Name),
			zap.String("task", res.Slug),
			zap.Error(err))
	}
}
