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
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/driftbench/driftbench/internal/log"
	"github.com/driftbench/driftbench/pkg/llm"
	"github.com/driftbench/driftbench/pkg/sandbox"
	"github.com/driftbench/driftbench/pkg/tasks"
	"github.com/driftbench/driftbench/pkg/types"
)

// Trial counts and limits for the hourly suite.
const (
	DefaultTrials    = 5
	DefaultFuzzCases = 8
	// minCodeLength is the shortest extraction considered usable; below
	// it the trial retries with a different system-message variant.
	minCodeLength = 10
	// maxTrialAttempts is the initial attempt plus two retries.
	maxTrialAttempts = 3
)

// TrialConfig tunes one task execution. Zero values take the defaults.
type TrialConfig struct {
	Trials       int
	MaxTokens    int
	FuzzCases    int
	PromptSuffix string
}

func (c TrialConfig) withDefaults() TrialConfig {
	if c.Trials == 0 {
		c.Trials = DefaultTrials
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = llm.FairMaxTokens
	}
	if c.FuzzCases == 0 {
		c.FuzzCases = DefaultFuzzCases
	}
	return c
}

// TaskResult is the collapse of all successful trials for one (model,
// task) pair. Axes carry per-axis medians; efficiency is assigned later
// by the orchestrator and stability is the within-task value.
type TaskResult struct {
	Slug             string
	Alias            string
	Axes             map[string]float64
	Stability        float64
	LatencyMs        float64
	TokensIn         float64
	TokensOut        float64
	Seed             string
	Attempts         int
	SuccessfulTrials int
}

// TrialRunner executes N trials of one task against one model and
// collapses them into a TaskResult. Tracker, when set, is fed every
// surfaced provider failure so persistent overload accumulates.
type TrialRunner struct {
	Provider  llm.Provider
	Retrier   *llm.Retrier
	Evaluator *sandbox.Evaluator
	Tracker   *llm.OverloadTracker
}

// trialRecord is one completed trial before collapsing.
type trialRecord struct {
	axes      map[string]float64
	latencyMs float64
	tokensIn  float64
	tokensOut float64
}

// RunTask executes the configured number of trials for (model, task)
// under the batch seed. Returns nil when zero trials succeed.
func (r *TrialRunner) RunTask(ctx context.Context, model string, task tasks.Task, seed uint64, cfg TrialConfig) *TaskResult {
	cfg = cfg.withDefaults()

	alias := SymbolAlias(seed, task.Slug, task.ExpectedSymbol)
	prompt := BuildPrompt(seed, task.Slug, AliasPrompt(task.Prompt, task.ExpectedSymbol, alias))
	if cfg.PromptSuffix != "" {
		prompt += "\n\n" + cfg.PromptSuffix
	}

	fuzzSeed := int64(deriveHash(seed, task.Slug, "fuzz"))
	cases := append([]tasks.TestCase(nil), task.TestCases...)
	cases = append(cases, task.Fuzz(fuzzSeed, cfg.FuzzCases)...)

	var records []trialRecord
	attempts := 0
	for trial := 0; trial < cfg.Trials; trial++ {
		rec, n := r.runTrial(ctx, model, task, alias, prompt, trial, cfg, cases)
		attempts += n
		if rec != nil {
			records = append(records, *rec)
			trialsTotal.WithLabelValues("ok").Inc()
		} else {
			trialsTotal.WithLabelValues("failed").Inc()
		}
	}
	if len(records) == 0 {
		return nil
	}
	return collapse(task, alias, seed, records, attempts)
}

// runTrial performs one trial, retrying in place with a different system
// variant when the response yields no usable code. Returns the record (nil
// on failure) and the number of provider attempts consumed.
func (r *TrialRunner) runTrial(ctx context.Context, model string, task tasks.Task, alias, prompt string, trial int, cfg TrialConfig, cases []tasks.TestCase) (*trialRecord, int) {
	for attempt := 0; attempt < maxTrialAttempts; attempt++ {
		req := llm.ChatRequest{
			Model: model,
			Messages: []llm.Message{
				{Role: "system", Content: SystemVariant(attempt)},
				{Role: "user", Content: prompt},
			},
			Temperature: llm.FairTemperature,
			MaxTokens:   cfg.MaxTokens,
			KeyIndex:    trial,
		}
		if err := llm.CheckFair(req, cfg.MaxTokens); err != nil {
			log.Error("unfair request rejected", zap.String("model", model), zap.Error(err))
			return nil, attempt + 1
		}

		start := time.Now()
		result, err := r.Retrier.Do(ctx, func(ctx context.Context) (*llm.ChatResult, error) {
			return r.Provider.Chat(ctx, req)
		})
		latency := time.Since(start)
		if err != nil {
			if r.Tracker != nil {
				r.Tracker.RecordFailure(model, err)
			}
			log.Debug("trial call failed",
				zap.String("model", model),
				zap.String("task", task.Slug),
				zap.Int("trial", trial),
				zap.Error(err))
			return nil, attempt + 1
		}

		code := sandbox.Extract(result.Text, alias)
		if len(code) < minCodeLength {
			continue
		}

		res := r.Evaluator.Evaluate(ctx, code, alias, cases)
		return &trialRecord{
			axes:      sandbox.AxisScores(task, result.Text, code, res),
			latencyMs: float64(latency.Milliseconds()),
			tokensIn:  float64(result.TokensIn),
			tokensOut: float64(result.TokensOut),
		}, attempt + 1
	}
	return nil, maxTrialAttempts
}

func collapse(task tasks.Task, alias string, seed uint64, records []trialRecord, attempts int) *TaskResult {
	axes := make(map[string]float64, len(types.AxisNames))
	for _, name := range types.AxisNames {
		series := make([]float64, len(records))
		for i, rec := range records {
			series[i] = rec.axes[name]
		}
		axes[name] = Median(series)
	}

	correctness := make([]float64, len(records))
	latencies := make([]float64, len(records))
	tokensIn := make([]float64, len(records))
	tokensOut := make([]float64, len(records))
	for i, rec := range records {
		correctness[i] = rec.axes[types.AxisCorrectness]
		latencies[i] = rec.latencyMs
		tokensIn[i] = rec.tokensIn
		tokensOut[i] = rec.tokensOut
	}

	stability := 0.5
	if len(records) >= 2 {
		stability = Clamp(1-StdDev(correctness)/0.3, 0, 1)
	}
	axes[types.AxisStability] = stability

	return &TaskResult{
		Slug:             task.Slug,
		Alias:            alias,
		Axes:             axes,
		Stability:        stability,
		LatencyMs:        Median(latencies),
		TokensIn:         Median(tokensIn),
		TokensOut:        Median(tokensOut),
		Seed:             fmt.Sprintf("%016x", seed),
		Attempts:         attempts,
		SuccessfulTrials: len(records),
	}
}
