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

// Package types holds the domain records shared by every engine package.
// Keeping them here breaks import cycles between the orchestrator, the
// store, and the drift computer.
package types

import (
	"fmt"
	"math"
	"time"
)

// Vendor identifies a model provider.
type Vendor string

const (
	VendorOpenAI    Vendor = "openai"
	VendorAnthropic Vendor = "anthropic"
	VendorGemini    Vendor = "gemini"
	VendorXAI       Vendor = "xai"
	VendorDeepSeek  Vendor = "deepseek"
	VendorKimi      Vendor = "kimi"
	VendorGLM       Vendor = "glm"
)

// AllVendors lists every supported provider in dispatch order.
var AllVendors = []Vendor{
	VendorOpenAI, VendorAnthropic, VendorGemini,
	VendorXAI, VendorDeepSeek, VendorKimi, VendorGLM,
}

// Suite is a scoring track. Each suite is fed by an independent benchmark
// subsystem; the hourly suite is the one this engine sweeps.
type Suite string

const (
	SuiteHourly  Suite = "hourly"
	SuiteDeep    Suite = "deep"
	SuiteTooling Suite = "tooling"
)

// Sentinel scores. A sentinel row records why no benchmark result was
// produced; its axes are all set to AxisPlaceholder.
const (
	ScoreProviderUnavailable = -999.0 // no credentials configured
	ScoreAllTasksFailed      = -888.0 // every selected task failed
	ScoreCanaryFailed        = -777.0 // adapter validation call failed
	AxisPlaceholder          = -1.0
)

// IsSentinel reports whether s is one of the sentinel score values.
func IsSentinel(s float64) bool {
	return s == ScoreProviderUnavailable || s == ScoreAllTasksFailed || s == ScoreCanaryFailed
}

// Canonical axis names. Every persisted axis map carries exactly this key set.
const (
	AxisCorrectness = "correctness"
	AxisComplexity  = "complexity"
	AxisCodeQuality = "codeQuality"
	AxisStability   = "stability"
	AxisFormat      = "format"
	AxisEfficiency  = "efficiency"
	AxisEdgeCases   = "edgeCases"
	AxisDebugging   = "debugging"
	AxisSafety      = "safety"
)

// AxisNames lists the nine canonical axes in weight order.
var AxisNames = []string{
	AxisCorrectness, AxisComplexity, AxisCodeQuality, AxisStability,
	AxisFormat, AxisEfficiency, AxisEdgeCases, AxisDebugging, AxisSafety,
}

// AxisWeights is the scoring weight per axis. The weights must sum to 1.0;
// init panics otherwise because a bad weight table silently corrupts every
// score ever written.
var AxisWeights = map[string]float64{
	AxisCorrectness: 0.30,
	AxisComplexity:  0.18,
	AxisCodeQuality: 0.12,
	AxisStability:   0.12,
	AxisFormat:      0.08,
	AxisEfficiency:  0.05,
	AxisEdgeCases:   0.05,
	AxisDebugging:   0.05,
	AxisSafety:      0.05,
}

func init() {
	sum := 0.0
	for _, w := range AxisWeights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		panic(fmt.Sprintf("types: axis weights sum to %v, want 1.0", sum))
	}
}

// ValidateAxes checks that axes carries exactly the canonical key set.
func ValidateAxes(axes map[string]float64) error {
	if len(axes) != len(AxisWeights) {
		return fmt.Errorf("axis map has %d keys, want %d", len(axes), len(AxisWeights))
	}
	for name := range AxisWeights {
		if _, ok := axes[name]; !ok {
			return fmt.Errorf("axis map missing required key %q", name)
		}
	}
	return nil
}

// PlaceholderAxes returns a full axis map with every value set to
// AxisPlaceholder, for sentinel score rows.
func PlaceholderAxes() map[string]float64 {
	axes := make(map[string]float64, len(AxisWeights))
	for name := range AxisWeights {
		axes[name] = AxisPlaceholder
	}
	return axes
}

// Model is a benchmarkable LLM endpoint. (Name, Vendor) is unique; only
// models with ShowInRankings set are swept on schedule.
type Model struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Vendor              Vendor    `json:"vendor"`
	Version             string    `json:"version,omitempty"`
	DisplayName         string    `json:"displayName,omitempty"`
	ShowInRankings      bool      `json:"showInRankings"`
	SupportsToolCalling bool      `json:"supportsToolCalling"`
	UsesReasoningEffort bool      `json:"usesReasoningEffort"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Score is one append-only row of the score log. The latest row per
// (ModelID, Suite) defines the current value; rows are never mutated.
type Score struct {
	ID              int64              `json:"id"`
	ModelID         int64              `json:"modelId"`
	TS              time.Time          `json:"ts"`
	Suite           Suite              `json:"suite"`
	StupidScore     float64            `json:"stupidScore"`
	Axes            map[string]float64 `json:"axes"`
	CUSUM           float64            `json:"cusum"`
	Note            string             `json:"note,omitempty"`
	ConfidenceLower float64            `json:"confidenceLower,omitempty"`
	ConfidenceUpper float64            `json:"confidenceUpper,omitempty"`
	StandardError   float64            `json:"standardError,omitempty"`
	SampleSize      int                `json:"sampleSize,omitempty"`
	ModelVariance   float64            `json:"modelVariance,omitempty"`
	// Synthetic marks rows written by the fallback generator. They render
	// like real rows but are excluded from every baseline computation.
	Synthetic bool `json:"-"`
}

// Validate enforces the score-row invariant: either a real score in
// [0,100] with a full axis map, or a sentinel with placeholder axes.
func (s *Score) Validate() error {
	if IsSentinel(s.StupidScore) {
		for name, v := range s.Axes {
			if v != AxisPlaceholder {
				return fmt.Errorf("sentinel score carries live axis %q=%v", name, v)
			}
		}
		return ValidateAxes(s.Axes)
	}
	if s.StupidScore < 0 || s.StupidScore > 100 {
		return fmt.Errorf("score %v outside [0,100] and not a sentinel", s.StupidScore)
	}
	return ValidateAxes(s.Axes)
}

// Run is the per-task, per-batch audit record. Not required to compute
// current scores; retained for trend analysis.
type Run struct {
	ID        int64          `json:"id"`
	ModelID   int64          `json:"modelId"`
	TaskSlug  string         `json:"taskSlug"`
	TS        time.Time      `json:"ts"`
	Temp      float64        `json:"temp"`
	Seed      string         `json:"seed"`
	TokensIn  int            `json:"tokensIn"`
	TokensOut int            `json:"tokensOut"`
	LatencyMs int64          `json:"latencyMs"`
	Attempts  int            `json:"attempts"`
	Passed    bool           `json:"passed"`
	Artifacts map[string]any `json:"artifacts,omitempty"`
}

// RunMetrics mirrors the historic metrics table. Column names predate the
// current axis names: spec↔complexity, refusal↔edgeCases, recovery↔debugging.
type RunMetrics struct {
	RunID       int64   `json:"runId"`
	Correctness float64 `json:"correctness"`
	Spec        float64 `json:"spec"`
	CodeQuality float64 `json:"codeQuality"`
	Efficiency  float64 `json:"efficiency"`
	Stability   float64 `json:"stability"`
	Refusal     float64 `json:"refusal"`
	Recovery    float64 `json:"recovery"`
}

// ChangeType classifies a detected change point.
const (
	ChangeImprovement = "improvement"
	ChangeDegradation = "degradation"
	ChangeShift       = "shift"
)

// ChangePoint is a statistically significant behavioural break detected
// from the score history. Detection is idempotent within a one-hour window.
type ChangePoint struct {
	ID             int64     `json:"id"`
	ModelID        int64     `json:"modelId"`
	DetectedAt     time.Time `json:"detectedAt"`
	FromScore      float64   `json:"fromScore"`
	ToScore        float64   `json:"toScore"`
	Delta          float64   `json:"delta"`
	Significance   float64   `json:"significance"`
	ChangeType     string    `json:"changeType"`
	AffectedAxes   []string  `json:"affectedAxes"`
	SuspectedCause string    `json:"suspectedCause"`
}

// Drift regimes.
const (
	RegimeStable     = "STABLE"
	RegimeDegraded   = "DEGRADED"
	RegimeRecovering = "RECOVERING"
	RegimeVolatile   = "VOLATILE"
)

// Drift alert statuses.
const (
	StatusNormal  = "NORMAL"
	StatusWarning = "WARNING"
	StatusAlert   = "ALERT"
)

// AxisTrend is the per-axis slice of a drift signature.
type AxisTrend struct {
	Current   float64 `json:"current"`
	Trend     string  `json:"trend"` // up | down | stable
	ChangePct float64 `json:"changePct"`
	Status    string  `json:"status"`
}

// DriftSignature is the cached per-model behaviour snapshot computed from
// the score log. It is derived state; recomputing it never writes scores.
type DriftSignature struct {
	ModelID        int64                `json:"modelId"`
	Timestamp      time.Time            `json:"timestamp"`
	CurrentScore   float64              `json:"currentScore"`
	Baseline28d    float64              `json:"baseline28d"`
	CILower        float64              `json:"ciLower"`
	CIUpper        float64              `json:"ciUpper"`
	Regime         string               `json:"regime"`
	Variance24h    float64              `json:"variance24h"`
	CUSUM          float64              `json:"cusum"`
	AxisTrends     map[string]AxisTrend `json:"axisTrends"`
	Status         string               `json:"status"`
	Diagnosis      string               `json:"diagnosis"`
	Recommendation string               `json:"recommendation"`
	SampleSize     int                  `json:"sampleSize"`
}
