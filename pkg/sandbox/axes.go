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

package sandbox

import (
	"regexp"
	"strings"

	"github.com/driftbench/driftbench/pkg/tasks"
	"github.com/driftbench/driftbench/pkg/types"
)

// complexityByDifficulty awards the tier value only when the submission
// parsed and defined the expected symbol.
var complexityByDifficulty = map[string]float64{
	tasks.Easy:   0.3,
	tasks.Medium: 0.6,
	tasks.Hard:   0.9,
}

var (
	typeHintRe = regexp.MustCompile(`def\s+\w+\([^)]*:\s*\w|->\s*\w`)
	commentRe  = regexp.MustCompile(`(?m)#\s*\S{3,}`)
)

// AxisScores builds the per-trial axis map from the raw response, the
// extracted code, and the sandbox result. Efficiency and stability are
// filled in later: efficiency by the orchestrator from throughput,
// stability across trials.
func AxisScores(task tasks.Task, raw, code string, res Result) map[string]float64 {
	axes := map[string]float64{
		types.AxisCorrectness: res.Correctness,
		types.AxisComplexity:  0,
		types.AxisCodeQuality: 0,
		types.AxisStability:   0,
		types.AxisFormat:      FormatScore(raw, code),
		types.AxisEfficiency:  0,
		types.AxisEdgeCases:   edgeCases(res.Correctness),
		types.AxisDebugging:   debugging(res.Correctness, task.Type),
		types.AxisSafety:      SafetyScore(code),
	}
	if res.Parsed && res.SymbolFound {
		axes[types.AxisComplexity] = complexityByDifficulty[task.Difficulty]
		axes[types.AxisCodeQuality] = CodeQuality(code)
	}
	return axes
}

func edgeCases(correctness float64) float64 {
	bonus := 0.0
	if correctness >= 0.95 {
		bonus = 1.0
	}
	return 0.8*correctness + 0.2*bonus
}

func debugging(correctness float64, taskType string) float64 {
	if taskType == tasks.TypeDebug {
		return correctness
	}
	if v := correctness + 0.05; v < 1 {
		return v
	}
	return 1
}

// CodeQuality sums lightweight signals into [0,1]: length sanity,
// absence of banned calls, idiomatic structure, type hints, a non-trivial
// comment, and an explicit return; small deductions for excessive length,
// global, and lambda.
func CodeQuality(code string) float64 {
	lines := nonEmptyLines(code)
	score := 0.0

	if n := len(lines); n >= 2 && n <= 60 {
		score += 0.25
	} else if n > 0 {
		score += 0.10
	}
	if SafetyScore(code) == 1.0 {
		score += 0.20
	}
	if strings.Contains(code, "for ") || strings.Contains(code, "while ") ||
		strings.Contains(code, "if ") {
		score += 0.15
	}
	if typeHintRe.MatchString(code) {
		score += 0.15
	}
	if commentRe.MatchString(code) {
		score += 0.10
	}
	if strings.Contains(code, "return ") || strings.Contains(code, "return\n") {
		score += 0.15
	}

	if len(code) > 2500 {
		score -= 0.10
	}
	if strings.Contains(code, "global ") {
		score -= 0.10
	}
	if strings.Contains(code, "lambda") {
		score -= 0.05
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func nonEmptyLines(code string) []string {
	var out []string
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
