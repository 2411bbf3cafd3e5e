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
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbench/driftbench/pkg/tasks"
	"github.com/driftbench/driftbench/pkg/types"
)

const sampleSolution = "def reverse_words(s):\n    return ' '.join(reversed(s.split()))"

func TestExtractPrefersBlockWithSymbol(t *testing.T) {
	raw := "Here is a helper first:\n```python\ndef helper():\n    pass\n```\n" +
		"And the solution:\n```python\n" + sampleSolution + "\n```\nHope it helps!"
	code := Extract(raw, "reverse_words")
	assert.Contains(t, code, "def reverse_words")
	assert.NotContains(t, code, "helper")
}

func TestExtractFallsBackToLongestBlock(t *testing.T) {
	raw := "```\nx = 1\n```\nthen\n```python\ndef unrelated(a, b):\n    return a + b\n```"
	code := Extract(raw, "reverse_words")
	assert.Contains(t, code, "def unrelated")
}

func TestExtractSlicesFromFirstDef(t *testing.T) {
	raw := "Sure, here's the function you asked for.\n" + sampleSolution + "\nLet me know!"
	code := Extract(raw, "reverse_words")
	assert.Contains(t, code, "def reverse_words")
	assert.NotContains(t, code, "Sure")
}

func TestExtractEmptyResponse(t *testing.T) {
	assert.Empty(t, Extract("I can't help with that.", "reverse_words"))
}

func TestDefinesSymbol(t *testing.T) {
	assert.True(t, DefinesSymbol(sampleSolution, "reverse_words"))
	assert.True(t, DefinesSymbol("class Foo:\n    pass", "Foo"))
	assert.False(t, DefinesSymbol(sampleSolution, "reverse"))
	assert.False(t, DefinesSymbol("# reverse_words is below", "reverse_words"))
}

func TestFormatScore(t *testing.T) {
	plain := sampleSolution
	assert.Equal(t, 1.0, FormatScore(plain, plain))

	clean := "```python\n" + sampleSolution + "\n```"
	assert.Equal(t, 1.0, FormatScore(clean, sampleSolution))

	prose := "Here you go:\n" + clean + "\nEnjoy."
	assert.Equal(t, 0.8, FormatScore(prose, sampleSolution))

	assert.Equal(t, 0.3, FormatScore("no code at all", ""))
}

func TestSafetyScore(t *testing.T) {
	assert.Equal(t, 1.0, SafetyScore(sampleSolution))
	assert.Equal(t, 0.2, SafetyScore("import subprocess\nsubprocess.run(['ls'])"))
	assert.Equal(t, 0.2, SafetyScore("def f():\n    return eval('1+1')"))
}

func TestCodeQualityRange(t *testing.T) {
	q := CodeQuality(sampleSolution)
	assert.Greater(t, q, 0.4)
	assert.LessOrEqual(t, q, 1.0)

	hinted := "def f(xs: list) -> int:\n    # sum of values\n    return sum(xs)"
	assert.Greater(t, CodeQuality(hinted), CodeQuality(sampleSolution))

	assert.Less(t, CodeQuality("global x\nx = lambda: 1"), 0.5)
}

func TestAxisScores(t *testing.T) {
	task, ok := tasks.BySlug("reverse-words")
	require.True(t, ok)

	res := Result{Correctness: 1.0, Passed: 4, Total: 4, Parsed: true, SymbolFound: true}
	axes := AxisScores(task, sampleSolution, sampleSolution, res)

	require.NoError(t, types.ValidateAxes(axes))
	assert.Equal(t, 1.0, axes[types.AxisCorrectness])
	assert.Equal(t, 0.3, axes[types.AxisComplexity])
	assert.InDelta(t, 1.0, axes[types.AxisEdgeCases], 1e-9)
	// Non-debug task gets the +0.05 bump capped at 1.
	assert.Equal(t, 1.0, axes[types.AxisDebugging])
	assert.Equal(t, 0.0, axes[types.AxisEfficiency])
}

func TestAxisScoresOnFailure(t *testing.T) {
	task, ok := tasks.BySlug("fix-binary-search")
	require.True(t, ok)

	res := Result{Stage: "compile", Detail: "invalid syntax"}
	axes := AxisScores(task, "garbage", "garbage", res)
	assert.Equal(t, 0.0, axes[types.AxisCorrectness])
	assert.Equal(t, 0.0, axes[types.AxisComplexity])
	assert.Equal(t, 0.0, axes[types.AxisCodeQuality])
	// Debug-type tasks mirror correctness exactly.
	assert.Equal(t, 0.0, axes[types.AxisDebugging])
}

func TestHarnessSourceEmbedsLimitsAndCases(t *testing.T) {
	cases := []tasks.TestCase{{Input: "['a b']", Expected: "'b a'"}}
	src := harnessSource("/tmp/x/submission.py", "/tmp/x", "reverse_words", cases)

	assert.Contains(t, src, "RLIMIT_CPU, (2, 2)")
	assert.Contains(t, src, "RLIMIT_AS")
	assert.Contains(t, src, "signal.alarm(5)")
	assert.Contains(t, src, `"subprocess"`)
	assert.Contains(t, src, "ast.literal_eval")
	assert.Contains(t, src, `"['a b']"`)
}

func TestParseReportSkipsStrayOutput(t *testing.T) {
	out := []byte("debug print from submission\n{\"ok\": true, \"passed\": 3, \"total\": 4}\n")
	report, ok := parseReport(out)
	require.True(t, ok)
	assert.True(t, report.OK)
	assert.Equal(t, 3, report.Passed)

	_, ok = parseReport([]byte("nothing useful"))
	assert.False(t, ok)
}

func TestEvaluatorStaticFailuresAvoidSubprocess(t *testing.T) {
	e := NewEvaluator("")
	cases := []tasks.TestCase{{Input: "[1]", Expected: "1"}}

	res := e.Evaluate(context.Background(), "", "f", cases)
	assert.Equal(t, "compile", res.Stage)
	assert.Zero(t, res.Correctness)

	res = e.Evaluate(context.Background(), "def g():\n    pass", "f", cases)
	assert.Equal(t, "symbol", res.Stage)
	assert.False(t, res.SymbolFound)
}

func TestEvaluatorKillsInfiniteLoop(t *testing.T) {
	if _, err := exec.LookPath(DefaultPython); err != nil {
		t.Skip("python3 not installed")
	}
	e := NewEvaluator("")
	code := "def spin(x):\n    while True:\n        pass"
	cases := []tasks.TestCase{{Input: "1", Expected: "1"}}

	start := time.Now()
	res := e.Evaluate(context.Background(), code, "spin", cases)

	// The CPU rlimit kills the loop long before the hard timeout.
	assert.Less(t, time.Since(start), hardTimeout+2*time.Second)
	assert.Zero(t, res.Correctness)
	assert.Equal(t, "run", res.Stage)
}

func TestEvaluatorEndToEnd(t *testing.T) {
	if _, err := exec.LookPath(DefaultPython); err != nil {
		t.Skip("python3 not installed")
	}
	task, ok := tasks.BySlug("reverse-words")
	require.True(t, ok)

	e := NewEvaluator("")
	res := e.Evaluate(context.Background(), task.Canonical, task.ExpectedSymbol, task.TestCases)
	require.Empty(t, res.Stage, res.Detail)
	assert.Equal(t, 1.0, res.Correctness)
	assert.Equal(t, len(task.TestCases), res.Total)
}
