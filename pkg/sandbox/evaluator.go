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
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/driftbench/driftbench/internal/log"
	"github.com/driftbench/driftbench/pkg/tasks"
)

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// hardTimeout backstops the in-harness alarm in case the subprocess
// never reaches it.
const hardTimeout = 8 * time.Second

// Result is the outcome of one sandboxed evaluation. Failures never
// propagate as errors: compile failures, timeouts, and missing symbols
// all land here with Correctness 0.
type Result struct {
	Correctness float64
	Passed      int
	Total       int
	Parsed      bool
	SymbolFound bool
	Stage       string // compile | symbol | run | "" on success
	Detail      string
}

// Evaluator runs submissions through the Python harness.
type Evaluator struct {
	python string
}

// NewEvaluator creates an evaluator using the given interpreter, or
// DefaultPython when empty.
func NewEvaluator(python string) *Evaluator {
	if python == "" {
		python = DefaultPython
	}
	return &Evaluator{python: python}
}

type harnessReport struct {
	OK     bool   `json:"ok"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
	Passed int    `json:"passed"`
	Total  int    `json:"total"`
}

// Evaluate executes code against the given cases expecting symbol to be
// defined. The static symbol check runs before any subprocess is spawned.
func (e *Evaluator) Evaluate(ctx context.Context, code, symbol string, cases []tasks.TestCase) Result {
	res := Result{Total: len(cases)}
	if strings.TrimSpace(code) == "" {
		res.Stage = "compile"
		res.Detail = "empty submission"
		return res
	}
	if !DefinesSymbol(code, symbol) {
		res.Stage = "symbol"
		res.Detail = "missing " + symbol
		return res
	}
	res.SymbolFound = true

	dir, err := os.MkdirTemp("", "bench-sandbox-")
	if err != nil {
		res.Stage = "run"
		res.Detail = err.Error()
		return res
	}
	defer func() { _ = os.RemoveAll(dir) }()

	submission := filepath.Join(dir, "submission.py")
	harness := filepath.Join(dir, "harness.py")
	if err := os.WriteFile(submission, []byte(code), 0o600); err != nil {
		res.Stage = "run"
		res.Detail = err.Error()
		return res
	}
	src := harnessSource(submission, dir, symbol, cases)
	if err := os.WriteFile(harness, []byte(src), 0o600); err != nil {
		res.Stage = "run"
		res.Detail = err.Error()
		return res
	}

	runCtx, cancel := context.WithTimeout(ctx, hardTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, e.python, harness)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		if runCtx.Err() != nil || strings.Contains(err.Error(), "alarm") {
			sandboxTimeouts.Inc()
		}
		res.Stage = "run"
		res.Detail = err.Error()
		log.Debug("sandbox subprocess failed", zap.String("symbol", symbol), zap.Error(err))
		return res
	}

	report, ok := parseReport(out)
	if !ok {
		res.Stage = "run"
		res.Detail = "no harness report"
		return res
	}
	if !report.OK {
		res.Stage = report.Stage
		res.Detail = report.Error
		res.SymbolFound = report.Stage != "symbol"
		res.Parsed = report.Stage != "compile"
		return res
	}

	res.Parsed = true
	res.Passed = report.Passed
	res.Total = report.Total
	if report.Total > 0 {
		res.Correctness = float64(report.Passed) / float64(report.Total)
	}
	return res
}

// parseReport scans output lines backwards for the harness JSON report,
// tolerating any stray prints the submission produced.
func parseReport(out []byte) (harnessReport, bool) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		var report harnessReport
		if err := json.Unmarshal([]byte(lines[i]), &report); err == nil {
			return report, true
		}
	}
	return harnessReport{}, false
}
