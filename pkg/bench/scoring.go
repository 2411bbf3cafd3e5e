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
	"math"

	"github.com/driftbench/driftbench/pkg/types"
)

// CohortCentre is the prior a low-sample score is shrunk toward.
const CohortCentre = 70.0

// Baseline is the per-axis historical distribution used for the variance
// adjustment. Valid only when built from at least MinBaselineSamples rows.
type Baseline struct {
	Mean    map[string]float64
	Std     map[string]float64
	Samples int
}

// MinBaselineSamples is the sample count below which a model is
// "calibrating": no variance adjustment, and a flat −2 penalty.
const MinBaselineSamples = 10

// NewBaseline computes per-axis means and stds from historical axis maps.
// Stds are floored at 1e-6 so the variance adjustment never divides by zero.
func NewBaseline(history []map[string]float64) *Baseline {
	if len(history) == 0 {
		return &Baseline{Samples: 0}
	}
	b := &Baseline{
		Mean:    make(map[string]float64, len(types.AxisNames)),
		Std:     make(map[string]float64, len(types.AxisNames)),
		Samples: len(history),
	}
	for _, name := range types.AxisNames {
		series := make([]float64, 0, len(history))
		for _, axes := range history {
			if v, ok := axes[name]; ok {
				series = append(series, v)
			}
		}
		b.Mean[name] = Mean(series)
		b.Std[name] = math.Max(StdDev(series), 1e-6)
	}
	return b
}

// Calibrating reports whether the baseline has too few samples to trust.
func (b *Baseline) Calibrating() bool {
	return b == nil || b.Samples < MinBaselineSamples
}

// Calibration is the operator-set linear post-transform y = Scale·x + Lift
// clamped to [Min, Max]. Sentinels pass through untouched.
type Calibration struct {
	Scale float64
	Lift  float64
	Min   float64
	Max   float64
}

// DefaultCalibration is the identity transform.
func DefaultCalibration() Calibration {
	return Calibration{Scale: 1, Lift: 0, Min: 0, Max: 100}
}

// Apply runs the calibration. Sentinel scores (<0) are returned as-is.
func (c Calibration) Apply(score float64) float64 {
	if score < 0 {
		return score
	}
	return Clamp(c.Scale*score+c.Lift, c.Min, c.Max)
}

// CalculateScore composes the final score from axis means. successRate
// is successful/selected tasks for the sweep. Pure in its inputs:
// identical arguments always produce the identical score.
func CalculateScore(axes map[string]float64, baseline *Baseline, successfulTasks int, successRate float64, calibration Calibration) float64 {
	if err := types.ValidateAxes(axes); err != nil {
		panic("bench: " + err.Error())
	}

	// Gentle decay of imperfection, then axis-specific nudges.
	powered := make(map[string]float64, len(axes))
	for name, a := range axes {
		powered[name] = math.Pow(Clamp(a, 0, 1), 1.4)
	}
	if axes[types.AxisCorrectness] < 0.95 {
		powered[types.AxisCorrectness] *= 0.85
	}
	if axes[types.AxisCodeQuality] < 0.6 {
		powered[types.AxisCodeQuality] *= 0.95
	}

	base := 0.0
	for name, w := range types.AxisWeights {
		base += w * powered[name]
	}
	base *= 100
	base = math.Pow(base/100, 1.2) * 100

	// Variance adjustment against the historical baseline.
	if baseline != nil && !baseline.Calibrating() {
		adj := 0.0
		for name, w := range types.AxisWeights {
			z := (axes[name] - baseline.Mean[name]) / baseline.Std[name]
			adj += w * Clamp(z, -3, 3)
		}
		base += Clamp(adj, -4, 3)
	}

	// Quality gates: hard deductions, cumulative.
	c := axes[types.AxisCorrectness]
	if c < 0.90 {
		base -= 5
	}
	if c < 0.70 {
		base -= 6
	}
	if c < 0.50 {
		base -= 8
	}
	q := axes[types.AxisCodeQuality]
	if q < 0.60 {
		base -= 6
	}
	if q < 0.40 {
		base -= 12
	}
	if axes[types.AxisComplexity] < 0.30 {
		base -= 8
	}

	base -= 6 * (1 - Clamp(successRate, 0, 1))
	if baseline.Calibrating() {
		base -= 2
	}

	// Bayesian shrink toward the cohort centre on thin evidence.
	if successfulTasks < 5 {
		lambda := float64(successfulTasks) / float64(successfulTasks+1)
		base = lambda*base + (1-lambda)*CohortCentre
	}

	return calibration.Apply(Clamp(base, 0, 100))
}
