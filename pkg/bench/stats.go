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
	"sort"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value, averaging the two central values for
// even lengths. 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDev returns the sample standard deviation, 0 for fewer than two values.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tTable holds two-sided 95% Student-t critical values by degrees of
// freedom. Values beyond the table fall back to the last entry; df > 100
// uses the normal approximation.
var tTable = map[int]float64{
	1: 12.706, 2: 4.303, 3: 3.182, 4: 2.776, 5: 2.571,
	6: 2.447, 7: 2.365, 8: 2.306, 9: 2.262, 10: 2.228,
	11: 2.201, 12: 2.179, 13: 2.160, 14: 2.145, 15: 2.131,
	16: 2.120, 17: 2.110, 18: 2.101, 19: 2.093, 20: 2.086,
	25: 2.060, 30: 2.042, 40: 2.021, 50: 2.009, 60: 2.000,
	80: 1.990, 100: 1.984,
}

func tCritical(df int) float64 {
	if df < 1 {
		return 0
	}
	if t, ok := tTable[df]; ok {
		return t
	}
	if df > 100 {
		return 1.96
	}
	// Walk down to the nearest tabulated df below.
	for d := df; d >= 1; d-- {
		if t, ok := tTable[d]; ok {
			return t
		}
	}
	return 1.96
}

// ConfidenceInterval returns a 95% Student-t interval around the mean of
// values plus the standard error. One sample emits a conservative ±5;
// zero samples emit a zero interval.
func ConfidenceInterval(values []float64) (lower, upper, stderr float64) {
	n := len(values)
	switch n {
	case 0:
		return 0, 0, 0
	case 1:
		return values[0] - 5, values[0] + 5, 5
	}
	mean := Mean(values)
	stderr = StdDev(values) / math.Sqrt(float64(n))
	margin := tCritical(n-1) * stderr
	return mean - margin, mean + margin, stderr
}
