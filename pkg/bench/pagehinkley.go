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

// Page-Hinkley parameters tuned for score series normalised to [0,1].
const (
	PageHinkleyDelta  = 0.005
	PageHinkleyLambda = 0.5
)

// PageHinkleyStat accumulates the downward-drift Page-Hinkley statistic
// over a score series (0..100 scale, oldest first): the cumulative
// deviation below the running mean, floored at zero. The same statistic
// doubles as the persisted cusum value.
func PageHinkleyStat(scores []float64, delta float64) float64 {
	var sum, g, peak float64
	for i, s := range scores {
		x := s / 100
		sum += x
		mean := sum / float64(i+1)
		g += mean - x - delta
		if g < 0 {
			g = 0
		}
		if g > peak {
			peak = g
		}
	}
	return peak
}

// PageHinkley reports whether the drift statistic exceeds lambda.
func PageHinkley(scores []float64, delta, lambda float64) bool {
	if len(scores) < 2 {
		return false
	}
	return PageHinkleyStat(scores, delta) > lambda
}
