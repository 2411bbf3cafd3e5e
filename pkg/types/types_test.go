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

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range AxisWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestAxisNamesMatchWeights(t *testing.T) {
	require.Len(t, AxisNames, len(AxisWeights))
	for _, name := range AxisNames {
		_, ok := AxisWeights[name]
		assert.True(t, ok, "axis %q has no weight", name)
	}
}

func TestValidateAxes(t *testing.T) {
	axes := PlaceholderAxes()
	require.NoError(t, ValidateAxes(axes))

	delete(axes, AxisSafety)
	assert.Error(t, ValidateAxes(axes))

	axes[AxisSafety] = 1.0
	axes["latency"] = 0.5
	assert.Error(t, ValidateAxes(axes))
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel(ScoreProviderUnavailable))
	assert.True(t, IsSentinel(ScoreAllTasksFailed))
	assert.True(t, IsSentinel(ScoreCanaryFailed))
	assert.False(t, IsSentinel(0))
	assert.False(t, IsSentinel(77.5))
	assert.False(t, IsSentinel(-1))
}

func TestScoreValidate(t *testing.T) {
	now := time.Now()

	valid := &Score{ModelID: 1, TS: now, Suite: SuiteHourly, StupidScore: 82.4}
	valid.Axes = map[string]float64{}
	for _, name := range AxisNames {
		valid.Axes[name] = 0.9
	}
	require.NoError(t, valid.Validate())

	sentinel := &Score{ModelID: 1, TS: now, Suite: SuiteHourly, StupidScore: ScoreAllTasksFailed, Axes: PlaceholderAxes()}
	require.NoError(t, sentinel.Validate())

	badSentinel := &Score{StupidScore: ScoreCanaryFailed, Axes: valid.Axes}
	assert.Error(t, badSentinel.Validate())

	outOfRange := &Score{StupidScore: 140, Axes: valid.Axes}
	assert.Error(t, outOfRange.Validate())

	missingAxis := &Score{StupidScore: 50, Axes: map[string]float64{AxisCorrectness: 1}}
	assert.Error(t, missingAxis.Validate())
}
