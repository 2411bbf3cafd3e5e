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

package drift

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/driftbench/driftbench/internal/log"
	"github.com/driftbench/driftbench/pkg/bench"
	"github.com/driftbench/driftbench/pkg/types"
)

const (
	changeWindowSize  = 5
	changeLookback    = 7 * 24 * time.Hour
	changeMinDelta    = 8.0
	axisChangeMinFrac = 0.10
)

// DetectChangePoints slides adjacent 5-score windows over the last seven
// days of hourly scores and records statistically significant breaks.
// The store suppresses candidates within ±1h of an existing row, so
// re-running detection over unchanged history inserts nothing. Returns
// the change points actually written.
func (c *Computer) DetectChangePoints(ctx context.Context, modelID int64) ([]types.ChangePoint, error) {
	scores, err := c.store.ScoresSince(ctx, modelID, types.SuiteHourly,
		time.Now().UTC().Add(-changeLookback))
	if err != nil {
		return nil, err
	}
	if len(scores) < 2*changeWindowSize {
		return nil, nil
	}

	var written []types.ChangePoint
	for i := 0; i+2*changeWindowSize <= len(scores); i++ {
		before := scores[i : i+changeWindowSize]
		after := scores[i+changeWindowSize : i+2*changeWindowSize]
		cp := evaluateWindows(before, after)
		if cp == nil {
			continue
		}
		cp.ModelID = modelID
		inserted, err := c.store.InsertChangePoint(ctx, cp)
		if err != nil {
			return written, err
		}
		if inserted {
			log.Info("change point detected",
				zap.Int64("modelId", modelID),
				zap.String("changeType", cp.ChangeType),
				zap.Float64("delta", cp.Delta),
				zap.Strings("affectedAxes", cp.AffectedAxes))
			written = append(written, *cp)
		}
	}
	return written, nil
}

// evaluateWindows applies the three significance tests to one window
// pair: mean gap above threshold, non-overlapping confidence intervals,
// and a gap exceeding twice the mean CI width.
func evaluateWindows(before, after []types.Score) *types.ChangePoint {
	bVals := scoreValues(before)
	aVals := scoreValues(after)
	bMean, aMean := bench.Mean(bVals), bench.Mean(aVals)
	delta := aMean - bMean
	if math.Abs(delta) <= changeMinDelta {
		return nil
	}

	bLo, bHi, _ := bench.ConfidenceInterval(bVals)
	aLo, aHi, _ := bench.ConfidenceInterval(aVals)
	if bHi >= aLo && aHi >= bLo { // intervals overlap
		return nil
	}
	meanWidth := ((bHi - bLo) + (aHi - aLo)) / 2
	if math.Abs(delta) <= 2*meanWidth {
		return nil
	}

	affected := affectedAxes(before, after)
	changeType := types.ChangeShift
	switch {
	case delta < 0:
		changeType = types.ChangeDegradation
	case delta > 0:
		changeType = types.ChangeImprovement
	}

	significance := math.Abs(delta) / math.Max(meanWidth, 1e-6)
	return &types.ChangePoint{
		DetectedAt:     after[0].TS,
		FromScore:      bMean,
		ToScore:        aMean,
		Delta:          delta,
		Significance:   significance,
		ChangeType:     changeType,
		AffectedAxes:   affected,
		SuspectedCause: suspectCause(affected),
	}
}

// affectedAxes lists axes whose window mean moved by more than 10%.
func affectedAxes(before, after []types.Score) []string {
	var out []string
	for _, name := range types.AxisNames {
		bMean := axisMean(before, name)
		aMean := axisMean(after, name)
		if bMean <= 0 {
			if aMean > axisChangeMinFrac {
				out = append(out, name)
			}
			continue
		}
		if math.Abs(aMean-bMean)/bMean > axisChangeMinFrac {
			out = append(out, name)
		}
	}
	return out
}

func axisMean(scores []types.Score, name string) float64 {
	var sum float64
	var n int
	for _, sc := range scores {
		if v, ok := sc.Axes[name]; ok && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// suspectCause infers a likely root cause from which axes moved.
func suspectCause(affected []string) string {
	has := make(map[string]bool, len(affected))
	for _, a := range affected {
		has[a] = true
	}
	switch {
	case has[types.AxisSafety] && !has[types.AxisCorrectness]:
		return "safety tuning"
	case has[types.AxisCorrectness] && has[types.AxisComplexity]:
		return "model update"
	case has[types.AxisEfficiency] && !has[types.AxisCorrectness]:
		return "performance issue"
	case has[types.AxisFormat]:
		return "output-format change"
	default:
		return "unknown"
	}
}
