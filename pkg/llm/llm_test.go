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

package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		message   string
		retryable bool
	}{
		{"rate limited", 429, "too many requests", true},
		{"service unavailable", 503, "try later", true},
		{"internal error", 500, "boom", true},
		{"bad gateway", 502, "upstream", true},
		{"auth failure", 401, "invalid api key", false},
		{"unknown model", 404, "model not found", false},
		{"bad request", 400, "invalid payload", false},
		{"timeout message", 400, "request Timeout exceeded", true},
		{"overloaded message", 200, "Overloaded, please retry", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("test", tt.status, tt.message)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestIsOverload(t *testing.T) {
	assert.True(t, IsOverload(Classify("p", 429, "rate limit")))
	assert.True(t, IsOverload(Classify("p", 503, "unavailable")))
	assert.True(t, IsOverload(Classify("p", 500, "server overloaded")))
	assert.False(t, IsOverload(Classify("p", 500, "internal error")))
	assert.False(t, IsOverload(Classify("p", 400, "timeout")))
	assert.False(t, IsOverload(errors.New("plain error")))
}

func TestRetrierStopsOnFatal(t *testing.T) {
	r := NewRetrier(RetrierConfig{BaseDelay: time.Millisecond, Jitter: time.Microsecond})
	calls := 0
	_, err := r.Do(context.Background(), func(ctx context.Context) (*ChatResult, error) {
		calls++
		return nil, Classify("p", 401, "bad key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierRetriesTransient(t *testing.T) {
	r := NewRetrier(RetrierConfig{BaseDelay: time.Millisecond, Jitter: time.Microsecond})
	calls := 0
	result, err := r.Do(context.Background(), func(ctx context.Context) (*ChatResult, error) {
		calls++
		if calls < 3 {
			return nil, Classify("p", 503, "unavailable")
		}
		return &ChatResult{Text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "ok", result.Text)
}

func TestRetrierExhaustsAfterTwoRetries(t *testing.T) {
	r := NewRetrier(RetrierConfig{BaseDelay: time.Millisecond, Jitter: time.Microsecond})
	calls := 0
	_, err := r.Do(context.Background(), func(ctx context.Context) (*ChatResult, error) {
		calls++
		return nil, Classify("p", 429, "rate limit")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial + 2 retries
}

func TestKeyPoolRotation(t *testing.T) {
	pool := NewKeyPool([]string{"k0", "k1"})
	require.Equal(t, 2, pool.Len())

	// Trial i selects key i mod keyCount: 0,1,0,1,0.
	var got []string
	for i := 0; i < 5; i++ {
		got = append(got, pool.Key(i))
	}
	assert.Equal(t, []string{"k0", "k1", "k0", "k1", "k0"}, got)
}

func TestKeyPoolDropsEmpties(t *testing.T) {
	pool := NewKeyPool([]string{"", "k0", ""})
	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, "k0", pool.Key(7))
}

func TestKeyPoolFromEnv(t *testing.T) {
	t.Setenv("TESTVENDOR_API_KEY", "primary")
	t.Setenv("TESTVENDOR_API_KEY_2", "secondary")

	pool := KeyPoolFromEnv("TESTVENDOR")
	require.Equal(t, 2, pool.Len())
	assert.Equal(t, "primary", pool.Key(0))
	assert.Equal(t, "secondary", pool.Key(1))
}

func TestOverloadTrackerThreshold(t *testing.T) {
	tracker := NewOverloadTracker(nil)
	overload := Classify("p", 429, "rate limit")

	tracker.RecordFailure("m", overload)
	tracker.RecordFailure("m", overload)
	skip, _, _ := tracker.ShouldSkip("m")
	assert.False(t, skip, "two failures should not trigger the skip window")

	tracker.RecordFailure("m", overload)
	skip, until, reason := tracker.ShouldSkip("m")
	assert.True(t, skip)
	assert.NotEmpty(t, reason)
	// n=3: min(60m, 5·2^1) = 10 minutes.
	assert.InDelta(t, 10*time.Minute, time.Until(until), float64(time.Minute))
}

func TestOverloadTrackerIgnoresNonOverload(t *testing.T) {
	tracker := NewOverloadTracker(nil)
	timeout := Classify("p", 500, "internal error")
	for i := 0; i < 5; i++ {
		tracker.RecordFailure("m", timeout)
	}
	skip, _, _ := tracker.ShouldSkip("m")
	assert.False(t, skip)
}

func TestOverloadTrackerSuccessClears(t *testing.T) {
	tracker := NewOverloadTracker(nil)
	overload := Classify("p", 503, "overloaded")
	for i := 0; i < 3; i++ {
		tracker.RecordFailure("m", overload)
	}
	skip, _, _ := tracker.ShouldSkip("m")
	require.True(t, skip)

	tracker.RecordSuccess("m")
	skip, _, _ = tracker.ShouldSkip("m")
	assert.False(t, skip)
}

func TestCheckFair(t *testing.T) {
	fair := ChatRequest{Model: "m", Temperature: FairTemperature, MaxTokens: FairMaxTokens}
	require.NoError(t, CheckFair(fair, FairMaxTokens))

	hot := fair
	hot.Temperature = 0.7
	assert.Error(t, CheckFair(hot, FairMaxTokens))

	long := fair
	long.MaxTokens = 4000
	assert.Error(t, CheckFair(long, FairMaxTokens))
	// Phase 2 raises the cap explicitly.
	assert.NoError(t, CheckFair(long, 4000))

	seeded := fair
	seeded.Extra = map[string]any{"seed": 42}
	assert.Error(t, CheckFair(seeded, FairMaxTokens))

	unknown := fair
	unknown.Extra = map[string]any{"custom_knob": true}
	assert.Error(t, CheckFair(unknown, FairMaxTokens))
}

func TestEstimateTokensFallback(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Greater(t, EstimateTokens("def solve(xs):\n    return sorted(xs)"), 0)
}

func TestPromptTokensOrEstimate(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "Reply with code only."},
		{Role: "user", Content: "def solve(xs):\n    return sorted(xs)"},
	}
	assert.Equal(t, 120, PromptTokensOrEstimate(120, msgs))
	// Missing usage falls back to an estimate over the request messages.
	assert.Greater(t, PromptTokensOrEstimate(0, msgs), 0)
	assert.Equal(t, 0, PromptTokensOrEstimate(0, nil))
}

func TestFirstNonEmptyAndFirstPositive(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
	assert.Equal(t, 7, FirstPositive(0, 7, 3))
	assert.Equal(t, 0, FirstPositive(0, 0))
}
