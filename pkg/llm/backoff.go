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
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetrierConfig configures the exponential-backoff retrier.
type RetrierConfig struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Default: 2.
	MaxRetries int

	// BaseDelay is the delay before the first retry; it doubles each
	// attempt. Default: 500ms.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth. Default: 8s.
	MaxDelay time.Duration

	// Jitter is the upper bound of the uniform random addition to each
	// delay. Default: 200ms.
	Jitter time.Duration

	Logger *zap.Logger
}

// DefaultRetrierConfig returns the benchmark retry policy:
// min(8s, 500ms·2^attempt) + uniform(0, 200ms), at most 2 retries.
func DefaultRetrierConfig() RetrierConfig {
	return RetrierConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		Jitter:     200 * time.Millisecond,
		Logger:     zap.NewNop(),
	}
}

// Retrier retries retryable provider failures with exponential backoff and
// jitter. Non-retryable errors return immediately.
type Retrier struct {
	config RetrierConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetrier creates a Retrier, filling zero config fields with defaults.
func NewRetrier(config RetrierConfig) *Retrier {
	def := DefaultRetrierConfig()
	if config.MaxRetries == 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = def.BaseDelay
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.Jitter == 0 {
		config.Jitter = def.Jitter
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Retrier{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Do invokes call, retrying per the policy. The final error is the last
// attempt's error.
func (r *Retrier) Do(ctx context.Context, call func(context.Context) (*ChatResult, error)) (*ChatResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delay(attempt - 1)
			r.config.Logger.Debug("retrying provider call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		providerErrors.WithLabelValues(errorClass(err)).Inc()
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// delay computes min(MaxDelay, BaseDelay·2^attempt) + uniform(0, Jitter).
func (r *Retrier) delay(attempt int) time.Duration {
	d := r.config.BaseDelay << uint(attempt)
	if d > r.config.MaxDelay || d <= 0 {
		d = r.config.MaxDelay
	}
	r.mu.Lock()
	jitter := time.Duration(r.rng.Int63n(int64(r.config.Jitter)))
	r.mu.Unlock()
	return d + jitter
}
