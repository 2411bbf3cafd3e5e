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
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// overloadThreshold is the consecutive-failure count that activates
	// the skip window.
	overloadThreshold = 3

	overloadBaseSkip = 5 * time.Minute
	overloadMaxSkip  = 60 * time.Minute
)

type overloadEntry struct {
	consecutiveFailures int
	skipUntil           time.Time
	reason              string
}

// OverloadTracker tracks persistent provider overload per model. Only
// 429/503 and "overloaded" failures count; after 3 consecutive such
// failures the model is skipped for min(60m, 5·2^(n−2) minutes). Any
// success clears the entry.
type OverloadTracker struct {
	mu      sync.Mutex
	entries map[string]*overloadEntry
	logger  *zap.Logger
	now     func() time.Time
}

// NewOverloadTracker creates an empty tracker.
func NewOverloadTracker(logger *zap.Logger) *OverloadTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverloadTracker{
		entries: make(map[string]*overloadEntry),
		logger:  logger,
		now:     time.Now,
	}
}

// RecordFailure notes a failed call for model. Non-overload errors reset
// nothing and add nothing; they simply don't count.
func (t *OverloadTracker) RecordFailure(model string, err error) {
	if !IsOverload(err) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[model]
	if e == nil {
		e = &overloadEntry{}
		t.entries[model] = e
	}
	e.consecutiveFailures++
	e.reason = err.Error()

	if e.consecutiveFailures >= overloadThreshold {
		skip := overloadBaseSkip << uint(e.consecutiveFailures-2)
		if skip > overloadMaxSkip || skip <= 0 {
			skip = overloadMaxSkip
		}
		e.skipUntil = t.now().Add(skip)
		t.logger.Warn("model entering overload skip window",
			zap.String("model", model),
			zap.Int("consecutive_failures", e.consecutiveFailures),
			zap.Duration("skip", skip),
			zap.String("reason", e.reason))
	}
}

// RecordSuccess clears the tracker entry for model.
func (t *OverloadTracker) RecordSuccess(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, model)
}

// ShouldSkip reports whether model is inside its skip window, along with
// the window end and the recorded reason.
func (t *OverloadTracker) ShouldSkip(model string) (bool, time.Time, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[model]
	if e == nil || e.skipUntil.IsZero() {
		return false, time.Time{}, ""
	}
	if t.now().After(e.skipUntil) {
		return false, e.skipUntil, e.reason
	}
	return true, e.skipUntil, e.reason
}
