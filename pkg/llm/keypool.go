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
	"fmt"
	"os"
)

// KeyPool is a per-provider ordered list of credentials. Trial i of a task
// selects key i mod Len(). Failures never evict a key; overload handling
// is per-model via the OverloadTracker.
//
// The pool is immutable after construction, so it is safe for concurrent
// readers without locking.
type KeyPool struct {
	keys []string
}

// NewKeyPool builds a pool from an explicit key list, dropping empties.
func NewKeyPool(keys []string) *KeyPool {
	var clean []string
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	return &KeyPool{keys: clean}
}

// KeyPoolFromEnv reads PREFIX_API_KEY, PREFIX_API_KEY_2, PREFIX_API_KEY_3…
// stopping at the first unset suffix. extraPrefixes are checked the same
// way after the primary (GEMINI_API_KEY falls back to GOOGLE_API_KEY).
func KeyPoolFromEnv(prefix string, extraPrefixes ...string) *KeyPool {
	var keys []string
	for _, p := range append([]string{prefix}, extraPrefixes...) {
		keys = append(keys, envKeySeries(p)...)
		if len(keys) > 0 {
			break
		}
	}
	return NewKeyPool(keys)
}

func envKeySeries(prefix string) []string {
	var keys []string
	if k := os.Getenv(prefix + "_API_KEY"); k != "" {
		keys = append(keys, k)
	} else {
		return nil
	}
	for i := 2; ; i++ {
		k := os.Getenv(fmt.Sprintf("%s_API_KEY_%d", prefix, i))
		if k == "" {
			break
		}
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of credentials.
func (p *KeyPool) Len() int {
	return len(p.keys)
}

// Key returns credential i mod Len. Panics on an empty pool; callers must
// check Len before dispatching.
func (p *KeyPool) Key(i int) string {
	if len(p.keys) == 0 {
		panic("llm: Key on empty KeyPool")
	}
	if i < 0 {
		i = -i
	}
	return p.keys[i%len(p.keys)]
}
