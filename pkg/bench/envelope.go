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
	"fmt"
	"hash/fnv"
	"strings"
)

// The batch timestamp is the single seed for task selection, symbol
// aliasing, and prompt-envelope rotation. Everything derives from
// SeedFromTimestamp; orchestration never re-reads the clock.

// SeedFromTimestamp hashes a batch timestamp into the batch seed.
func SeedFromTimestamp(batchTS string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(batchTS))
	return h.Sum64()
}

func deriveHash(seed uint64, parts ...string) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d", seed)
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	return h.Sum64()
}

// SymbolAlias derives the batch-deterministic alias for a task's expected
// symbol. Rewriting the symbol per batch defeats provider-side response
// caching while keeping the task semantically identical.
func SymbolAlias(seed uint64, slug, symbol string) string {
	return fmt.Sprintf("%s_%04x", symbol, deriveHash(seed, slug)%0x10000)
}

// AliasPrompt rewrites every occurrence of the task's symbol in prompt
// with its batch alias.
func AliasPrompt(prompt, symbol, alias string) string {
	return strings.ReplaceAll(prompt, symbol, alias)
}

// Envelope rotation: two rule phrasings by three layout shapes. The pick
// is derived from the batch seed and the task slug so every sweep of a
// batch sees the same envelope.

var ruleVariants = []string{
	"Respond with a single Python function. Output only code, no explanation.",
	"Your answer must be exactly one Python function definition with no surrounding commentary.",
}

var layoutVariants = []func(rules, prompt string) string{
	func(rules, prompt string) string {
		return rules + "\n\n" + prompt
	},
	func(rules, prompt string) string {
		return "## Task\n" + prompt + "\n\n## Requirements\n" + rules
	},
	func(rules, prompt string) string {
		return prompt + "\n\n(" + rules + ")"
	},
}

// BuildPrompt wraps the aliased task prompt in the batch's envelope.
func BuildPrompt(seed uint64, slug, aliasedPrompt string) string {
	pick := deriveHash(seed, slug, "env")
	rules := ruleVariants[pick%uint64(len(ruleVariants))]
	layout := layoutVariants[(pick/uint64(len(ruleVariants)))%uint64(len(layoutVariants))]
	return layout(rules, aliasedPrompt)
}

// systemVariants rotate when a trial yields no usable code, nudging the
// model toward raw output without changing the task.
var systemVariants = []string{
	"You are a precise coding assistant. Reply with code only.",
	"You write production Python. Return only the requested function.",
	"Output the solution as plain Python source with no prose.",
}

// SystemVariant selects the system message for a given in-trial attempt.
func SystemVariant(attempt int) string {
	return systemVariants[attempt%len(systemVariants)]
}

// SelectTasks deterministically shuffles indices [0,total) by the batch
// seed and returns the first count. Two sweeps with the same batch
// timestamp select identical sets.
func SelectTasks(seed uint64, total, count int) []int {
	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	// Fisher-Yates driven by a splitmix64 stream off the batch seed.
	state := seed
	next := func() uint64 {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		return z ^ (z >> 31)
	}
	for i := total - 1; i > 0; i-- {
		j := int(next() % uint64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
	if count > total {
		count = total
	}
	return idx[:count]
}
