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

// Package factory constructs the provider registry from configured
// credentials. A vendor with no keys gets no adapter: the orchestrator
// observes the gap and skips the vendor's models rather than failing.
package factory

import (
	"github.com/driftbench/driftbench/pkg/llm"
	"github.com/driftbench/driftbench/pkg/llm/anthropic"
	"github.com/driftbench/driftbench/pkg/llm/gemini"
	"github.com/driftbench/driftbench/pkg/llm/openai"
	"github.com/driftbench/driftbench/pkg/llm/openaicompat"
	"github.com/driftbench/driftbench/pkg/types"
)

// Entry pairs an adapter with its credential pool.
type Entry struct {
	Provider llm.Provider
	Keys     *llm.KeyPool
}

// Registry maps vendors to constructed adapters. Immutable after build.
type Registry struct {
	entries map[types.Vendor]Entry
}

// Config holds the per-vendor credential lists. Empty lists are read from
// the environment using the vendor's conventional variable names.
type Config struct {
	Keys map[types.Vendor][]string
}

// envPrefixes maps vendors to their env credential prefixes.
// GEMINI_API_KEY wins over GOOGLE_API_KEY when both are set.
var envPrefixes = map[types.Vendor][]string{
	types.VendorOpenAI:    {"OPENAI"},
	types.VendorAnthropic: {"ANTHROPIC"},
	types.VendorGemini:    {"GEMINI", "GOOGLE"},
	types.VendorXAI:       {"XAI"},
	types.VendorDeepSeek:  {"DEEPSEEK"},
	types.VendorKimi:      {"KIMI"},
	types.VendorGLM:       {"GLM"},
}

var compatBaseURLs = map[types.Vendor]string{
	types.VendorXAI:      openaicompat.XAIBaseURL,
	types.VendorDeepSeek: openaicompat.DeepSeekBaseURL,
	types.VendorKimi:     openaicompat.KimiBaseURL,
	types.VendorGLM:      openaicompat.GLMBaseURL,
}

// NewRegistry builds adapters for every vendor with at least one key.
func NewRegistry(config Config) (*Registry, error) {
	r := &Registry{entries: make(map[types.Vendor]Entry)}

	for _, vendor := range types.AllVendors {
		pool := poolFor(vendor, config)
		if pool.Len() == 0 {
			continue
		}

		var provider llm.Provider
		switch vendor {
		case types.VendorOpenAI:
			provider = openai.NewClient(openai.Config{Keys: pool})
		case types.VendorAnthropic:
			provider = anthropic.NewClient(anthropic.Config{Keys: pool})
		case types.VendorGemini:
			provider = gemini.NewClient(gemini.Config{Keys: pool})
		default:
			client, err := openaicompat.NewClient(openaicompat.Config{
				Vendor:  string(vendor),
				Keys:    pool,
				BaseURL: compatBaseURLs[vendor],
			})
			if err != nil {
				return nil, err
			}
			provider = client
		}
		r.entries[vendor] = Entry{Provider: provider, Keys: pool}
	}
	return r, nil
}

func poolFor(vendor types.Vendor, config Config) *llm.KeyPool {
	if keys := config.Keys[vendor]; len(keys) > 0 {
		return llm.NewKeyPool(keys)
	}
	prefixes := envPrefixes[vendor]
	return llm.KeyPoolFromEnv(prefixes[0], prefixes[1:]...)
}

// Provider returns the adapter and key pool for vendor, or
// llm.ErrNoCredentials when none is configured.
func (r *Registry) Provider(vendor types.Vendor) (llm.Provider, *llm.KeyPool, error) {
	e, ok := r.entries[vendor]
	if !ok {
		return nil, nil, llm.ErrNoCredentials
	}
	return e.Provider, e.Keys, nil
}

// Vendors returns the vendors with configured adapters, in dispatch order.
func (r *Registry) Vendors() []types.Vendor {
	var out []types.Vendor
	for _, v := range types.AllVendors {
		if _, ok := r.entries[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Register installs or replaces an entry; used by tests and by the sweep
// command to inject stub providers.
func (r *Registry) Register(vendor types.Vendor, provider llm.Provider, keys *llm.KeyPool) {
	r.entries[vendor] = Entry{Provider: provider, Keys: keys}
}
