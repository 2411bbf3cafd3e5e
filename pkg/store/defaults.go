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

package store

import (
	"context"
	"fmt"

	"github.com/driftbench/driftbench/pkg/types"
)

// defaultModels is the whitelist benchmarked out of the box. Operators
// extend it through UpsertModel and the show_in_rankings flag.
var defaultModels = []types.Model{
	{Name: "gpt-5", Vendor: types.VendorOpenAI, DisplayName: "GPT-5", ShowInRankings: true, SupportsToolCalling: true, UsesReasoningEffort: true},
	{Name: "gpt-5-mini", Vendor: types.VendorOpenAI, DisplayName: "GPT-5 Mini", ShowInRankings: true, SupportsToolCalling: true, UsesReasoningEffort: true},
	{Name: "gpt-4.1", Vendor: types.VendorOpenAI, DisplayName: "GPT-4.1", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "claude-opus-4-1", Vendor: types.VendorAnthropic, DisplayName: "Claude Opus 4.1", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "claude-sonnet-4-5", Vendor: types.VendorAnthropic, DisplayName: "Claude Sonnet 4.5", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "claude-haiku-4-5", Vendor: types.VendorAnthropic, DisplayName: "Claude Haiku 4.5", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "gemini-2.5-pro", Vendor: types.VendorGemini, DisplayName: "Gemini 2.5 Pro", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "gemini-2.5-flash", Vendor: types.VendorGemini, DisplayName: "Gemini 2.5 Flash", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "grok-4", Vendor: types.VendorXAI, DisplayName: "Grok 4", ShowInRankings: true, SupportsToolCalling: true},
	{Name: "grok-3-mini", Vendor: types.VendorXAI, DisplayName: "Grok 3 Mini", ShowInRankings: true},
	{Name: "deepseek-chat", Vendor: types.VendorDeepSeek, DisplayName: "DeepSeek Chat", ShowInRankings: true},
	{Name: "deepseek-reasoner", Vendor: types.VendorDeepSeek, DisplayName: "DeepSeek Reasoner", ShowInRankings: true, UsesReasoningEffort: true},
	{Name: "kimi-k2", Vendor: types.VendorKimi, DisplayName: "Kimi K2", ShowInRankings: true},
	{Name: "glm-4.6", Vendor: types.VendorGLM, DisplayName: "GLM-4.6", ShowInRankings: true},
}

// SeedDefaults upserts the default model whitelist. Safe to call on
// every boot; existing rows keep their ids and operator flags are not
// downgraded (upsert refreshes display metadata only for known names).
func (s *Store) SeedDefaults(ctx context.Context) error {
	for i := range defaultModels {
		m := defaultModels[i]
		if err := s.UpsertModel(ctx, &m); err != nil {
			return fmt.Errorf("failed to seed model %s: %w", m.Name, err)
		}
	}
	return nil
}
