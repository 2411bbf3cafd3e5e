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

import "strings"

// FirstNonEmpty is the shared post-decode normaliser for response text.
// Adapters decode each documented vendor shape into candidate strings and
// pass them in preference order; the first non-empty one wins.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// FirstPositive returns the first value greater than zero, for walking
// vendor-specific usage fields in preference order.
func FirstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// TokensOrEstimate returns the provider-reported token count when present,
// falling back to an estimate from the text.
func TokensOrEstimate(reported int, text string) int {
	if reported > 0 {
		return reported
	}
	return EstimateTokens(text)
}

// PromptTokensOrEstimate returns the provider-reported prompt token count
// when present, falling back to an estimate over the request messages.
func PromptTokensOrEstimate(reported int, messages []Message) int {
	if reported > 0 {
		return reported
	}
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Content)
	}
	return EstimateTokens(b.String())
}
