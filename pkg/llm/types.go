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

// Package llm defines the provider abstraction used by the benchmark
// engine: a uniform chat request/response shape, error classification,
// key rotation, and retry/backoff policy. Vendor-specific wire formats
// live in the subpackages.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// ChatRequest is the canonical request shape. Benchmark fairness depends on
// every provider receiving exactly these parameters and nothing else;
// CheckFair rejects anything in Extra before dispatch.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// KeyIndex selects the credential for this call: trial i uses key
	// i mod keyCount. Retries within one call keep the same index.
	KeyIndex int
	// Extra exists only so the sanitiser has something to inspect. Any
	// populated key fails the fairness check; adapters never read it.
	Extra map[string]any
}

// ChatResult is the normalised provider response.
type ChatResult struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Provider is a vendor adapter. Implementations encode the request for one
// vendor API, decode the documented response shapes, and classify HTTP
// failures into retryable and fatal errors.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ErrNoCredentials is returned by the factory when a provider has no keys
// configured. The orchestrator skips the provider and logs the reason.
var ErrNoCredentials = errors.New("llm: no credentials configured")

// Canonical benchmark parameters. Every phase-1 trial uses exactly these.
const (
	FairTemperature = 0.1
	FairMaxTokens   = 1500
)

// forbiddenKeys are request parameters that would give a model a hidden
// advantage (or handicap) and therefore invalidate cross-model comparison.
var forbiddenKeys = []string{
	"top_p", "seed", "stop", "stop_sequences", "response_format",
	"logprobs", "top_logprobs", "presence_penalty", "frequency_penalty",
	"logit_bias", "reasoning", "reasoning_effort", "tools", "tool_choice",
}

// CheckFair validates a request against the benchmark's fairness contract:
// canonical temperature, a max-token cap (1500 in phase 1; phase 2 raises
// the cap explicitly), and no forbidden parameters. A violation is a
// programmer error in the trial pipeline, so callers treat it as fatal for
// the trial rather than retryable.
func CheckFair(req ChatRequest, maxTokens int) error {
	if req.Temperature != FairTemperature {
		return fmt.Errorf("llm: unfair temperature %v, want %v", req.Temperature, FairTemperature)
	}
	if req.MaxTokens != maxTokens {
		return fmt.Errorf("llm: unfair max_tokens %d, want %d", req.MaxTokens, maxTokens)
	}
	for _, key := range forbiddenKeys {
		if _, ok := req.Extra[key]; ok {
			return fmt.Errorf("llm: forbidden request key %q", key)
		}
	}
	for key := range req.Extra {
		return fmt.Errorf("llm: unexpected request key %q", key)
	}
	return nil
}
