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

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/driftbench/driftbench/pkg/llm"
)

const (
	// DefaultBaseURL is the Gemini API base.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini adapter.
type Config struct {
	Keys       *llm.KeyPool
	BaseURL    string // Default: https://generativelanguage.googleapis.com/v1beta
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Provider for the Gemini generateContent API.
type Client struct {
	keys       *llm.KeyPool
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gemini adapter.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		keys:       config.Keys,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: config.HTTPClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "gemini"
}

// Chat sends a generateContent request and returns the normalised result.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	var system *content
	var contents []content
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			// Gemini takes the system prompt as a separate instruction.
			if system == nil {
				system = &content{Parts: []part{{Text: m.Content}}}
			} else {
				system.Parts = append(system.Parts, part{Text: m.Content})
			}
		case "assistant":
			contents = append(contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}

	body, err := json.Marshal(&generateRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, req.Model, c.keys.Key(req.KeyIndex))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport(c.Name(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.ClassifyTransport(c.Name(), err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, llm.Classify(c.Name(), httpResp.StatusCode, string(respBody))
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var b strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	text := b.String()

	return &llm.ChatResult{
		Text:      text,
		TokensIn:  llm.PromptTokensOrEstimate(resp.UsageMetadata.PromptTokenCount, req.Messages),
		TokensOut: llm.TokensOrEstimate(resp.UsageMetadata.CandidatesTokenCount, text),
	}, nil
}

// ListModels returns the model names visible to the first credential,
// stripped of the "models/" prefix.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/models?key=%s", c.baseURL, c.keys.Key(0))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport(c.Name(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.ClassifyTransport(c.Name(), err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, llm.Classify(c.Name(), httpResp.StatusCode, string(respBody))
	}

	var resp modelsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	ids := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}
	return ids, nil
}

// Ensure Client implements the Provider interface.
var _ llm.Provider = (*Client)(nil)
