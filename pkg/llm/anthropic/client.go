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

package anthropic

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
	// DefaultEndpoint is the Anthropic Messages API endpoint.
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// DefaultModelsEndpoint lists available models.
	DefaultModelsEndpoint = "https://api.anthropic.com/v1/models"
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 120 * time.Second

	apiVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic adapter.
type Config struct {
	Keys           *llm.KeyPool
	Endpoint       string // Default: https://api.anthropic.com/v1/messages
	ModelsEndpoint string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// Client implements llm.Provider for the Anthropic Messages API.
type Client struct {
	keys           *llm.KeyPool
	endpoint       string
	modelsEndpoint string
	httpClient     *http.Client
}

// NewClient creates an Anthropic adapter.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.ModelsEndpoint == "" {
		config.ModelsEndpoint = DefaultModelsEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		keys:           config.Keys,
		endpoint:       config.Endpoint,
		modelsEndpoint: config.ModelsEndpoint,
		httpClient:     config.HTTPClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// Chat sends one conversation turn set and returns the normalised result.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	// The Messages API takes system prompts as a separate field.
	var system []string
	var apiMessages []message
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		apiMessages = append(apiMessages, message{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(&messagesRequest{
		Model:       req.Model,
		Messages:    apiMessages,
		System:      strings.Join(system, "\n\n"),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.keys.Key(req.KeyIndex))
	httpReq.Header.Set("anthropic-version", apiVersion)

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

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var parts strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts.WriteString(block.Text)
		}
	}
	text := parts.String()

	return &llm.ChatResult{
		Text:      text,
		TokensIn:  llm.PromptTokensOrEstimate(resp.Usage.InputTokens, req.Messages),
		TokensOut: llm.TokensOrEstimate(resp.Usage.OutputTokens, text),
	}, nil
}

// ListModels returns the model ids visible to the first credential.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.keys.Key(0))
	httpReq.Header.Set("anthropic-version", apiVersion)

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
	ids := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Ensure Client implements the Provider interface.
var _ llm.Provider = (*Client)(nil)
