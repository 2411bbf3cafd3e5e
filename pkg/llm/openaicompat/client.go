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

// Package openaicompat is the shared adapter for vendors that speak the
// OpenAI chat-completions wire shape on their own endpoints: xAI,
// DeepSeek, Kimi (Moonshot), and GLM (Zhipu).
package openaicompat

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

// DefaultTimeout is the default HTTP timeout.
const DefaultTimeout = 120 * time.Second

// Well-known endpoint bases for the compatible vendors.
const (
	XAIBaseURL      = "https://api.x.ai/v1"
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	KimiBaseURL     = "https://api.moonshot.ai/v1"
	GLMBaseURL      = "https://api.z.ai/api/paas/v4"
)

// Config holds configuration for a compatible-vendor adapter.
type Config struct {
	// Vendor is the provider name reported by Name() and carried in
	// classified errors (xai, deepseek, kimi, glm).
	Vendor     string
	Keys       *llm.KeyPool
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Provider for OpenAI-compatible vendor APIs.
type Client struct {
	vendor     string
	keys       *llm.KeyPool
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a compatible-vendor adapter. Vendor and BaseURL are
// required.
func NewClient(config Config) (*Client, error) {
	if config.Vendor == "" {
		return nil, fmt.Errorf("openaicompat: vendor is required")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("openaicompat: base URL is required for %s", config.Vendor)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{
		vendor:     config.Vendor,
		keys:       config.Keys,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: config.HTTPClient,
	}, nil
}

// Name returns the vendor name.
func (c *Client) Name() string {
	return c.vendor
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Chat sends a chat-completions request and returns the normalised result.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	apiMessages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		apiMessages = append(apiMessages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(&chatRequest{
		Model:       req.Model,
		Messages:    apiMessages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.keys.Key(req.KeyIndex))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport(c.vendor, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.ClassifyTransport(c.vendor, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, llm.Classify(c.vendor, httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	return &llm.ChatResult{
		Text:      text,
		TokensIn:  llm.PromptTokensOrEstimate(resp.Usage.PromptTokens, req.Messages),
		TokensOut: llm.TokensOrEstimate(resp.Usage.CompletionTokens, text),
	}, nil
}

// ListModels returns the model ids visible to the first credential.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.keys.Key(0))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransport(c.vendor, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.ClassifyTransport(c.vendor, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, llm.Classify(c.vendor, httpResp.StatusCode, string(respBody))
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
