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

package openai

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
	// DefaultBaseURL is the OpenAI API base.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI adapter.
type Config struct {
	Keys       *llm.KeyPool
	BaseURL    string // Default: https://api.openai.com/v1
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Provider for the OpenAI Chat Completions API.
type Client struct {
	keys       *llm.KeyPool
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OpenAI adapter.
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
	return "openai"
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

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	text := llm.FirstNonEmpty(
		resp.Text,
		resp.OutputText,
		joinOutputParts(resp.Output),
		firstChoiceContent(resp.Choices),
	)

	return &llm.ChatResult{
		Text:      text,
		TokensIn:  llm.PromptTokensOrEstimate(llm.FirstPositive(resp.Usage.PromptTokens, resp.Usage.InputTokens), req.Messages),
		TokensOut: llm.TokensOrEstimate(llm.FirstPositive(resp.Usage.CompletionTokens, resp.Usage.OutputTokens), text),
	}, nil
}

func joinOutputParts(output []outputItem) string {
	var b strings.Builder
	for _, item := range output {
		for _, part := range item.Content {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func firstChoiceContent(choices []choice) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[0].Message.Content
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
