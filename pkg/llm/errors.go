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
	"errors"
	"fmt"
	"strings"
)

// ProviderError is a classified provider failure. Status is the HTTP
// status when known, 0 for transport errors.
type ProviderError struct {
	Provider  string
	Status    int
	Message   string
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// retryableFragments are error-message substrings that mark a transient
// failure regardless of status code.
var retryableFragments = []string{
	"timeout", "network", "connection", "overloaded", "rate limit",
}

// Classify builds a ProviderError from an HTTP status and body/message.
// 429, 503 and all 5xx are retryable, as is any message matching the
// transient fragments. Everything else fails fast.
func Classify(provider string, status int, message string) *ProviderError {
	e := &ProviderError{Provider: provider, Status: status, Message: message}
	switch {
	case status == 429 || status == 503:
		e.Retryable = true
	case status >= 500 && status < 600:
		e.Retryable = true
	default:
		e.Retryable = messageRetryable(message)
	}
	return e
}

// ClassifyTransport wraps a transport-level error (no HTTP status).
// Connection and timeout failures are retryable.
func ClassifyTransport(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Message:   err.Error(),
		Retryable: messageRetryable(err.Error()),
	}
}

func messageRetryable(message string) bool {
	lower := strings.ToLower(message)
	for _, frag := range retryableFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err should be retried with backoff.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// IsOverload reports whether err counts toward the persistent-overload
// skip list: only 429, 503, and "overloaded" messages qualify. Ordinary
// 5xx and timeouts retry but do not accumulate.
func IsOverload(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	if pe.Status == 429 || pe.Status == 503 {
		return true
	}
	return strings.Contains(strings.ToLower(pe.Message), "overloaded")
}
