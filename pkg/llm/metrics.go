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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var providerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_provider_errors_total",
	Help: "Failed provider calls, by error class.",
}, []string{"class"})

// errorClass buckets a provider failure for metrics.
func errorClass(err error) string {
	switch {
	case IsOverload(err):
		return "overload"
	case IsRetryable(err):
		return "retryable"
	default:
		return "fatal"
	}
}
