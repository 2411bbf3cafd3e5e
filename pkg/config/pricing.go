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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// pricingSchema validates the operator-supplied pricing table before it
// is trusted for the price sort. Prices are USD per million tokens.
const pricingSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"inputPerMTok":  {"type": "number", "minimum": 0},
			"outputPerMTok": {"type": "number", "minimum": 0}
		},
		"required": ["inputPerMTok", "outputPerMTok"],
		"additionalProperties": false
	}
}`

// ModelPricing is the cost of one model, USD per million tokens.
type ModelPricing struct {
	InputPerMTok  float64 `json:"inputPerMTok"`
	OutputPerMTok float64 `json:"outputPerMTok"`
}

// Blended is the single per-model cost figure used for ranking,
// weighted 1:3 toward output tokens to match benchmark traffic shape.
func (p ModelPricing) Blended() float64 {
	return (p.InputPerMTok + 3*p.OutputPerMTok) / 4
}

// Pricing maps model name to its pricing entry. The table is
// informational: it influences the price sort but is never validated
// against provider invoices.
type Pricing map[string]ModelPricing

// Lookup returns the pricing entry for a model name, falling back to a
// prefix match so dated variants share their family's entry.
func (p Pricing) Lookup(name string) (ModelPricing, bool) {
	if entry, ok := p[name]; ok {
		return entry, true
	}
	for family, entry := range p {
		if strings.HasPrefix(name, family) {
			return entry, true
		}
	}
	return ModelPricing{}, false
}

// LoadPricing reads and validates a pricing-table JSON file. A missing
// path yields an empty table, not an error.
func LoadPricing(path string) (Pricing, error) {
	if path == "" {
		return Pricing{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}
	return ParsePricing(raw)
}

// ParsePricing validates raw JSON against the pricing schema and
// decodes it.
func ParsePricing(raw []byte) (Pricing, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(pricingSchema),
		gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to validate pricing table: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("pricing table invalid: %s", strings.Join(msgs, "; "))
	}

	var pricing Pricing
	if err := json.Unmarshal(raw, &pricing); err != nil {
		return nil, fmt.Errorf("failed to decode pricing table: %w", err)
	}
	return pricing, nil
}
