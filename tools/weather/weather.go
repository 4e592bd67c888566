// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package weather is a stub forecast tool. It keeps the tool contract wired
// end to end until a real forecast provider is integrated.
package weather

import (
	"context"
	"fmt"

	"tripwise/platform/tools/base"
)

// ToolName is the registry key for the weather forecast tool.
const ToolName = "weather_forecast"

// Input is the forecast request.
type Input struct {
	City string `json:"city"`
	Days int    `json:"days,omitempty"`
}

// Output is a minimal daily forecast summary.
type Output struct {
	City     string   `json:"city"`
	Forecast []string `json:"forecast"`
}

// Tool implements the stub forecast.
type Tool struct{}

// New creates the weather tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Returns a placeholder daily forecast for a city."
}

func (t *Tool) InputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "city", Kind: base.KindString, Required: true},
		{Name: "days", Kind: base.KindNumber, Required: false},
	}}
}

func (t *Tool) OutputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "city", Kind: base.KindString, Required: true},
		{Name: "forecast", Kind: base.KindArray, Required: true},
	}}
}

// Execute returns a fixed mild forecast for the requested span.
func (t *Tool) Execute(_ context.Context, input any) (any, error) {
	var in Input
	switch v := input.(type) {
	case Input:
		in = v
	case *Input:
		in = *v
	case map[string]any:
		if err := base.DecodeMap(v, &in); err != nil {
			return nil, fmt.Errorf("failed to decode weather_forecast input: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported weather_forecast input type %T", input)
	}

	days := in.Days
	if days <= 0 {
		days = 1
	}

	forecast := make([]string, days)
	for i := range forecast {
		forecast[i] = "Partly cloudy, 24C"
	}
	return Output{City: in.City, Forecast: forecast}, nil
}
