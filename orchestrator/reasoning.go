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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tripwise/platform/llm"
	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
)

// POIWithContext is one scheduled place with enough context to justify its
// selection.
type POIWithContext struct {
	POIID         string `json:"poi_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ScheduledTime string `json:"scheduled_time,omitempty"`
	DurationMin   int    `json:"duration_min,omitempty"`
	TravelTimeMin int    `json:"travel_time_min,omitempty"`
}

// ReasoningManager produces on-demand justifications for scheduled places.
// A model failure for one place degrades to a description-based answer; it
// never sinks the whole response.
type ReasoningManager struct {
	provider llm.Provider
	logger   *logger.Logger
}

// NewReasoningManager creates the justification generator.
func NewReasoningManager(provider llm.Provider, log *logger.Logger) *ReasoningManager {
	return &ReasoningManager{provider: provider, logger: log}
}

// JustifyPOIs returns one justification per target place, in input order.
func (m *ReasoningManager) JustifyPOIs(ctx context.Context, targets []POIWithContext, city string, interests []string, dailyTimeWindow string) []types.ReasoningResponse {
	results := make([]types.ReasoningResponse, 0, len(targets))
	for _, poi := range targets {
		results = append(results, m.justify(ctx, poi, city, interests, dailyTimeWindow))
	}
	return results
}

func (m *ReasoningManager) justify(ctx context.Context, poi POIWithContext, city string, interests []string, dailyTimeWindow string) types.ReasoningResponse {
	fallback := types.ReasoningResponse{
		Answer:    fallbackAnswer(poi),
		Citations: []string{},
	}

	if m.provider == nil || !m.provider.Configured() {
		return fallback
	}

	resp, err := m.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      buildJustificationPrompt(poi, city, interests, dailyTimeWindow),
		MaxTokens:   300,
		Temperature: 0.2,
	})
	if err != nil {
		m.logger.Warn("", "", fmt.Sprintf("Justification failed for %s", poi.Name), map[string]any{
			"error": err.Error(),
		})
		return fallback
	}

	raw, ok := llm.ExtractJSONObject(resp.Content)
	if !ok {
		return fallback
	}

	var parsed struct {
		Why    string `json:"why"`
		Timing string `json:"timing"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fallback
	}

	if parsed.Why == "" {
		parsed.Why = fmt.Sprintf("%s is a great match for your interests.", poi.Name)
	}
	if parsed.Timing == "" {
		parsed.Timing = "The timing fits your schedule."
	}

	return types.ReasoningResponse{
		Answer:    fmt.Sprintf("**Why:** %s\n**Timing:** %s", parsed.Why, parsed.Timing),
		Citations: []string{"Wikipedia"},
	}
}

func fallbackAnswer(poi POIWithContext) string {
	desc := "Matching your interests."
	if poi.Description != "" {
		desc = poi.Description
		if len(desc) > 100 {
			desc = desc[:100] + "..."
		}
	}
	return fmt.Sprintf("**Why:** %s\n**Timing:** Fits schedule.", desc)
}

func buildJustificationPrompt(poi POIWithContext, city string, interests []string, dailyTimeWindow string) string {
	if dailyTimeWindow == "" {
		dailyTimeWindow = "Full day"
	}
	scheduled := poi.ScheduledTime
	if scheduled == "" {
		scheduled = "Not scheduled"
	}

	return fmt.Sprintf(`You are a professional travel agent.

TASK:
Justify selecting %q in %s for the user.

CONTEXT:
%s

DETAILS:
- User interests: %s
- User schedule: %s
- Place schedule: %s (%d mins)

INSTRUCTIONS:
1. Write a compelling, specific justification ("why") of about 50 words. Mention concrete details from the context; do not be generic.
2. Briefly confirm the timing is feasible ("timing").
3. Output valid JSON only.

JSON FORMAT:
{"why": "...", "timing": "..."}`,
		poi.Name, city, poi.Description, strings.Join(interests, ", "),
		dailyTimeWindow, scheduled, poi.DurationMin)
}
