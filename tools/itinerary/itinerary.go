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

// Package itinerary synthesizes a day-structured plan from candidate places
// using a language model, then sanitizes the result: invented or duplicate
// place identifiers are dropped and travel fields are zeroed for the pipeline
// to fill. Pace bounds are generation guidance only; the evaluation engine is
// the enforced gate.
package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tripwise/platform/llm"
	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
	"tripwise/platform/tools/base"
)

// ToolName is the registry key for the itinerary synthesis tool.
const ToolName = "itinerary_builder"

// Input is the synthesis request. POIs is the candidate subset the model may
// draw from; identifiers outside it are rejected.
type Input struct {
	City            string               `json:"city"`
	POIs            []types.POICandidate `json:"pois"`
	Interests       []string             `json:"interests"`
	DailyTimeWindow string               `json:"daily_time_window"`
	Pace            types.Pace           `json:"pace"`
	TripDays        int                  `json:"trip_days"`
}

// Output is the synthesized itinerary with travel fields left at zero.
type Output struct {
	Days []types.ItineraryDay `json:"days"`
}

// Tool implements model-backed itinerary synthesis.
type Tool struct {
	provider llm.Provider
	logger   *logger.Logger
}

// New creates the itinerary builder tool.
func New(provider llm.Provider, log *logger.Logger) *Tool {
	return &Tool{provider: provider, logger: log}
}

func (t *Tool) Name() string { return ToolName }

func (t *Tool) Description() string {
	return "Generates a structured, day-wise itinerary from candidate places and user constraints."
}

func (t *Tool) InputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "city", Kind: base.KindString, Required: true},
		{Name: "pois", Kind: base.KindArray, Required: true},
		{Name: "interests", Kind: base.KindArray, Required: true},
		{Name: "daily_time_window", Kind: base.KindString, Required: true},
		{Name: "pace", Kind: base.KindString, Required: true},
		{Name: "trip_days", Kind: base.KindNumber, Required: true},
	}}
}

func (t *Tool) OutputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "days", Kind: base.KindArray, Required: true},
	}}
}

// Execute asks the model for a plan, parses the first JSON object in the
// response, then sanitizes it against the supplied candidate subset.
func (t *Tool) Execute(ctx context.Context, input any) (any, error) {
	in, err := decodeInput(input)
	if err != nil {
		return nil, err
	}
	if in.TripDays <= 0 {
		return nil, fmt.Errorf("trip_days must be positive, got %d", in.TripDays)
	}

	resp, err := t.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:   buildPrompt(in),
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("itinerary synthesis failed: %w", err)
	}

	raw, ok := llm.ExtractJSONObject(resp.Content)
	if !ok {
		return nil, fmt.Errorf("itinerary synthesis returned no JSON object")
	}

	var out Output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse synthesized itinerary: %w", err)
	}

	t.sanitize(&out, in)

	if len(out.Days) != in.TripDays {
		return nil, fmt.Errorf("synthesis produced %d days, expected %d", len(out.Days), in.TripDays)
	}
	return out, nil
}

// sanitize drops blocks referencing identifiers outside the supplied subset
// or already used anywhere in the itinerary, and zeroes travel fields.
func (t *Tool) sanitize(out *Output, in Input) {
	known := make(map[string]bool, len(in.POIs))
	for _, p := range in.POIs {
		known[p.POIID] = true
	}

	used := make(map[string]bool)
	for d := range out.Days {
		blocks := out.Days[d].Blocks[:0]
		for _, b := range out.Days[d].Blocks {
			if !known[b.POIID] {
				t.logger.Warn("", "", fmt.Sprintf("Dropped invented POI: %s", b.POIID), nil)
				continue
			}
			if used[b.POIID] {
				t.logger.Warn("", "", fmt.Sprintf("Dropped duplicate POI: %s", b.POIID), nil)
				continue
			}
			used[b.POIID] = true
			b.TravelTimeMin = 0
			b.TravelDistanceKm = 0
			blocks = append(blocks, b)
		}
		out.Days[d].Blocks = blocks
	}
}

func buildPrompt(in Input) string {
	var poiList strings.Builder
	for _, p := range in.POIs {
		loc := "unknown"
		if p.Location != nil {
			loc = fmt.Sprintf("%.4f, %.4f", p.Location.Lat, p.Location.Lng)
		}
		fmt.Fprintf(&poiList, "ID: %s | Name: %s | Hours: %s | Location: %s | Type: %s\n",
			p.POIID, p.Name, p.OpeningHours, loc, strings.Join(p.Types, ", "))
	}

	paceGuide := map[types.Pace]string{
		types.PaceRelaxed:  "1-2 spots per day",
		types.PaceModerate: "3-4 spots per day",
		types.PaceFast:     "5+ spots per day",
	}[in.Pace]

	return fmt.Sprintf(`You are a geography-aware travel expert. Create a %d-day itinerary for %s.

USER INTERESTS: %s
DAILY TIME WINDOW: %s (when the user is available for activities)

AVAILABLE PLACES (pre-sorted by relevance):
%s
CONSTRAINTS:
- At least 80%% of selected places must relate directly to the user's interests.
- Respect the daily time window; a window ending at 00:00 means midnight and allows night activities.
- Never repeat a place across any two days.
- Produce exactly %d days.
- Group nearby places on the same day to minimize travel.
- Pacing: %s (%s).
- Match each place's time_of_day to its opening hours and the user's window.
- Use only the place IDs from the list above. Do not invent IDs or coordinates.

TIME OF DAY OPTIONS: "Morning" (6am-12pm), "Afternoon" (12pm-5pm), "Evening" (5pm-9pm), "Night" (9pm-12am, only if the window allows).

Respond in JSON:
{"days":[{"day":1,"blocks":[{"time_of_day":"Morning","poi_id":"poi_abc_1","poi_name":"Example","duration_min":120}]}]}
Do not output travel_time_min or travel_distance_km.`,
		in.TripDays, in.City, strings.Join(in.Interests, ", "), in.DailyTimeWindow,
		poiList.String(), in.TripDays, in.Pace, paceGuide)
}

func decodeInput(input any) (Input, error) {
	switch v := input.(type) {
	case Input:
		return v, nil
	case *Input:
		return *v, nil
	case map[string]any:
		var in Input
		if err := base.DecodeMap(v, &in); err != nil {
			return Input{}, fmt.Errorf("failed to decode itinerary_builder input: %w", err)
		}
		return in, nil
	default:
		return Input{}, fmt.Errorf("unsupported itinerary_builder input type %T", input)
	}
}
