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
	"sync"

	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
	"tripwise/platform/tools/itinerary"
	"tripwise/platform/tools/poisearch"
	"tripwise/platform/tools/registry"
	"tripwise/platform/tools/traveltime"
)

const (
	// candidateSubsetSize caps how many top-scored candidates reach synthesis.
	candidateSubsetSize = 20

	// Substituted when a travel-time lookup fails; a missing estimate must
	// not abort construction.
	fallbackTravelTimeMin  = 15
	fallbackTravelDistance = 2.0
)

// Pipeline assembles an itinerary from confirmed preferences: candidate
// search, model-bounded synthesis, then pairwise travel refinement. All
// external effects go through the tool gateway.
type Pipeline struct {
	registry *registry.Registry
	logger   *logger.Logger
}

// NewPipeline creates the construction pipeline.
func NewPipeline(reg *registry.Registry, log *logger.Logger) *Pipeline {
	return &Pipeline{registry: reg, logger: log}
}

// Generate builds an itinerary for the given preferences. It returns the
// itinerary together with the full candidate set backing it; the caller
// stores the candidates as the session's grounding universe.
func (p *Pipeline) Generate(ctx context.Context, sessionID string, prefs types.UserPreferences) (types.Itinerary, []types.POICandidate, error) {
	searchOut, err := invokeAs[poisearch.Output](ctx, p.registry, poisearch.ToolName, poisearch.Input{
		City:      prefs.City,
		Interests: prefs.Interests,
	})
	if err != nil {
		return types.Itinerary{}, nil, fmt.Errorf("candidate search failed: %w", err)
	}

	candidates := searchOut.Candidates
	p.logger.Info(sessionID, "", fmt.Sprintf("Found %d candidates for %s", len(candidates), prefs.City), nil)

	subset := candidates
	if len(subset) > candidateSubsetSize {
		subset = subset[:candidateSubsetSize]
	}

	builderOut, err := invokeAs[itinerary.Output](ctx, p.registry, itinerary.ToolName, itinerary.Input{
		City:            prefs.City,
		POIs:            subset,
		Interests:       prefs.Interests,
		DailyTimeWindow: prefs.DailyTimeWindow,
		Pace:            prefs.Pace,
		TripDays:        prefs.TripDays,
	})
	if err != nil {
		return types.Itinerary{}, nil, fmt.Errorf("itinerary synthesis failed: %w", err)
	}

	built := types.Itinerary{Days: builderOut.Days}
	p.refineTravelTimes(ctx, sessionID, &built, candidates)
	return built, candidates, nil
}

// refineTravelTimes fills travel fields for every block. Within a day the
// walk is sequential, each leg depending on the previous block's location;
// days are independent and refined concurrently.
func (p *Pipeline) refineTravelTimes(ctx context.Context, sessionID string, it *types.Itinerary, candidates []types.POICandidate) {
	locations := make(map[string]*types.GeoPoint, len(candidates))
	for _, c := range candidates {
		locations[c.POIID] = c.Location
	}

	var wg sync.WaitGroup
	for d := range it.Days {
		wg.Add(1)
		go func(day *types.ItineraryDay) {
			defer wg.Done()
			p.refineDay(ctx, sessionID, day, locations)
		}(&it.Days[d])
	}
	wg.Wait()
}

func (p *Pipeline) refineDay(ctx context.Context, sessionID string, day *types.ItineraryDay, locations map[string]*types.GeoPoint) {
	for i := range day.Blocks {
		// No preceding location is assumed for the first visit of a day.
		if i == 0 {
			day.Blocks[i].TravelTimeMin = 0
			day.Blocks[i].TravelDistanceKm = 0
			continue
		}

		origin := locations[day.Blocks[i-1].POIID]
		destination := locations[day.Blocks[i].POIID]
		if origin == nil || destination == nil {
			day.Blocks[i].TravelTimeMin = fallbackTravelTimeMin
			day.Blocks[i].TravelDistanceKm = fallbackTravelDistance
			continue
		}

		out, err := invokeAs[traveltime.Output](ctx, p.registry, traveltime.ToolName, traveltime.Input{
			Origin:      *origin,
			Destination: *destination,
			Mode:        "driving",
		})
		if err != nil {
			p.logger.Warn(sessionID, "", fmt.Sprintf("Travel lookup failed for %s, using fallback", day.Blocks[i].POIID), map[string]any{
				"error": err.Error(),
			})
			day.Blocks[i].TravelTimeMin = fallbackTravelTimeMin
			day.Blocks[i].TravelDistanceKm = fallbackTravelDistance
			continue
		}

		day.Blocks[i].TravelTimeMin = out.TravelTimeMin
		day.Blocks[i].TravelDistanceKm = out.DistanceKm
	}
}

// invokeAs calls a tool through the gateway and converts the validated output
// to the expected type, via JSON when a test double returned a map form.
func invokeAs[T any](ctx context.Context, reg *registry.Registry, name string, input any) (T, error) {
	var out T

	result, err := reg.Invoke(ctx, name, input)
	if err != nil {
		return out, err
	}

	if typed, ok := result.(T); ok {
		return typed, nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return out, fmt.Errorf("failed to encode %s output: %w", name, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s output: %w", name, err)
	}
	return out, nil
}
