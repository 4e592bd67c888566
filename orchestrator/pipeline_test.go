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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
	"tripwise/platform/tools/base"
	"tripwise/platform/tools/itinerary"
	"tripwise/platform/tools/registry"
	"tripwise/platform/tools/traveltime"
)

// brokenTravel always fails, forcing the refinement fallback.
type brokenTravel struct{}

func (brokenTravel) Name() string        { return traveltime.ToolName }
func (brokenTravel) Description() string { return "broken travel" }

func (brokenTravel) InputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "origin", Kind: base.KindObject, Required: true},
		{Name: "destination", Kind: base.KindObject, Required: true},
	}}
}

func (brokenTravel) OutputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "travel_time_min", Kind: base.KindNumber, Required: true},
		{Name: "distance_km", Kind: base.KindNumber, Required: true},
	}}
}

func (brokenTravel) Execute(context.Context, any) (any, error) {
	return nil, errors.New("routing backend down")
}

func confirmedPrefs() types.UserPreferences {
	return types.UserPreferences{
		City:            "Bangalore",
		TripDays:        3,
		DailyTimeWindow: "09:00-18:00",
		Pace:            types.PaceModerate,
		Interests:       []string{"food"},
		Confirmed:       true,
	}
}

func TestGenerateProducesGroundedItinerary(t *testing.T) {
	log := logger.New("pipeline-test")
	reg := registry.New(log)
	require.NoError(t, reg.Register(&stubSearch{candidates: foodCandidates(14)}))
	require.NoError(t, reg.Register(itinerary.New(&stubLLM{content: threeDayPlan()}, log)))
	require.NoError(t, reg.Register(traveltime.New()))

	p := NewPipeline(reg, log)
	built, candidates, err := p.Generate(context.Background(), "s1", confirmedPrefs())
	require.NoError(t, err)

	assert.Len(t, candidates, 14, "full candidate set is returned for grounding")
	require.Len(t, built.Days, 3)

	result := NewEvaluationEngine(log).Evaluate(built, candidates, confirmedPrefs(), nil, "")
	assert.Equal(t, types.VerdictPass, result.OverallStatus)
}

func TestGenerateTravelFallback(t *testing.T) {
	log := logger.New("pipeline-test")
	reg := registry.New(log)
	require.NoError(t, reg.Register(&stubSearch{candidates: foodCandidates(14)}))
	require.NoError(t, reg.Register(itinerary.New(&stubLLM{content: threeDayPlan()}, log)))
	require.NoError(t, reg.Register(brokenTravel{}))

	p := NewPipeline(reg, log)
	built, _, err := p.Generate(context.Background(), "s1", confirmedPrefs())
	require.NoError(t, err, "travel failures must not abort construction")

	for _, day := range built.Days {
		for i, blk := range day.Blocks {
			if i == 0 {
				assert.Zero(t, blk.TravelTimeMin)
				continue
			}
			assert.Equal(t, fallbackTravelTimeMin, blk.TravelTimeMin)
			assert.Equal(t, fallbackTravelDistance, blk.TravelDistanceKm)
		}
	}
}

func TestGenerateSearchFailureAborts(t *testing.T) {
	log := logger.New("pipeline-test")
	reg := registry.New(log)
	// No search tool registered at all.
	require.NoError(t, reg.Register(itinerary.New(&stubLLM{content: threeDayPlan()}, log)))
	require.NoError(t, reg.Register(traveltime.New()))

	p := NewPipeline(reg, log)
	_, _, err := p.Generate(context.Background(), "s1", confirmedPrefs())
	require.Error(t, err)

	var notFound *base.ErrToolNotFound
	assert.True(t, errors.As(err, &notFound))
}
