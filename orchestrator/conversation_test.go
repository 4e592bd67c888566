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
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwise/platform/llm"
	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
	"tripwise/platform/tools/base"
	"tripwise/platform/tools/itinerary"
	"tripwise/platform/tools/poisearch"
	"tripwise/platform/tools/registry"
	"tripwise/platform/tools/traveltime"
)

// stubLLM returns a canned completion for the itinerary builder.
type stubLLM struct {
	content string
	err     error
}

func (s *stubLLM) Name() string           { return "stub" }
func (s *stubLLM) Type() llm.ProviderType { return llm.ProviderTypeCustom }
func (s *stubLLM) Configured() bool       { return true }

func (s *stubLLM) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content, Model: "stub"}, nil
}

// stubSearch serves a fixed candidate list without any network calls.
type stubSearch struct {
	candidates []types.POICandidate
}

func (s *stubSearch) Name() string        { return poisearch.ToolName }
func (s *stubSearch) Description() string { return "stub search" }

func (s *stubSearch) InputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "city", Kind: base.KindString, Required: true},
		{Name: "interests", Kind: base.KindArray, Required: true},
	}}
}

func (s *stubSearch) OutputSchema() base.Schema {
	return base.Schema{Fields: []base.FieldSpec{
		{Name: "candidates", Kind: base.KindArray, Required: true},
	}}
}

func (s *stubSearch) Execute(context.Context, any) (any, error) {
	return poisearch.Output{Candidates: s.candidates}, nil
}

// foodCandidates builds n food-typed candidates spread around central
// Bangalore, scores descending.
func foodCandidates(n int) []types.POICandidate {
	out := make([]types.POICandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.POICandidate{
			POIID:       fmt.Sprintf("poi_ban_%d", i),
			Score:       1.0 - float64(i)*0.01,
			Name:        fmt.Sprintf("Food Spot %d", i),
			Description: "A well known food destination.",
			Location:    &types.GeoPoint{Lat: 12.95 + float64(i)*0.002, Lng: 77.58 + float64(i)*0.002},
			Types:       []string{"food"},
		})
	}
	return out
}

// threeDayPlan is a valid moderate-pace plan over the first 9 candidates.
func threeDayPlan() string {
	var days []string
	for d := 1; d <= 3; d++ {
		var blocks []string
		for b := 0; b < 3; b++ {
			idx := (d-1)*3 + b
			blocks = append(blocks, fmt.Sprintf(
				`{"time_of_day":"Morning","poi_id":"poi_ban_%d","duration_min":90}`, idx))
		}
		days = append(days, fmt.Sprintf(`{"day":%d,"blocks":[%s]}`, d, strings.Join(blocks, ",")))
	}
	return fmt.Sprintf(`{"days":[%s]}`, strings.Join(days, ","))
}

// newTestAgent wires an agent whose tools run fully in-process: stubbed
// search, a real builder over a canned model, and the real travel estimator.
func newTestAgent(t *testing.T, builderContent string) *Agent {
	t.Helper()
	log := logger.New("conversation-test")

	reg := registry.New(log)
	require.NoError(t, reg.Register(&stubSearch{candidates: foodCandidates(14)}))
	require.NoError(t, reg.Register(itinerary.New(&stubLLM{content: builderContent}, log)))
	require.NoError(t, reg.Register(traveltime.New()))

	prefManager := NewPreferenceManager(nil, NewHeuristicExtractor(), log)
	return NewAgent(
		prefManager,
		NewPipeline(reg, log),
		NewEvaluationEngine(log),
		NewReasoningManager(nil, log),
		NewPDFExporter(),
		NewArtifactStore(),
		nil,
		log,
	)
}

func TestFullConversationFlow(t *testing.T) {
	agent := newTestAgent(t, threeDayPlan())
	s := agent.NewSession("s1")
	ctx := context.Background()

	// Turn 1: everything extracted in one go; the turn changed preferences,
	// so the agent asks for confirmation instead of generating.
	resp := agent.HandleMessage(ctx, s, "3 days in Bangalore from 9am to 6pm, I love food")
	assert.Equal(t, types.StateCollectingPreferences, s.State)
	assert.Contains(t, resp.Message, "Ready to generate")
	assert.Equal(t, "09:00-18:00", s.Preferences.DailyTimeWindow)

	// Turn 2: plain confirmation triggers the pipeline.
	resp = agent.HandleMessage(ctx, s, "yes, go ahead")
	require.NotNil(t, resp.Payload, "expected UI payload, got message %q", resp.Message)

	assert.Equal(t, types.StateReadyForUI, s.State)
	assert.Len(t, resp.Payload.Itinerary.Days, 3)
	assert.Equal(t, types.VerdictPass, resp.Payload.EvaluationSummary.Feasibility)
	assert.Equal(t, types.VerdictPass, resp.Payload.EvaluationSummary.Grounding)
	assert.Len(t, resp.Payload.Candidates, 14)

	seen := map[string]bool{}
	for _, day := range resp.Payload.Itinerary.Days {
		for i, blk := range day.Blocks {
			assert.False(t, seen[blk.POIID], "duplicate POI %s", blk.POIID)
			seen[blk.POIID] = true
			assert.NotEmpty(t, blk.POIName, "block names must be denormalized")
			if i == 0 {
				assert.Zero(t, blk.TravelTimeMin, "first block of a day has no travel")
			} else {
				assert.Positive(t, blk.TravelTimeMin, "later blocks carry travel estimates")
			}
		}
	}
}

func TestChangedPreferencesDelayConfirmation(t *testing.T) {
	agent := newTestAgent(t, threeDayPlan())
	s := agent.NewSession("s1")
	ctx := context.Background()

	agent.HandleMessage(ctx, s, "3 days in Bangalore from 9am to 6pm, food please")

	// "yes" plus a preference change is treated as a change, not a go-ahead.
	resp := agent.HandleMessage(ctx, s, "yes but make it 4 days")
	assert.Equal(t, types.StateCollectingPreferences, s.State)
	assert.Equal(t, 4, s.Preferences.TripDays)
	assert.Contains(t, resp.Message, "Updated your trip")
}

func TestCollectingAsksForMissingFields(t *testing.T) {
	agent := newTestAgent(t, threeDayPlan())
	s := agent.NewSession("s1")

	resp := agent.HandleMessage(context.Background(), s, "hello there")
	assert.Contains(t, resp.Message, "Which city")
	assert.Equal(t, types.StateCollectingPreferences, s.State)
}

func TestEvaluationFailureResetsState(t *testing.T) {
	// One day short: the builder enforces its day contract, the pipeline
	// fails, and the session resets for a retry.
	agent := newTestAgent(t, `{"days":[{"day":1,"blocks":[{"time_of_day":"Morning","poi_id":"poi_ban_0","duration_min":90}]}]}`)
	s := agent.NewSession("s1")
	ctx := context.Background()

	agent.HandleMessage(ctx, s, "3 days in Bangalore from 9am to 6pm, food please")
	resp := agent.HandleMessage(ctx, s, "generate")

	assert.Nil(t, resp.Payload)
	assert.Contains(t, resp.Message, "failed")
	assert.Equal(t, types.StateCollectingPreferences, s.State, "session must stay usable after a failure")

	// The conversation continues normally afterwards.
	resp = agent.HandleMessage(ctx, s, "hello?")
	assert.NotEmpty(t, resp.Message)
}

func TestBudgetOverrunRejectedByEvaluation(t *testing.T) {
	// Three days that each cram far more activity than the 9-hour window.
	var days []string
	for d := 1; d <= 3; d++ {
		idx := (d - 1) * 2
		days = append(days, fmt.Sprintf(
			`{"day":%d,"blocks":[{"time_of_day":"Morning","poi_id":"poi_ban_%d","duration_min":400},{"time_of_day":"Evening","poi_id":"poi_ban_%d","duration_min":400}]}`,
			d, idx, idx+1))
	}
	agent := newTestAgent(t, fmt.Sprintf(`{"days":[%s]}`, strings.Join(days, ",")))
	s := agent.NewSession("s1")
	ctx := context.Background()

	agent.HandleMessage(ctx, s, "3 days in Bangalore from 9am to 6pm, food please")
	resp := agent.HandleMessage(ctx, s, "generate")

	assert.Nil(t, resp.Payload)
	assert.Contains(t, resp.Message, "failed evaluation")
	assert.Equal(t, types.StateCollectingPreferences, s.State)
}

func readySession(t *testing.T, agent *Agent) *Session {
	t.Helper()
	s := agent.NewSession("s1")
	ctx := context.Background()
	agent.HandleMessage(ctx, s, "3 days in Bangalore from 9am to 6pm, food please")
	resp := agent.HandleMessage(ctx, s, "yes, go ahead")
	require.NotNil(t, resp.Payload)
	return s
}

func TestReadyStateIntentRouting(t *testing.T) {
	agent := newTestAgent(t, threeDayPlan())
	s := readySession(t, agent)
	ctx := context.Background()

	// Unrecognized message gets the capability hint.
	resp := agent.HandleMessage(ctx, s, "thanks!")
	assert.Contains(t, resp.Message, "ask me 'Why?'")

	// Reasoning request without a configured model uses the description
	// fallback, one answer per scheduled place.
	resp = agent.HandleMessage(ctx, s, "why did you pick these?")
	assert.Contains(t, resp.Message, "**Why:**")
	assert.Contains(t, resp.Message, "Food Spot 0")
}

func TestFilterQueried(t *testing.T) {
	all := []POIWithContext{
		{POIID: "a", Name: "Lal Bagh"},
		{POIID: "b", Name: "Cubbon Park"},
		{POIID: "c", Name: "VV Puram Food Street"},
	}

	// Full-name match.
	got := filterQueried(all, "why did you pick lal bagh?")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].POIID)

	// Significant-word match.
	got = filterQueried(all, "explain cubbon to me")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].POIID)

	// No match: caller falls back to justifying everything.
	assert.Empty(t, filterQueried(all, "why this plan?"))
}

func TestPDFExportStoresArtifact(t *testing.T) {
	agent := newTestAgent(t, threeDayPlan())
	s := readySession(t, agent)

	resp := agent.HandleMessage(context.Background(), s, "export pdf please")
	require.NotEmpty(t, resp.PDFDownloadPath)

	id := strings.TrimPrefix(resp.PDFDownloadPath, "/download-pdf/")
	data, ok := agent.artifacts.Get(id)
	require.True(t, ok, "rendered PDF must be downloadable")
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "artifact must be a PDF document")
}

func TestEmailRequiresAddress(t *testing.T) {
	agent := newTestAgent(t, threeDayPlan())
	s := readySession(t, agent)
	ctx := context.Background()

	resp := agent.HandleMessage(ctx, s, "email me the plan")
	assert.Contains(t, resp.Message, "valid email address")

	// With an address but no configured mailer, the failure is reported.
	resp = agent.HandleMessage(ctx, s, "email it to traveler@example.com")
	assert.Contains(t, resp.Message, "Failed to send email")
}
