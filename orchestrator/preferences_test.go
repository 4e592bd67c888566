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
)

func newPrefManager() *PreferenceManager {
	return NewPreferenceManager(nil, NewHeuristicExtractor(), logger.New("pref-test"))
}

func TestMissingFieldsOrder(t *testing.T) {
	m := newPrefManager()

	prefs := m.InitialPreferences()
	assert.Equal(t, []string{"city", "trip_days", "daily_time_window", "interests"}, m.MissingFields(prefs))

	prefs.City = "Bangalore"
	assert.Equal(t, []string{"trip_days", "daily_time_window", "interests"}, m.MissingFields(prefs))

	prefs.TripDays = 3
	prefs.DailyTimeWindow = "09:00-18:00"
	prefs.Interests = []string{"food"}
	assert.Empty(t, m.MissingFields(prefs))
}

func TestNextQuestionTargetsFirstMissingField(t *testing.T) {
	m := newPrefManager()
	prefs := m.InitialPreferences()

	assert.Contains(t, m.NextQuestion(prefs), "Which city")

	prefs.City = "Bangalore"
	assert.Contains(t, m.NextQuestion(prefs), "How many days")

	prefs.TripDays = 2
	prefs.DailyTimeWindow = "09:00-18:00"
	prefs.Interests = []string{"food"}
	assert.Contains(t, m.NextQuestion(prefs), "Shall I proceed")

	prefs.Confirmed = true
	assert.Contains(t, m.NextQuestion(prefs), "Generating")
}

func TestHeuristicExtraction(t *testing.T) {
	m := newPrefManager()
	prefs := m.InitialPreferences()

	prefs = m.Update(context.Background(), prefs, "I want to spend 3 days in Bangalore, mostly food and nightlife, from 9am to midnight")

	assert.Equal(t, "Bangalore", prefs.City)
	assert.Equal(t, 3, prefs.TripDays)
	assert.Equal(t, "09:00-00:00", prefs.DailyTimeWindow)
	assert.ElementsMatch(t, []string{"food", "nightlife"}, prefs.Interests)
}

func TestInterestsAccumulate(t *testing.T) {
	m := newPrefManager()
	prefs := m.InitialPreferences()

	prefs = m.Update(context.Background(), prefs, "I love food")
	prefs = m.Update(context.Background(), prefs, "also temples please")

	assert.ElementsMatch(t, []string{"food", "temples"}, prefs.Interests)

	// Mentioning a known interest again must not duplicate it.
	prefs = m.Update(context.Background(), prefs, "did I mention food?")
	assert.ElementsMatch(t, []string{"food", "temples"}, prefs.Interests)
}

func TestUpdateLeavesUnmentionedFieldsAlone(t *testing.T) {
	m := newPrefManager()
	prefs := m.InitialPreferences()
	prefs.City = "Mysore"
	prefs.TripDays = 2

	updated := m.Update(context.Background(), prefs, "make that 4 days")

	assert.Equal(t, "Mysore", updated.City)
	assert.Equal(t, 4, updated.TripDays)
}

// failingExtractor simulates a model-backed extractor that errors out.
type failingExtractor struct{}

func (failingExtractor) Available() bool { return true }
func (failingExtractor) Extract(context.Context, types.UserPreferences, string) (PreferenceUpdate, error) {
	return PreferenceUpdate{}, errors.New("model unavailable")
}

func TestPrimaryFailureFallsBackToHeuristics(t *testing.T) {
	m := NewPreferenceManager(failingExtractor{}, NewHeuristicExtractor(), logger.New("pref-test"))
	prefs := m.InitialPreferences()

	prefs = m.Update(context.Background(), prefs, "2 days in Jaipur")

	assert.Equal(t, "Jaipur", prefs.City)
	assert.Equal(t, 2, prefs.TripDays)
}

func TestNormalizeTimeWindow(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9am to midnight", "09:00-00:00"},
		{"9 am to 6 pm", "09:00-18:00"},
		{"9am to 12am", "09:00-00:00"},
		{"09:00-18:00", "09:00-18:00"},
		{"noon until 9pm", "12:00-21:00"},
		{"10:30am to 7:15pm", "10:30-19:15"},
		{"whenever", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTimeWindow(tt.in))
		})
	}
}

func TestApplyMergeSemantics(t *testing.T) {
	current := types.UserPreferences{
		City:      "Bangalore",
		TripDays:  3,
		Pace:      types.PaceModerate,
		Interests: []string{"food"},
	}

	city := "Mumbai"
	update := PreferenceUpdate{City: &city, Interests: []string{"Art", " food "}}
	merged := apply(current, update)

	require.Equal(t, "Mumbai", merged.City)
	assert.Equal(t, 3, merged.TripDays, "absent fields stay untouched")
	assert.ElementsMatch(t, []string{"food", "art"}, merged.Interests)
}
