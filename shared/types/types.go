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

// Package types defines the domain model shared across the TripWise platform:
// user preferences, POI candidates, itineraries, and evaluation verdicts.
package types

// Pace controls how many stops per day an itinerary should schedule.
type Pace string

const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

// Mobility describes the traveler's mobility level.
type Mobility string

const (
	MobilityNormal  Mobility = "normal"
	MobilityLimited Mobility = "limited"
)

// TripConstraints holds hard constraints that shape candidate selection and pacing.
type TripConstraints struct {
	IndoorPreference bool     `json:"indoor_preference"`
	Mobility         Mobility `json:"mobility"`
	WeatherSensitive bool     `json:"weather_sensitive"`
	MaxTravelTimeMin int      `json:"max_travel_time_min,omitempty"`
}

// UserPreferences is the mutable preference record collected over the
// conversation. Zero values mean "not provided yet". Once generation starts
// the record is treated as frozen.
type UserPreferences struct {
	City            string          `json:"city"`
	TripDays        int             `json:"trip_days"`
	DailyTimeWindow string          `json:"daily_time_window"` // "HH:MM-HH:MM"
	Pace            Pace            `json:"pace"`
	Interests       []string        `json:"interests"`
	Constraints     TripConstraints `json:"constraints"`
	Confirmed       bool            `json:"confirmed"`
}

// Clone returns a deep copy so a snapshot is not affected by later merges.
func (p UserPreferences) Clone() UserPreferences {
	out := p
	out.Interests = append([]string(nil), p.Interests...)
	return out
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// POICandidate is one place surfaced by the search tool. The candidate list
// returned by a single search call is the grounding universe for a session
// and is immutable once received.
type POICandidate struct {
	POIID        string    `json:"poi_id"`
	Score        float64   `json:"score"` // relevance, 0..1
	Name         string    `json:"name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Location     *GeoPoint `json:"location,omitempty"`
	OpeningHours string    `json:"opening_hours,omitempty"`
	Types        []string  `json:"types,omitempty"`
}

// ItineraryBlock is one scheduled visit within a day.
type ItineraryBlock struct {
	TimeOfDay        string  `json:"time_of_day"` // Morning/Afternoon/Evening/Night by convention
	POIID            string  `json:"poi_id"`
	POIName          string  `json:"poi_name,omitempty"`
	DurationMin      int     `json:"duration_min"`
	TravelTimeMin    int     `json:"travel_time_min"` // 0 for the first block of a day
	TravelDistanceKm float64 `json:"travel_distance_km,omitempty"`
}

// ItineraryDay groups the blocks of one trip day. Day numbers are 1-based.
type ItineraryDay struct {
	Day    int              `json:"day"`
	Blocks []ItineraryBlock `json:"blocks"`
}

// Itinerary is the full day-structured plan.
type Itinerary struct {
	Days []ItineraryDay `json:"days"`
}

// BlockCount returns the total number of blocks across all days.
func (i Itinerary) BlockCount() int {
	n := 0
	for _, d := range i.Days {
		n += len(d.Blocks)
	}
	return n
}

// POIIDs returns every poi_id referenced by the itinerary, in schedule order.
// IDs appearing in multiple blocks are repeated.
func (i Itinerary) POIIDs() []string {
	ids := make([]string, 0, i.BlockCount())
	for _, d := range i.Days {
		for _, b := range d.Blocks {
			ids = append(ids, b.POIID)
		}
	}
	return ids
}

// Verdict is a binary rule-check outcome.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// EvaluationDetails carries the three independent sub-verdicts.
type EvaluationDetails struct {
	Feasibility     Verdict `json:"feasibility"`
	Grounding       Verdict `json:"grounding"`
	EditCorrectness Verdict `json:"edit_correctness"`
}

// EvaluationResult is the rules-engine output. OverallStatus is the
// conjunction of the three sub-verdicts.
type EvaluationResult struct {
	OverallStatus Verdict           `json:"overall_status"`
	Details       EvaluationDetails `json:"details"`
}

// AgentState is the conversation controller state.
type AgentState string

const (
	StateCollectingPreferences AgentState = "collecting_preferences"
	StateGenerating            AgentState = "generating"
	StateEvaluating            AgentState = "evaluating"
	StateReadyForUI            AgentState = "ready_for_ui"
	StateConfirmed             AgentState = "confirmed"
)

// ReasoningResponse is one grounded justification for a scheduled place.
type ReasoningResponse struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// PreferencesSummary is the preference echo included in UI payloads.
type PreferencesSummary struct {
	City            string   `json:"city"`
	TripDays        int      `json:"trip_days"`
	DailyTimeWindow string   `json:"daily_time_window"`
	Interests       []string `json:"interests"`
	Pace            Pace     `json:"pace"`
}

// UIReadyPayload is returned to the transport layer when an itinerary has
// passed evaluation and is ready to render.
type UIReadyPayload struct {
	State             AgentState          `json:"state"`
	Itinerary         Itinerary           `json:"itinerary"`
	EvaluationSummary EvaluationDetails   `json:"evaluation_summary"`
	Candidates        []POICandidate      `json:"candidates"`
	SourcesAvailable  bool                `json:"sources_available"`
	UserPreferences   *PreferencesSummary `json:"user_preferences,omitempty"`
}
