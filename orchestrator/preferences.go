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
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"tripwise/platform/llm"
	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
)

// PreferenceUpdate is a partial preference record extracted from one message.
// Nil pointer fields leave the current value untouched; Interests accumulate
// onto the existing set rather than replacing it.
type PreferenceUpdate struct {
	City            *string                `json:"city,omitempty"`
	TripDays        *int                   `json:"trip_days,omitempty"`
	DailyTimeWindow *string                `json:"daily_time_window,omitempty"`
	Pace            *types.Pace            `json:"pace,omitempty"`
	Interests       []string               `json:"interests,omitempty"`
	Constraints     *types.TripConstraints `json:"constraints,omitempty"`
}

// Empty reports whether the update carries no extracted fields.
func (u PreferenceUpdate) Empty() bool {
	return u.City == nil && u.TripDays == nil && u.DailyTimeWindow == nil &&
		u.Pace == nil && len(u.Interests) == 0 && u.Constraints == nil
}

// Extractor turns a free-text message into a partial preference update.
type Extractor interface {
	// Available reports whether this extractor can currently run.
	Available() bool

	// Extract parses the message in the context of the current preferences.
	Extract(ctx context.Context, current types.UserPreferences, message string) (PreferenceUpdate, error)
}

// PreferenceManager owns the preference record lifecycle: initial defaults,
// missing-field detection, clarifying questions, and free-text merges. A
// model-backed extractor is tried first; any failure degrades to the
// deterministic heuristic extractor.
type PreferenceManager struct {
	primary  Extractor
	fallback Extractor
	logger   *logger.Logger
}

// NewPreferenceManager wires the extractor pair.
func NewPreferenceManager(primary, fallback Extractor, log *logger.Logger) *PreferenceManager {
	return &PreferenceManager{primary: primary, fallback: fallback, logger: log}
}

// InitialPreferences returns the all-unset record with default constraints.
func (m *PreferenceManager) InitialPreferences() types.UserPreferences {
	return types.UserPreferences{
		Pace: types.PaceModerate,
		Constraints: types.TripConstraints{
			Mobility:         types.MobilityNormal,
			WeatherSensitive: true,
		},
	}
}

// MissingFields returns the unset required fields in fixed priority order:
// city, trip_days, daily_time_window, interests.
func (m *PreferenceManager) MissingFields(prefs types.UserPreferences) []string {
	var missing []string
	if prefs.City == "" {
		missing = append(missing, "city")
	}
	if prefs.TripDays <= 0 {
		missing = append(missing, "trip_days")
	}
	if prefs.DailyTimeWindow == "" {
		missing = append(missing, "daily_time_window")
	}
	if len(prefs.Interests) == 0 {
		missing = append(missing, "interests")
	}
	return missing
}

// NextQuestion returns one clarifying question for the first missing field,
// or a confirmation prompt once nothing is missing.
func (m *PreferenceManager) NextQuestion(prefs types.UserPreferences) string {
	missing := m.MissingFields(prefs)
	if len(missing) == 0 {
		if !prefs.Confirmed {
			return fmt.Sprintf("I have all the details for your trip to %s. Shall I proceed to generate the itinerary?", prefs.City)
		}
		return "Generating your itinerary..."
	}

	switch missing[0] {
	case "city":
		return "Which city are you planning to visit?"
	case "trip_days":
		return "How many days is your trip?"
	case "daily_time_window":
		return "What are your preferred start and end times each day? (e.g., 9 AM to 6 PM)"
	case "interests":
		return "What are your interests? (e.g., temples, gardens, nightlife, shopping)"
	}
	return "Could you provide more details?"
}

// Update merges fields extracted from the message into current and returns
// the new record. Extraction failures never propagate; the heuristic
// extractor is the floor.
func (m *PreferenceManager) Update(ctx context.Context, current types.UserPreferences, message string) types.UserPreferences {
	update, err := m.extract(ctx, current, message)
	if err != nil {
		m.logger.Warn("", "", "Preference extraction failed, keeping current record", map[string]any{
			"error": err.Error(),
		})
		return current
	}
	return apply(current, update)
}

func (m *PreferenceManager) extract(ctx context.Context, current types.UserPreferences, message string) (PreferenceUpdate, error) {
	if m.primary != nil && m.primary.Available() {
		update, err := m.primary.Extract(ctx, current, message)
		if err == nil {
			return update, nil
		}
		m.logger.Warn("", "", "Model extraction failed, falling back to heuristics", map[string]any{
			"error": err.Error(),
		})
	}
	return m.fallback.Extract(ctx, current, message)
}

// apply folds an update into the current record. Interests are unioned,
// everything else overwrites.
func apply(current types.UserPreferences, update PreferenceUpdate) types.UserPreferences {
	out := current.Clone()
	if update.City != nil && *update.City != "" {
		out.City = *update.City
	}
	if update.TripDays != nil && *update.TripDays > 0 {
		out.TripDays = *update.TripDays
	}
	if update.DailyTimeWindow != nil && *update.DailyTimeWindow != "" {
		out.DailyTimeWindow = *update.DailyTimeWindow
	}
	if update.Pace != nil && *update.Pace != "" {
		out.Pace = *update.Pace
	}
	if update.Constraints != nil {
		out.Constraints = *update.Constraints
	}
	if len(update.Interests) > 0 {
		out.Interests = lo.Uniq(append(out.Interests, lo.Map(update.Interests, func(s string, _ int) string {
			return strings.ToLower(strings.TrimSpace(s))
		})...))
	}
	return out
}

// LLMExtractor asks a language model for a partial preference object.
type LLMExtractor struct {
	provider llm.Provider
}

// NewLLMExtractor creates the model-backed extractor.
func NewLLMExtractor(provider llm.Provider) *LLMExtractor {
	return &LLMExtractor{provider: provider}
}

func (e *LLMExtractor) Available() bool {
	return e.provider != nil && e.provider.Configured()
}

func (e *LLMExtractor) Extract(ctx context.Context, current types.UserPreferences, message string) (PreferenceUpdate, error) {
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return PreferenceUpdate{}, fmt.Errorf("failed to encode current preferences: %w", err)
	}

	prompt := fmt.Sprintf(`You are a travel assistant. Extract travel preferences from the user's message.

Current preferences:
%s

User message: %q

Extract only the fields the message mentions: city, trip_days, daily_time_window, pace, interests, constraints.

Rules:
1. daily_time_window must be 24-hour "HH:MM-HH:MM". "9 am to 6 pm" is "09:00-18:00". "12 am" means midnight (00:00), never noon, so "9 am to 12 am" is "09:00-00:00".
2. interests: extract every interest mentioned, lowercase. Return only the newly mentioned interests.
3. trip_days must be a number ("3 days" is 3).
4. city: capitalize properly ("bangalore" is "Bangalore").
5. Omit every field the message does not mention.

Return only a JSON object with the extracted fields.`, currentJSON, message)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{Prompt: prompt, JSONMode: true})
	if err != nil {
		return PreferenceUpdate{}, fmt.Errorf("preference extraction failed: %w", err)
	}

	raw, ok := llm.ExtractJSONObject(resp.Content)
	if !ok {
		return PreferenceUpdate{}, fmt.Errorf("extraction response contained no JSON object")
	}

	var update PreferenceUpdate
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		return PreferenceUpdate{}, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	if update.DailyTimeWindow != nil {
		normalized := NormalizeTimeWindow(*update.DailyTimeWindow)
		update.DailyTimeWindow = &normalized
	}
	return update, nil
}

// knownCities seeds the heuristic extractor. The set is illustrative, not
// exhaustive; the model-backed extractor handles arbitrary cities.
var knownCities = []string{
	"Bangalore", "Mumbai", "Delhi", "Chennai", "Kolkata", "Hyderabad",
	"Ahmedabad", "Pune", "Jaipur", "Goa", "Kochi", "Mysore", "Udaipur",
}

// knownInterests are the interest keywords the heuristic recognizes.
var knownInterests = []string{
	"food", "nightlife", "temples", "museums", "gardens", "shopping",
	"history", "art", "nature", "beaches", "architecture", "markets",
}

var (
	dayCountRe   = regexp.MustCompile(`(\d+)\s*(?:-?\s*day|days)`)
	timeWindowRe = regexp.MustCompile(`(\d{1,2}(?::\d{2})?\s*(?:am|pm)?|midnight|noon)\s*(?:to|-|until)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm)?|midnight|noon)`)
)

// HeuristicExtractor is the deterministic fallback: keyword matching for
// cities, day counts, time windows, pace and interests.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates the fallback extractor.
func NewHeuristicExtractor() *HeuristicExtractor { return &HeuristicExtractor{} }

func (e *HeuristicExtractor) Available() bool { return true }

func (e *HeuristicExtractor) Extract(_ context.Context, current types.UserPreferences, message string) (PreferenceUpdate, error) {
	msg := strings.ToLower(message)
	var update PreferenceUpdate

	for _, city := range knownCities {
		if strings.Contains(msg, strings.ToLower(city)) {
			c := city
			update.City = &c
			break
		}
	}

	if m := dayCountRe.FindStringSubmatch(msg); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil && days > 0 {
			update.TripDays = &days
		}
	}

	if m := timeWindowRe.FindStringSubmatch(msg); m != nil {
		window := NormalizeTimeWindow(m[0])
		if window != "" {
			update.DailyTimeWindow = &window
		}
	}

	for _, pace := range []types.Pace{types.PaceRelaxed, types.PaceModerate, types.PaceFast} {
		if strings.Contains(msg, string(pace)) {
			p := pace
			update.Pace = &p
			break
		}
	}

	for _, interest := range knownInterests {
		if strings.Contains(msg, interest) && !lo.Contains(current.Interests, interest) {
			update.Interests = append(update.Interests, interest)
		}
	}

	return update, nil
}

// NormalizeTimeWindow converts a free-form window like "9am to midnight" into
// 24-hour "HH:MM-HH:MM" form, where a trailing "00:00" always means midnight.
// Returns "" when the text cannot be parsed.
func NormalizeTimeWindow(text string) string {
	m := timeWindowRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return ""
	}

	start, okStart := normalizeClock(m[1])
	end, okEnd := normalizeClock(m[2])
	if !okStart || !okEnd {
		return ""
	}
	return start + "-" + end
}

func normalizeClock(text string) (string, bool) {
	text = strings.TrimSpace(text)
	switch text {
	case "midnight":
		return "00:00", true
	case "noon":
		return "12:00", true
	}

	pm := strings.HasSuffix(text, "pm")
	am := strings.HasSuffix(text, "am")
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(text, "pm"), "am"))

	hourPart := text
	minutePart := "00"
	if i := strings.Index(text, ":"); i != -1 {
		hourPart = text[:i]
		minutePart = text[i+1:]
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour > 23 {
		return "", false
	}
	if pm && hour < 12 {
		hour += 12
	}
	if am && hour == 12 {
		hour = 0
	}

	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
