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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
)

const (
	// defaultDayBudgetMin is assumed when the daily window cannot be parsed
	// (10 hours, roughly 9am to 7pm).
	defaultDayBudgetMin = 600

	// maxLegTravelMin caps a single within-city travel leg.
	maxLegTravelMin = 180

	relaxedMaxBlocks = 3
	fastMinBlocks    = 4
)

// EvaluationEngine is the deterministic gate between generation and the UI.
// It cross-checks a synthesized itinerary against ground-truth constraints;
// a fail sends the conversation back to preference collection.
type EvaluationEngine struct {
	logger *logger.Logger
}

// NewEvaluationEngine creates the rules engine.
func NewEvaluationEngine(log *logger.Logger) *EvaluationEngine {
	return &EvaluationEngine{logger: log}
}

// Evaluate runs all three checks and returns their conjunction. Every check
// runs even when an earlier one fails, so the details always report each
// verdict independently.
func (e *EvaluationEngine) Evaluate(
	itinerary types.Itinerary,
	validCandidates []types.POICandidate,
	prefs types.UserPreferences,
	previous *types.Itinerary,
	lastUserMessage string,
) types.EvaluationResult {
	feasibility := e.evaluateFeasibility(itinerary, prefs)
	grounding := e.evaluateGrounding(itinerary, validCandidates)
	editCorrectness := e.evaluateEditCorrectness(itinerary, previous, lastUserMessage)

	overall := types.VerdictFail
	if feasibility == types.VerdictPass && grounding == types.VerdictPass && editCorrectness == types.VerdictPass {
		overall = types.VerdictPass
	}

	return types.EvaluationResult{
		OverallStatus: overall,
		Details: types.EvaluationDetails{
			Feasibility:     feasibility,
			Grounding:       grounding,
			EditCorrectness: editCorrectness,
		},
	}
}

func (e *EvaluationEngine) evaluateFeasibility(itinerary types.Itinerary, prefs types.UserPreferences) types.Verdict {
	used := make(map[string]bool)
	for _, day := range itinerary.Days {
		for _, block := range day.Blocks {
			if used[block.POIID] {
				e.logger.Warn("", "", fmt.Sprintf("Feasibility failed: duplicate POI %s", block.POIID), nil)
				return types.VerdictFail
			}
			used[block.POIID] = true
		}
	}

	if len(itinerary.Days) != prefs.TripDays {
		e.logger.Warn("", "", fmt.Sprintf("Feasibility failed: %d days, expected %d", len(itinerary.Days), prefs.TripDays), nil)
		return types.VerdictFail
	}

	budget := ParseTimeWindowBudget(prefs.DailyTimeWindow)

	for _, day := range itinerary.Days {
		totalMin := 0
		for _, block := range day.Blocks {
			totalMin += block.DurationMin + block.TravelTimeMin
			if block.TravelTimeMin > maxLegTravelMin {
				e.logger.Warn("", "", fmt.Sprintf("Feasibility failed: %dm travel to %s", block.TravelTimeMin, block.POIID), nil)
				return types.VerdictFail
			}
		}

		if totalMin > budget {
			e.logger.Warn("", "", fmt.Sprintf("Feasibility failed: day %d needs %dm, window allows %dm", day.Day, totalMin, budget), nil)
			return types.VerdictFail
		}

		count := len(day.Blocks)
		if prefs.Pace == types.PaceRelaxed && count > relaxedMaxBlocks {
			return types.VerdictFail
		}
		if prefs.Pace == types.PaceFast && count < fastMinBlocks {
			return types.VerdictFail
		}
	}

	return types.VerdictPass
}

func (e *EvaluationEngine) evaluateGrounding(itinerary types.Itinerary, validCandidates []types.POICandidate) types.Verdict {
	validIDs := make(map[string]bool, len(validCandidates))
	for _, c := range validCandidates {
		validIDs[c.POIID] = true
	}

	for _, day := range itinerary.Days {
		for _, block := range day.Blocks {
			if !validIDs[block.POIID] {
				e.logger.Warn("", "", fmt.Sprintf("Grounding failed: POI %s not in candidate set", block.POIID), nil)
				return types.VerdictFail
			}
		}
	}
	return types.VerdictPass
}

// evaluateEditCorrectness trivially passes without a previous itinerary and
// edit request. With both present it detects removal intent but performs no
// diff yet.
// TODO: diff previous against current when the request asks to remove a POI.
func (e *EvaluationEngine) evaluateEditCorrectness(_ types.Itinerary, previous *types.Itinerary, request string) types.Verdict {
	if previous == nil || request == "" {
		return types.VerdictPass
	}

	req := strings.ToLower(request)
	if strings.Contains(req, "remove") || strings.Contains(req, "delete") {
		e.logger.Debug("", "", "Edit request detected, diff check not yet enforced", nil)
	}
	return types.VerdictPass
}

var digitRunRe = regexp.MustCompile(`\d+`)

// ParseTimeWindowBudget converts a "HH:MM-HH:MM"-style window into a minute
// budget. Lower-cases and strips whitespace, splits on "to", "-" or "until",
// and parses each side from its first digit run with am/pm adjustment. Any
// parse failure, and any non-positive span, yields the 600-minute default.
func ParseTimeWindowBudget(window string) int {
	normalized := strings.ToLower(strings.ReplaceAll(window, " ", ""))

	var parts []string
	for _, sep := range []string{"to", "-", "until"} {
		if strings.Contains(normalized, sep) {
			parts = strings.SplitN(normalized, sep, 2)
			break
		}
	}
	if len(parts) != 2 {
		return defaultDayBudgetMin
	}

	startHour, okStart := parseHour(parts[0])
	endHour, okEnd := parseHour(parts[1])
	if !okStart || !okEnd {
		return defaultDayBudgetMin
	}

	total := (endHour - startHour) * 60
	if total <= 0 {
		return defaultDayBudgetMin
	}
	return total
}

func parseHour(text string) (int, bool) {
	m := digitRunRe.FindString(text)
	if m == "" {
		return 0, false
	}
	val, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}

	if strings.Contains(text, "pm") && val < 12 {
		val += 12
	}
	if strings.Contains(text, "am") && val == 12 {
		val = 0
	}
	return val, true
}
