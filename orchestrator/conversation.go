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

// Package orchestrator is the conversational core of the trip planner: it
// collects preferences over chat turns, drives the construction pipeline
// through the tool gateway once the user confirms, gates the result behind
// the evaluation engine, and routes post-generation intents (explanations,
// PDF export, email delivery).
package orchestrator

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tripwise/platform/shared/logger"
	"tripwise/platform/shared/types"
)

// Session is the per-conversation state. The mutex serializes messages for
// one session; independent sessions proceed concurrently.
type Session struct {
	mu sync.Mutex

	ID                string
	State             types.AgentState
	Preferences       types.UserPreferences
	CurrentItinerary  *types.Itinerary
	PreviousItinerary *types.Itinerary
	LastUserMessage   string
	ValidCandidates   []types.POICandidate
}

// Response is what a handled message produces for the transport layer.
type Response struct {
	Message         string                 `json:"message,omitempty"`
	UserPreferences *types.UserPreferences `json:"user_preferences,omitempty"`
	Payload         *types.UIReadyPayload  `json:"payload,omitempty"`
	PDFDownloadPath string                 `json:"pdf_download_path,omitempty"`
}

// confirmationTokens trigger generation when preferences are complete and
// unchanged on the current turn.
var confirmationTokens = []string{"yes", "generate", "proceed", "correct", "go ahead"}

var emailRe = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)

// Agent is the conversation controller shared across sessions. All
// per-conversation state lives in the Session; the Agent itself is stateless
// and safe for concurrent use.
type Agent struct {
	prefManager *PreferenceManager
	pipeline    *Pipeline
	evaluator   *EvaluationEngine
	reasoner    *ReasoningManager
	pdfExporter *PDFExporter
	artifacts   *ArtifactStore
	mailer      Mailer
	logger      *logger.Logger
}

// NewAgent wires the conversation controller.
func NewAgent(
	prefManager *PreferenceManager,
	pipeline *Pipeline,
	evaluator *EvaluationEngine,
	reasoner *ReasoningManager,
	pdfExporter *PDFExporter,
	artifacts *ArtifactStore,
	mailer Mailer,
	log *logger.Logger,
) *Agent {
	return &Agent{
		prefManager: prefManager,
		pipeline:    pipeline,
		evaluator:   evaluator,
		reasoner:    reasoner,
		pdfExporter: pdfExporter,
		artifacts:   artifacts,
		mailer:      mailer,
		logger:      log,
	}
}

// NewSession creates a fresh session in the collecting state.
func (a *Agent) NewSession(id string) *Session {
	return &Session{
		ID:          id,
		State:       types.StateCollectingPreferences,
		Preferences: a.prefManager.InitialPreferences(),
	}
}

// HandleMessage processes one user message for a session. The session lock
// is held for the full turn, including external tool calls, so messages for
// the same session are handled strictly one at a time. An internal panic
// resets the session to preference collection; the conversation stays usable.
func (a *Agent) HandleMessage(ctx context.Context, s *Session, message string) (resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error(s.ID, "", fmt.Sprintf("Message handling panicked: %v", r), nil)
			s.State = types.StateCollectingPreferences
			resp = a.respond(s, "Something went wrong while planning your trip. Let's try again - your preferences are saved.")
		}
	}()

	s.LastUserMessage = message
	messagesTotal.WithLabelValues(string(s.State)).Inc()

	switch s.State {
	case types.StateCollectingPreferences:
		return a.handleCollecting(ctx, s, message)
	case types.StateReadyForUI:
		return a.handleReady(ctx, s, message)
	default:
		return a.respond(s, "I'm still working on your itinerary. One moment please.")
	}
}

func (a *Agent) handleCollecting(ctx context.Context, s *Session, message string) Response {
	before := s.Preferences
	s.Preferences = a.prefManager.Update(ctx, s.Preferences, message)
	changed := !reflect.DeepEqual(before, s.Preferences)

	if len(a.prefManager.MissingFields(s.Preferences)) > 0 {
		return a.respond(s, a.prefManager.NextQuestion(s.Preferences))
	}

	// A turn that changed a preference is never treated as a confirmation;
	// the user gets an explicit confirmation prompt first.
	if changed {
		return a.respond(s, fmt.Sprintf("Got it! Updated your trip to %d days in %s. Ready to generate?",
			s.Preferences.TripDays, s.Preferences.City))
	}

	if isConfirmation(message) {
		s.Preferences.Confirmed = true
		s.State = types.StateGenerating
		return a.generate(ctx, s)
	}

	return a.respond(s, fmt.Sprintf("I have all details for %s. Ready to generate the itinerary?", s.Preferences.City))
}

func (a *Agent) generate(ctx context.Context, s *Session) Response {
	a.logger.Info(s.ID, "", "Starting generation flow", map[string]any{"city": s.Preferences.City})

	built, candidates, err := a.pipeline.Generate(ctx, s.ID, s.Preferences)
	if err != nil {
		a.logger.ErrorWithCause(s.ID, "", "Generation flow failed", err, nil)
		generationsTotal.WithLabelValues("error").Inc()
		s.State = types.StateCollectingPreferences
		return a.respond(s, "Generation failed. Please try again or adjust your preferences.")
	}

	s.ValidCandidates = candidates
	s.CurrentItinerary = &built
	fillBlockNames(&built, candidates)

	s.State = types.StateEvaluating
	result := a.evaluator.Evaluate(built, candidates, s.Preferences, s.PreviousItinerary, s.LastUserMessage)

	if result.OverallStatus != types.VerdictPass {
		a.logger.Warn(s.ID, "", "Evaluation rejected itinerary", map[string]any{
			"feasibility":      string(result.Details.Feasibility),
			"grounding":        string(result.Details.Grounding),
			"edit_correctness": string(result.Details.EditCorrectness),
		})
		generationsTotal.WithLabelValues("rejected").Inc()
		s.State = types.StateCollectingPreferences
		return a.respond(s, "Itinerary generation failed evaluation. The system detected ungrounded or unfeasible blocks. Please try adjusting your preferences.")
	}

	generationsTotal.WithLabelValues("pass").Inc()
	s.State = types.StateReadyForUI
	s.PreviousItinerary = s.CurrentItinerary

	payload := &types.UIReadyPayload{
		State:             s.State,
		Itinerary:         built,
		EvaluationSummary: result.Details,
		Candidates:        candidates,
		SourcesAvailable:  true,
		UserPreferences: &types.PreferencesSummary{
			City:            s.Preferences.City,
			TripDays:        s.Preferences.TripDays,
			DailyTimeWindow: s.Preferences.DailyTimeWindow,
			Interests:       s.Preferences.Interests,
			Pace:            s.Preferences.Pace,
		},
	}
	return Response{Payload: payload, UserPreferences: &s.Preferences}
}

func (a *Agent) handleReady(ctx context.Context, s *Session, message string) Response {
	req := strings.ToLower(message)

	switch {
	case containsAny(req, "why", "reason", "justification", "explain"):
		return a.respond(s, a.justify(ctx, s, req))
	case containsAny(req, "pdf", "export"):
		return a.exportPDF(s)
	case strings.Contains(req, "email"):
		return a.respond(s, a.emailItinerary(s, req))
	default:
		return a.respond(s, "Your itinerary is ready. You can ask me 'Why?' to see the reasoning, 'Export PDF' to download it, or 'Email me' to receive it.")
	}
}

// justify explains scheduled places, narrowed to the ones named in the query
// when the user asked about a specific place.
func (a *Agent) justify(ctx context.Context, s *Session, query string) string {
	if s.CurrentItinerary == nil {
		return "No itinerary available to justify."
	}

	byID := make(map[string]types.POICandidate, len(s.ValidCandidates))
	for _, c := range s.ValidCandidates {
		byID[c.POIID] = c
	}

	var all []POIWithContext
	for _, day := range s.CurrentItinerary.Days {
		for _, block := range day.Blocks {
			poi := POIWithContext{
				POIID:         block.POIID,
				Name:          block.POIID,
				ScheduledTime: block.TimeOfDay,
				DurationMin:   block.DurationMin,
				TravelTimeMin: block.TravelTimeMin,
			}
			if c, ok := byID[block.POIID]; ok {
				poi.Name = c.Name
				poi.Description = c.Description
			}
			all = append(all, poi)
		}
	}

	targets := filterQueried(all, query)
	if len(targets) == 0 {
		targets = all
	}

	answers := a.reasoner.JustifyPOIs(ctx, targets, s.Preferences.City, s.Preferences.Interests, s.Preferences.DailyTimeWindow)
	if len(answers) == 0 {
		return "I couldn't find that location in your itinerary. Could you rephrase your question?"
	}

	var b strings.Builder
	for i, answer := range answers {
		fmt.Fprintf(&b, "**%s:**\n%s\n", targets[i].Name, answer.Answer)
		if len(answer.Citations) > 0 {
			fmt.Fprintf(&b, "*Sources: %s*\n", strings.Join(answer.Citations, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func (a *Agent) exportPDF(s *Session) Response {
	if s.CurrentItinerary == nil {
		return a.respond(s, "No itinerary to export.")
	}

	data, err := a.pdfExporter.Render(s.Preferences.City, *s.CurrentItinerary)
	if err != nil {
		a.logger.ErrorWithCause(s.ID, "", "PDF generation failed", err, nil)
		return a.respond(s, "Sorry, I couldn't generate the PDF at this time.")
	}

	id := uuid.NewString()
	a.artifacts.Put(id, data)

	resp := a.respond(s, "I've generated your PDF itinerary. Use the download link to save it.")
	resp.PDFDownloadPath = "/download-pdf/" + id
	return resp
}

func (a *Agent) emailItinerary(s *Session, req string) string {
	if s.CurrentItinerary == nil {
		return "No itinerary to email."
	}

	address := emailRe.FindString(req)
	if address == "" {
		return "Please provide a valid email address (e.g., 'Email to traveler@example.com')."
	}

	data, err := a.pdfExporter.Render(s.Preferences.City, *s.CurrentItinerary)
	if err != nil {
		a.logger.ErrorWithCause(s.ID, "", "PDF generation for email failed", err, nil)
		return "An error occurred while preparing the email."
	}

	if a.mailer == nil || !a.mailer.Configured() {
		return "Failed to send email. Please check your system configuration."
	}
	if err := a.mailer.SendItinerary(address, data); err != nil {
		a.logger.ErrorWithCause(s.ID, "", "Email delivery failed", err, nil)
		return "Failed to send email. Please check your system configuration."
	}
	return fmt.Sprintf("Email sent to %s!", address)
}

func (a *Agent) respond(s *Session, text string) Response {
	return Response{Message: text, UserPreferences: &s.Preferences}
}

func isConfirmation(message string) bool {
	lower := strings.ToLower(message)
	return containsAny(lower, confirmationTokens...)
}

func containsAny(text string, tokens ...string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// filterQueried keeps the places the query names, matching on the full name
// or any significant word of it.
func filterQueried(all []POIWithContext, query string) []POIWithContext {
	var out []POIWithContext
	for _, poi := range all {
		name := strings.ToLower(poi.Name)
		if strings.Contains(query, name) {
			out = append(out, poi)
			continue
		}
		for _, word := range strings.Fields(name) {
			if len(word) > 3 && strings.Contains(query, word) {
				out = append(out, poi)
				break
			}
		}
	}
	return out
}

// fillBlockNames denormalizes candidate names into blocks missing one.
func fillBlockNames(it *types.Itinerary, candidates []types.POICandidate) {
	names := make(map[string]string, len(candidates))
	for _, c := range candidates {
		names[c.POIID] = c.Name
	}
	for d := range it.Days {
		for b := range it.Days[d].Blocks {
			if it.Days[d].Blocks[b].POIName == "" {
				it.Days[d].Blocks[b].POIName = names[it.Days[d].Blocks[b].POIID]
			}
		}
	}
}
