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

// Package main is the entry point for the TripWise trip-planning agent.
//
// The agent is a conversational service that:
// - Collects travel preferences over chat turns
// - Discovers points of interest from Wikipedia
// - Synthesizes day-wise itineraries through an LLM-backed tool pipeline
// - Validates every itinerary against feasibility and grounding rules
// - Exports accepted itineraries as PDF or email on request
//
// Usage:
//
//	./agent
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	CONFIG_FILE - optional YAML configuration file
//	GROQ_API_KEY - Groq API key (optional; heuristics cover extraction without it)
//	GROQ_MODEL - Groq model override (optional)
//	SMTP_HOST, SMTP_PORT, SMTP_FROM, SMTP_PASSWORD - email delivery (optional)
package main

import (
	"log"

	"github.com/joho/godotenv"

	"tripwise/platform/orchestrator"
)

func main() {
	// Missing .env is fine; environment variables may be set directly.
	_ = godotenv.Load()

	if err := orchestrator.Run(); err != nil {
		log.Fatalf("agent exited: %v", err)
	}
}
