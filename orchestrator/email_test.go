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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMTPMailerConfigured(t *testing.T) {
	assert.False(t, NewSMTPMailer("", "587", "", "").Configured())
	assert.False(t, NewSMTPMailer("smtp.example.com", "587", "trips@example.com", "").Configured())
	assert.True(t, NewSMTPMailer("smtp.example.com", "587", "trips@example.com", "secret").Configured())
}

func TestSendItineraryUnconfigured(t *testing.T) {
	err := NewSMTPMailer("", "", "", "").SendItinerary("traveler@example.com", []byte("%PDF"))
	assert.Error(t, err)
}

func TestBuildMIMEMessage(t *testing.T) {
	msg := string(buildMIMEMessage("trips@example.com", "traveler@example.com",
		"Your Trip Itinerary", "body text", []byte("%PDF-1.4 fake")))

	assert.Contains(t, msg, "From: trips@example.com\r\n")
	assert.Contains(t, msg, "To: traveler@example.com\r\n")
	assert.Contains(t, msg, "Subject: Your Trip Itinerary\r\n")
	assert.Contains(t, msg, "Content-Type: multipart/mixed")
	assert.Contains(t, msg, "Content-Type: application/pdf")
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
	assert.Contains(t, msg, "body text")
	assert.True(t, strings.HasSuffix(msg, "--tripwise-attachment-boundary--\r\n"))

	// Base64 lines stay within the RFC line-length limit.
	inAttachment := false
	for _, line := range strings.Split(msg, "\r\n") {
		if strings.Contains(line, "base64") {
			inAttachment = true
			continue
		}
		if inAttachment && line != "" && !strings.HasPrefix(line, "--") {
			assert.LessOrEqual(t, len(line), 76)
		}
	}
}
