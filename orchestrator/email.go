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
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends an itinerary PDF to a recipient.
type Mailer interface {
	// Configured reports whether the mailer has working credentials.
	Configured() bool

	// SendItinerary delivers the PDF attachment to the address.
	SendItinerary(to string, pdf []byte) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	From     string
	Password string
}

// NewSMTPMailer creates a mailer from explicit settings.
func NewSMTPMailer(host, port, from, password string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, From: from, Password: password}
}

func (m *SMTPMailer) Configured() bool {
	return m.Host != "" && m.From != "" && m.Password != ""
}

// SendItinerary sends a MIME message with the PDF attached.
func (m *SMTPMailer) SendItinerary(to string, pdf []byte) error {
	if !m.Configured() {
		return fmt.Errorf("smtp mailer not configured")
	}

	msg := buildMIMEMessage(m.From, to, "Your Trip Itinerary",
		"Hi,\r\n\r\nYour itinerary is attached as a PDF.\r\n\r\nSafe travels!", pdf)

	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	if err := smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send itinerary email: %w", err)
	}
	return nil
}

func buildMIMEMessage(from, to, subject, body string, pdf []byte) []byte {
	const boundary = "tripwise-attachment-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	b.WriteString("\r\n\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: application/pdf; name=\"itinerary.pdf\"\r\n")
	b.WriteString("Content-Disposition: attachment; filename=\"itinerary.pdf\"\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	encoded := base64.StdEncoding.EncodeToString(pdf)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)

	return []byte(b.String())
}
