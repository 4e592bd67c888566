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

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.3-70b-versatile"
)

// GroqProvider calls Groq's OpenAI-compatible chat completions endpoint.
type GroqProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// GroqOption customizes a GroqProvider.
type GroqOption func(*GroqProvider)

// WithGroqBaseURL overrides the API base URL. Used in tests and for
// OpenAI-compatible self-hosted endpoints.
func WithGroqBaseURL(url string) GroqOption {
	return func(p *GroqProvider) { p.baseURL = url }
}

// WithGroqHTTPClient overrides the HTTP client.
func WithGroqHTTPClient(c *http.Client) GroqOption {
	return func(p *GroqProvider) { p.httpClient = c }
}

// NewGroqProvider creates a provider configured from the environment
// (GROQ_API_KEY, GROQ_MODEL). A provider without an API key is still valid;
// Configured() returns false and callers fall back to deterministic paths.
func NewGroqProvider(opts ...GroqOption) *GroqProvider {
	model := os.Getenv("GROQ_MODEL")
	if model == "" {
		model = defaultGroqModel
	}

	p := &GroqProvider{
		apiKey:     os.Getenv("GROQ_API_KEY"),
		model:      model,
		baseURL:    defaultGroqBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// NewGroqProviderWithKey creates a provider with explicit credentials.
func NewGroqProviderWithKey(apiKey, model string, opts ...GroqOption) *GroqProvider {
	if model == "" {
		model = defaultGroqModel
	}

	p := &GroqProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGroqBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider instance identifier.
func (p *GroqProvider) Name() string { return "groq" }

// Type returns the provider type.
func (p *GroqProvider) Type() ProviderType { return ProviderTypeGroq }

// Configured reports whether an API key is available.
func (p *GroqProvider) Configured() bool { return p.apiKey != "" }

// chatMessage is one message in the OpenAI-compatible wire format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    float64        `json:"temperature,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request and returns the first choice.
func (p *GroqProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !p.Configured() {
		return nil, fmt.Errorf("groq provider not configured: missing API key")
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion response contained no choices")
	}

	return &CompletionResponse{
		Content:    parsed.Choices[0].Message.Content,
		Model:      parsed.Model,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
