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

// Package llm provides a unified interface and types for language-model
// providers. The platform treats model calls as untrusted collaborators:
// callers are expected to validate or fall back when a completion cannot be
// parsed.
package llm

// ProviderType identifies the type of LLM provider.
type ProviderType string

const (
	// ProviderTypeGroq represents Groq's OpenAI-compatible chat API.
	ProviderTypeGroq ProviderType = "groq"

	// ProviderTypeOpenAI represents OpenAI's chat completion API.
	ProviderTypeOpenAI ProviderType = "openai"

	// ProviderTypeCustom represents a custom/third-party provider.
	ProviderTypeCustom ProviderType = "custom"
)

// CompletionRequest encapsulates all parameters for an LLM completion request.
type CompletionRequest struct {
	// Prompt is the user's input text/question.
	Prompt string `json:"prompt"`

	// SystemPrompt is an optional system message that sets context/behavior.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// MaxTokens limits the maximum number of tokens in the response.
	// If 0, provider defaults are used.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64 `json:"temperature,omitempty"`

	// JSONMode requests a JSON-object response where the provider supports it.
	JSONMode bool `json:"json_mode,omitempty"`
}

// CompletionResponse contains the result of an LLM completion.
type CompletionResponse struct {
	// Content is the generated text response.
	Content string `json:"content"`

	// Model is the actual model used (may differ from requested).
	Model string `json:"model"`

	// TokensUsed is the total token count reported by the provider.
	TokensUsed int `json:"tokens_used"`
}
