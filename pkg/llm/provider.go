// Copyright 2025 KrakLabs
//
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
//
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a unified interface for Large Language Model
// providers used by the documentation and diagram stages. Supported
// backends: Ollama, OpenAI-compatible APIs, Anthropic, and a mock for tests.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider defines the interface for text generation.
type Provider interface {
	// Generate produces a text completion for the given prompt.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider identifier.
	Name() string
}

// GenerateRequest represents a text generation request.
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	System      string   `json:"system,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// GenerateResponse contains the provider's completion.
type GenerateResponse struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	PromptTokens int           `json:"prompt_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// ProviderConfig holds configuration for creating providers.
type ProviderConfig struct {
	// Provider type: "ollama", "openai", "anthropic", "mock"
	Type string `json:"type" yaml:"type"`

	// BaseURL for the API endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey for authenticated providers (OpenAI, Anthropic)
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Model to use if not specified in requests
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Timeout for API requests
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 120 * time.Second

// NewProvider creates a Provider based on configuration.
// Supported types: "ollama", "openai", "anthropic", "mock"
//
// Environment variables:
//   - OLLAMA_HOST: Ollama server URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Default Ollama model
//   - OPENAI_API_KEY: OpenAI API key
//   - OPENAI_BASE_URL: OpenAI-compatible API URL
//   - OPENAI_MODEL: Default OpenAI model
//   - ANTHROPIC_API_KEY: Anthropic API key
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch strings.ToLower(cfg.Type) {
	case "ollama", "local", "":
		return newOllamaProvider(cfg), nil
	case "openai", "openai-compatible":
		return newOpenAIProvider(cfg), nil
	case "anthropic", "claude":
		return newAnthropicProvider(cfg), nil
	case "mock", "test":
		return &MockProvider{model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s (supported: ollama, openai, anthropic, mock)", cfg.Type)
	}
}

// GenerationError wraps a provider failure so callers can report which
// backend refused the request.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// postJSON sends payload and decodes the response into out. Non-200 statuses
// become errors carrying the response body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// =============================================================================
// OLLAMA PROVIDER
// =============================================================================

type ollamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func newOllamaProvider(cfg ProviderConfig) *ollamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("OLLAMA_MODEL")
	}

	return &ollamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *ollamaProvider) Name() string { return "ollama" }

func (p *ollamaProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return nil, &GenerationError{Provider: p.Name(), Err: fmt.Errorf("model not specified (set OLLAMA_MODEL or pass in request)")}
	}

	payload := map[string]any{
		"model":  model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}
	if len(options) > 0 {
		payload["options"] = options
	}

	var result struct {
		Response        string `json:"response"`
		Model           string `json:"model"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}

	start := time.Now()
	if err := postJSON(ctx, p.client, p.baseURL+"/api/generate", nil, payload, &result); err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}

	return &GenerateResponse{
		Text:         result.Response,
		Model:        result.Model,
		PromptTokens: result.PromptEvalCount,
		OutputTokens: result.EvalCount,
		Duration:     time.Since(start),
	}, nil
}

// =============================================================================
// OPENAI-COMPATIBLE PROVIDER
// =============================================================================

type openaiProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newOpenAIProvider(cfg ProviderConfig) *openaiProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &openaiProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	payload := map[string]any{
		"model":    model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}
	if len(req.Stop) > 0 {
		payload["stop"] = req.Stop
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}

	start := time.Now()
	if err := postJSON(ctx, p.client, p.baseURL+"/chat/completions", headers, payload, &result); err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}
	if len(result.Choices) == 0 {
		return nil, &GenerationError{Provider: p.Name(), Err: fmt.Errorf("no choices returned")}
	}

	return &GenerateResponse{
		Text:         result.Choices[0].Message.Content,
		Model:        result.Model,
		PromptTokens: result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		Duration:     time.Since(start),
	}, nil
}

// =============================================================================
// ANTHROPIC PROVIDER
// =============================================================================

type anthropicProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newAnthropicProvider(cfg ProviderConfig) *anthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("ANTHROPIC_MODEL")
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	return &anthropicProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	payload := map[string]any{
		"model":      model,
		"messages":   []map[string]string{{"role": "user", "content": req.Prompt}},
		"max_tokens": maxTokens,
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}
	if len(req.Stop) > 0 {
		payload["stop_sequences"] = req.Stop
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	start := time.Now()
	if err := postJSON(ctx, p.client, p.baseURL+"/messages", headers, payload, &result); err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}

	var text strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return &GenerateResponse{
		Text:         text.String(),
		Model:        result.Model,
		PromptTokens: result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		Duration:     time.Since(start),
	}, nil
}

// =============================================================================
// MOCK PROVIDER (for testing)
// =============================================================================

// MockProvider is a test provider that returns predictable responses.
type MockProvider struct {
	model        string
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if p.GenerateFunc != nil {
		return p.GenerateFunc(ctx, req)
	}
	return &GenerateResponse{
		Text:         fmt.Sprintf("[mock] Generated response for: %.50s", req.Prompt),
		Model:        "mock-model",
		PromptTokens: len(req.Prompt) / 4,
		OutputTokens: 20,
		Duration:     10 * time.Millisecond,
	}, nil
}
