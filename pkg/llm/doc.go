// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm provides a unified interface for Large Language Model
// providers.
//
// The documentation and diagram stages use a Provider to turn graph
// summaries into prose and refined Mermaid diagrams. The package abstracts
// the differences between the supported APIs behind a single Generate call.
//
// # Supported Providers
//
//   - Ollama: Local models, no API key required (default)
//   - OpenAI: GPT models and OpenAI-compatible APIs
//   - Anthropic: Claude models
//   - Mock: For testing without real API calls
//
// # Quick Start
//
// Create a provider explicitly:
//
//	provider, err := llm.NewProvider(llm.ProviderConfig{
//	    Type:   "openai",
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Generate(ctx, llm.GenerateRequest{
//	    Prompt: "Summarize this repository: ...",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text)
//
// # Provider Selection
//
// The [DefaultProvider] function selects a provider from the environment,
// checking in order:
//  1. OLLAMA_HOST or OLLAMA_MODEL set - Uses Ollama (local)
//  2. OPENAI_API_KEY set - Uses OpenAI
//  3. ANTHROPIC_API_KEY set - Uses Anthropic
//  4. No credentials - Falls back to mock provider
//
// # Environment Variables
//
// Ollama (local, free):
//   - OLLAMA_HOST: Server URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Model name (e.g., "llama3", "codellama")
//
// OpenAI:
//   - OPENAI_API_KEY: API key (required)
//   - OPENAI_BASE_URL: API URL for compatible services (e.g., Azure)
//   - OPENAI_MODEL: Model name (default: gpt-4o-mini)
//
// Anthropic:
//   - ANTHROPIC_API_KEY: API key (required)
//   - ANTHROPIC_MODEL: Model name (default: claude-3-5-sonnet-20241022)
//
// # Error Handling
//
// Provider failures come back as *GenerationError naming the backend, so
// the pipeline can report which provider refused a request and mark the
// stage failed.
package llm
