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

package llm

import (
	"os"
)

// DefaultProvider creates a provider from environment variables.
// Checks in order: OLLAMA_HOST, OPENAI_API_KEY, ANTHROPIC_API_KEY.
// Falls back to mock if nothing is configured.
func DefaultProvider() (Provider, error) {
	if os.Getenv("OLLAMA_HOST") != "" || os.Getenv("OLLAMA_MODEL") != "" {
		return NewProvider(ProviderConfig{Type: "ollama"})
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "openai"})
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "anthropic"})
	}
	return NewProvider(ProviderConfig{Type: "mock"})
}

// SystemPrompts contains the system prompts the rendering stages use.
var SystemPrompts = struct {
	RepoDocument  string
	RepoDiagram   string
	ReadmeSummary string
}{
	RepoDocument: `You are a technical writer producing repository documentation.
You are given a structured summary of a codebase: its languages, framework,
files, declared functions, classes, UI components, and import relationships.
Write clear markdown documentation covering:
- What the repository appears to do
- Its structure and main modules
- Key entities and how they relate
Base every statement on the summary. Do not invent files or APIs.`,

	RepoDiagram: `You are given a Mermaid diagram of a codebase's import structure
and a summary of its modules. Improve the diagram: group related files into
subgraphs, keep every existing node, and return ONLY valid Mermaid syntax
with no surrounding prose or code fences.`,

	ReadmeSummary: `Summarize the following README in at most three sentences.
Keep concrete project names and purposes; drop installation instructions,
badges, and licensing boilerplate.`,
}
