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

package main

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/ccg/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("myproject")

	if cfg.ProjectID != "myproject" {
		t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "myproject")
	}
	if cfg.Output.Dir != "ccg-output" {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, "ccg-output")
	}
	if cfg.Analysis.ParserMode != "auto" {
		t.Errorf("Analysis.ParserMode = %q, want %q", cfg.Analysis.ParserMode, "auto")
	}
	if cfg.LLM.Enabled {
		t.Error("LLM.Enabled should default to false")
	}
	if cfg.LLM.Type != "ollama" {
		t.Errorf("LLM.Type = %q, want %q", cfg.LLM.Type, "ollama")
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Errorf("LLM.BaseURL = %q, want %q", cfg.LLM.BaseURL, "http://localhost:11434")
	}
	if cfg.LLM.Model != "llama3.1" {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, "llama3.1")
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/some/repo")
	want := filepath.Join("/some/repo", ".ccg", "project.yaml")
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, ".ccg", "project.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() on missing file should not error, got %v", err)
	}
	if cfg.Output.Dir != "ccg-output" {
		t.Errorf("missing config should yield defaults, got Output.Dir=%q", cfg.Output.Dir)
	}
	if cfg.ProjectID == "" {
		t.Error("missing config should still backfill a project ID")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	content := `project_id: sample-app
output:
  dir: build/ccg
analysis:
  parser_mode: simplified
  workers: 4
  max_file_size: 524288
  exclude:
    - "**/generated/**"
llm:
  enabled: true
  type: openai
  model: gpt-4o-mini
  api_key: sk-test
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ProjectID != "sample-app" {
		t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "sample-app")
	}
	if cfg.Output.Dir != "build/ccg" {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, "build/ccg")
	}
	if cfg.Analysis.ParserMode != "simplified" {
		t.Errorf("Analysis.ParserMode = %q, want %q", cfg.Analysis.ParserMode, "simplified")
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("Analysis.Workers = %d, want 4", cfg.Analysis.Workers)
	}
	if cfg.Analysis.MaxFileSize != 524288 {
		t.Errorf("Analysis.MaxFileSize = %d, want 524288", cfg.Analysis.MaxFileSize)
	}
	if len(cfg.Analysis.Exclude) != 1 || cfg.Analysis.Exclude[0] != "**/generated/**" {
		t.Errorf("Analysis.Exclude = %v, want [**/generated/**]", cfg.Analysis.Exclude)
	}
	if !cfg.LLM.Enabled {
		t.Error("LLM.Enabled should be true")
	}
	if cfg.LLM.Type != "openai" {
		t.Errorf("LLM.Type = %q, want %q", cfg.LLM.Type, "openai")
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	content := `project_id: partial
output:
  dir: out
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Analysis.ParserMode != "auto" {
		t.Errorf("Analysis.ParserMode = %q, want default %q", cfg.Analysis.ParserMode, "auto")
	}
	if cfg.LLM.Type != "ollama" {
		t.Errorf("LLM.Type = %q, want default %q", cfg.LLM.Type, "ollama")
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, "out")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	if err := os.WriteFile(path, []byte("project_id: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() should fail on malformed YAML")
	}

	var userErr *errors.UserError
	if !stderrors.As(err, &userErr) {
		t.Fatalf("error should be *errors.UserError, got %T", err)
	}
	if userErr.ExitCode != errors.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", userErr.ExitCode, errors.ExitConfig)
	}
	if !strings.Contains(userErr.Cause, "not valid YAML") {
		t.Errorf("Cause = %q, should mention invalid YAML", userErr.Cause)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	original := DefaultConfig("roundtrip")
	original.Output.Dir = "artifacts"
	original.Analysis.Workers = 2
	original.Analysis.Exclude = []string{"**/vendor/**", "**/dist/**"}
	original.LLM.Enabled = true
	original.LLM.Type = "anthropic"
	original.LLM.Model = "claude-sonnet"

	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	// Saved file carries the explanatory header.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# ccg project configuration") {
		t.Error("saved config should start with the comment header")
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}

	if loaded.ProjectID != original.ProjectID {
		t.Errorf("ProjectID = %q, want %q", loaded.ProjectID, original.ProjectID)
	}
	if loaded.Output.Dir != original.Output.Dir {
		t.Errorf("Output.Dir = %q, want %q", loaded.Output.Dir, original.Output.Dir)
	}
	if loaded.Analysis.Workers != original.Analysis.Workers {
		t.Errorf("Analysis.Workers = %d, want %d", loaded.Analysis.Workers, original.Analysis.Workers)
	}
	if len(loaded.Analysis.Exclude) != 2 {
		t.Errorf("Analysis.Exclude = %v, want 2 entries", loaded.Analysis.Exclude)
	}
	if loaded.LLM.Type != original.LLM.Type {
		t.Errorf("LLM.Type = %q, want %q", loaded.LLM.Type, original.LLM.Type)
	}
	if loaded.LLM.Model != original.LLM.Model {
		t.Errorf("LLM.Model = %q, want %q", loaded.LLM.Model, original.LLM.Model)
	}
}

func TestSaveConfig_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	cfg := DefaultConfig("perms")
	cfg.LLM.APIKey = "secret"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// API keys may live in the file, so it must not be group/world readable.
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}
