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
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ccg/internal/errors"
)

// Config is the .ccg/project.yaml configuration.
type Config struct {
	// ProjectID is the logical project identifier. Defaults to the
	// repository directory name.
	ProjectID string `yaml:"project_id"`

	// Output controls where artifacts are written.
	Output OutputConfig `yaml:"output"`

	// Analysis controls scanning and extraction.
	Analysis AnalysisConfig `yaml:"analysis"`

	// LLM configures the documentation and diagram provider.
	LLM LLMConfig `yaml:"llm"`
}

// OutputConfig controls artifact placement.
type OutputConfig struct {
	// Dir is the root output directory. Each run writes its artifacts
	// under Dir/<run name>/.
	Dir string `yaml:"dir"`
}

// AnalysisConfig controls scanning and extraction.
type AnalysisConfig struct {
	// ParserMode selects the extractor: "auto", "treesitter", or "simplified".
	ParserMode string `yaml:"parser_mode"`

	// Workers bounds the extraction worker pool. 0 uses all CPUs.
	Workers int `yaml:"workers"`

	// MaxFileSize is the per-file size ceiling in bytes. 0 uses the default.
	MaxFileSize int64 `yaml:"max_file_size"`

	// Exclude extends the default exclude globs.
	Exclude []string `yaml:"exclude"`
}

// LLMConfig configures the generation provider for the documentation and
// diagram stages.
type LLMConfig struct {
	// Enabled turns LLM-backed generation on. When false the documentation
	// falls back to the structural summary and the diagram stays local.
	Enabled bool `yaml:"enabled"`

	// Type is the provider backend: "ollama", "openai", "anthropic", "mock".
	Type string `yaml:"type"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Model names the generation model.
	Model string `yaml:"model,omitempty"`

	// APIKey authenticates against OpenAI or Anthropic. Optional for
	// local backends.
	APIKey string `yaml:"api_key,omitempty"`
}

// ConfigDir returns the .ccg directory under root.
func ConfigDir(root string) string {
	return filepath.Join(root, ".ccg")
}

// ConfigPath returns the path of the project configuration file under root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), "project.yaml")
}

// DefaultConfig returns the configuration used when no project.yaml exists.
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		Output: OutputConfig{
			Dir: "ccg-output",
		},
		Analysis: AnalysisConfig{
			ParserMode: "auto",
		},
		LLM: LLMConfig{
			Enabled: false,
			Type:    "ollama",
			BaseURL: "http://localhost:11434",
			Model:   "llama3.1",
		},
	}
}

// LoadConfig reads the configuration from path, or ./.ccg/project.yaml when
// path is empty. A missing file is not an error: defaults are returned so
// 'ccg analyze' works without prior 'ccg init'.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user's own flag
	if err != nil {
		if os.IsNotExist(err) {
			cwd, _ := os.Getwd()
			return DefaultConfig(filepath.Base(cwd)), nil
		}
		return nil, errors.NewConfigError(
			"Cannot read project configuration",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions, or run 'ccg init' to recreate it",
			err,
		)
	}

	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(
			"Cannot parse project configuration",
			fmt.Sprintf("%s is not valid YAML", path),
			"Fix the YAML syntax, or delete the file to use defaults",
			err,
		)
	}
	if cfg.ProjectID == "" {
		cwd, _ := os.Getwd()
		cfg.ProjectID = filepath.Base(cwd)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}

	header := []byte("# ccg project configuration\n# See 'ccg analyze --help' for the matching command-line flags.\n")
	return os.WriteFile(path, append(header, data...), 0o600)
}
