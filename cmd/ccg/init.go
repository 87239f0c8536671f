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
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive     bool
	projectID, outDir         string
	parserMode, provider      string
	model, baseURL, llmAPIKey string
}

// runInit executes the 'init' CLI command, creating a .ccg/project.yaml
// configuration file.
//
// It creates the configuration directory, generates a default configuration,
// and optionally prompts the user for customization in interactive mode.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --project-id: Project identifier (default: directory name)
//   - --out: Output directory for artifacts
//   - --parser: Extractor mode (auto, treesitter, simplified)
//   - --provider: LLM backend (ollama, openai, anthropic, mock)
//   - --model: Generation model name
//   - --base-url: Provider endpoint URL
//   - --api-key: Provider API key (optional for local models)
//
// Examples:
//
//	ccg init                           Interactive setup
//	ccg init -y                        Use all defaults
//	ccg init --provider ollama --model llama3.1
func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(cwd, flags)
	reader := bufio.NewReader(os.Stdin)

	if !flags.nonInteractive {
		runInteractiveConfig(reader, cfg)
	}

	saveInitConfig(cwd, configPath, cfg)
	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.outDir, "out", "", "Output directory for artifacts")
	fs.StringVar(&f.parserMode, "parser", "", "Extractor mode (auto, treesitter, simplified)")
	fs.StringVar(&f.provider, "provider", "", "LLM backend (ollama, openai, anthropic, mock)")
	fs.StringVar(&f.model, "model", "", "Generation model name")
	fs.StringVar(&f.baseURL, "base-url", "", "Provider endpoint URL (e.g., http://localhost:11434)")
	fs.StringVar(&f.llmAPIKey, "api-key", "", "Provider API key (optional for local models)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccg init [options]

Creates .ccg/project.yaml configuration file.

Examples:
  ccg init                              # Interactive setup
  ccg init -y                           # Non-interactive with defaults
  ccg init --provider ollama --model llama3.1
  ccg init --out build/ccg --parser simplified

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	if f.outDir != "" {
		cfg.Output.Dir = f.outDir
	}
	if f.parserMode != "" {
		cfg.Analysis.ParserMode = f.parserMode
	}
	if f.provider != "" {
		cfg.LLM.Enabled = true
		cfg.LLM.Type = f.provider
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.baseURL != "" {
		cfg.LLM.BaseURL = f.baseURL
	}
	if f.llmAPIKey != "" {
		cfg.LLM.APIKey = f.llmAPIKey
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("ccg Project Configuration")
	fmt.Println("=========================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)
	cfg.Output.Dir = prompt(reader, "Output directory", cfg.Output.Dir)

	fmt.Println()
	fmt.Println("Parser modes: auto, treesitter, simplified")
	cfg.Analysis.ParserMode = prompt(reader, "Parser mode", cfg.Analysis.ParserMode)

	promptLLMConfig(reader, cfg)
	fmt.Println()
}

func promptLLMConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println()
	fmt.Println("LLM Configuration (for documentation and diagram generation)")
	fmt.Println("Configure a provider to generate narrative documentation.")
	fmt.Println("Leave empty to skip: docs fall back to the structural summary.")
	fmt.Println()

	providerInput := prompt(reader, "LLM provider (ollama, openai, anthropic, mock)", "")
	if providerInput != "" {
		cfg.LLM.Enabled = true
		cfg.LLM.Type = providerInput
		cfg.LLM.BaseURL = prompt(reader, "Provider URL", cfg.LLM.BaseURL)
		cfg.LLM.Model = prompt(reader, "Model name", cfg.LLM.Model)
		cfg.LLM.APIKey = prompt(reader, "API key (optional)", cfg.LLM.APIKey)
	}
}

func saveInitConfig(cwd, configPath string, cfg *Config) {
	ccgDir := ConfigDir(cwd)
	if err := os.MkdirAll(ccgDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .ccg directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd, cfg.Output.Dir)
}

func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .ccg/project.yaml if needed")
	fmt.Println("  2. Run 'ccg analyze .' to analyze your repository")
	fmt.Println("  3. Run 'ccg status' to inspect the artifacts")
}

// prompt displays an interactive prompt and reads user input from stdin.
//
// If the user presses Enter without providing input, the defaultValue is
// returned.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .ccg/ and the output directory to the project's
// .gitignore file if not already present.
//
// It safely appends the entries, avoiding duplicates. If .gitignore does
// not exist or cannot be modified, the function silently returns.
func addToGitignore(dir, outDir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		// No .gitignore, nothing to do
		return
	}

	want := []string{".ccg/"}
	if outDir != "" && !filepath.IsAbs(outDir) {
		want = append(want, strings.TrimSuffix(outDir, "/")+"/")
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/")
		present[line] = true
		present[strings.TrimSuffix(line, "/")] = true
	}

	var missing []string
	for _, entry := range want {
		if !present[entry] && !present[strings.TrimSuffix(entry, "/")] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# ccg configuration and artifacts\n")
	for _, entry := range missing {
		_, _ = f.WriteString(entry + "\n")
	}
	fmt.Printf("Added %s to .gitignore\n", strings.Join(missing, ", "))
}
