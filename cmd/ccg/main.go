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
// Package main implements the ccg CLI for analyzing repositories and
// generating Code Context Graph artifacts.
//
// Usage:
//
//	ccg init                      Create .ccg/project.yaml configuration
//	ccg analyze <source>          Analyze a repository (git URL or local path)
//	ccg status [--json]           Show artifacts from previous runs
//	ccg clean --yes               Delete generated artifacts
package main

import (
	"flag"
	"fmt"
	"os"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags carries flags shared by every command.
type GlobalFlags struct {
	// JSON switches output to machine-readable JSON. Implies Quiet.
	JSON bool

	// Quiet suppresses progress bars and informational output.
	Quiet bool

	// NoColor disables colored terminal output.
	NoColor bool

	// Verbose raises logging verbosity. 0 is info, 1+ is debug.
	Verbose int
}

// main is the entry point for the ccg CLI.
//
// It parses global flags and dispatches to command handlers.
//
// Global flags:
//   - --version: Display version information and exit
//   - --config: Path to .ccg/project.yaml configuration file
//   - --json: Machine-readable output
//   - --quiet: Suppress progress and informational output
//   - --no-color: Disable colored output
//
// Commands:
//   - init: Create .ccg/project.yaml configuration
//   - analyze: Run the analysis pipeline against a repository
//   - status: Show artifacts from previous runs
//   - clean: Delete generated artifacts (destructive!)
//   - completion: Generate shell completion script
func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .ccg/project.yaml (default: ./.ccg/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output as JSON")
		quiet       = flag.Bool("quiet", false, "Suppress progress and informational output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		verbose     = flag.Int("v", 0, "Verbosity level (0=info, 1=debug)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ccg - Code Context Graph generator

ccg maps a repository, extracts its functions, classes, components, and
import relationships into a Code Context Graph, and renders documentation
plus an architecture diagram from that graph. Python, JavaScript, and
TypeScript (including JSX/TSX) sources are supported.

Usage:
  ccg <command> [options]

Commands:
  init          Create .ccg/project.yaml configuration
  analyze       Analyze a repository (git URL or local path)
  status        Show artifacts from previous runs
  clean         Delete generated artifacts (destructive!)
  completion    Generate shell completion script (bash|zsh|fish)

Global Options:
  --config      Path to .ccg/project.yaml
  --json        Machine-readable output
  --quiet       Suppress progress and informational output
  --no-color    Disable colored output
  --version     Show version and exit

Examples:
  ccg init                                Create configuration interactively
  ccg analyze .                           Analyze the current directory
  ccg analyze https://github.com/a/b      Clone and analyze a repository
  ccg analyze . --provider mock           Skip real LLM calls
  ccg status                              List artifacts from previous runs
  ccg status --json                       Output as JSON
  ccg completion bash                     Generate bash completion script

Getting Started:
  1. Initialize configuration:  ccg init
  2. Analyze your repository:   ccg analyze .
  3. Inspect the artifacts:     ccg status

Artifacts:
  Each run writes docs.md, diagram.mmd, code_graph.json, and
  file_tree.json under <output dir>/<run name>/.

Environment Variables:
  OLLAMA_HOST        Ollama URL (default: http://localhost:11434)
  OLLAMA_MODEL       Ollama model for generation
  OPENAI_API_KEY     OpenAI API key
  ANTHROPIC_API_KEY  Anthropic API key

For detailed command help: ccg <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ccg version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		Quiet:   *quiet || *jsonOutput, // JSON output implies quiet
		NoColor: *noColor,
		Verbose: *verbose,
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "analyze":
		runAnalyze(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "clean":
		runClean(cmdArgs, *configPath, globals)
	case "completion":
		runCompletion(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
