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
	"flag"
	"fmt"
	"os"

	"github.com/kraklabs/ccg/internal/errors"
)

// bashCompletionTemplate is the bash completion script for ccg.
//
// It provides command and flag completion for bash shells using the
// bash completion framework.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for ccg (Code Context Graph generator)
# Installation:
#   source <(ccg completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(ccg completion bash)' >> ~/.bashrc

_ccg_completion() {
    local cur prev commands
    commands="init analyze status clean completion"

    # Current word being completed
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Global flags
    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--version --config --json --quiet --no-color" -- ${cur}) )
        return 0
    fi

    # First argument: complete commands
    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    # Command-specific flag completion
    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        analyze)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--out --workers --max-file-size --parser --exclude --provider --model --base-url --api-key --metrics-addr" -- ${cur}) )
            fi
            ;;
        status)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--out" -- ${cur}) )
            fi
            ;;
        clean)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes" -- ${cur}) )
            fi
            ;;
        init)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--force -y --project-id --out --parser --provider --model --base-url --api-key" -- ${cur}) )
            fi
            ;;
        completion)
            # Complete shell names for completion command
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _ccg_completion ccg
`

// zshCompletionTemplate is the zsh completion script for ccg.
//
// It provides command and flag completion for zsh shells using the
// zsh completion system.
const zshCompletionTemplate = `#compdef ccg

# Zsh completion script for ccg (Code Context Graph generator)
# Installation:
#   1. Ensure compinit is loaded (add to ~/.zshrc if not present):
#      autoload -U compinit; compinit
#   2. Save this script to a directory in your fpath:
#      ccg completion zsh > "${fpath[1]}/_ccg"
#   3. Reload completions:
#      rm -f ~/.zcompdump; compinit

_ccg() {
    local -a commands
    commands=(
        'init:Create .ccg/project.yaml configuration'
        'analyze:Analyze a repository (git URL or local path)'
        'status:Show artifacts from previous runs'
        'clean:Delete generated artifacts'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--config[Path to .ccg/project.yaml]:config file:_files -g "*.yaml"' \
        '--json[Machine-readable output]' \
        '--quiet[Suppress progress output]' \
        '--no-color[Disable colored output]' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                analyze)
                    _arguments \
                        '--out[Output directory root]:directory:_files -/' \
                        '--workers[Extraction worker count]:workers:' \
                        '--max-file-size[Per-file size ceiling in bytes]:bytes:' \
                        '--parser[Extractor mode]:mode:(auto treesitter simplified)' \
                        '--exclude[Additional exclude glob]:glob:' \
                        '--provider[LLM backend]:provider:(ollama openai anthropic mock none)' \
                        '--model[Generation model name]:model:' \
                        '--base-url[Provider endpoint URL]:url:' \
                        '--api-key[Provider API key]:key:' \
                        '--metrics-addr[Prometheus metrics address]:address:' \
                        '1:source:_files -/'
                    ;;
                status)
                    _arguments \
                        '--out[Output directory root to inspect]:directory:_files -/'
                    ;;
                clean)
                    _arguments \
                        '--yes[Skip confirmation prompt]'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_ccg
`

// fishCompletionTemplate is the fish completion script for ccg.
//
// It provides command and flag completion for fish shells using the
// fish completion system.
const fishCompletionTemplate = `# Fish completion script for ccg (Code Context Graph generator)
# Installation:
#   1. Load completions for current session:
#      ccg completion fish | source
#   2. Install permanently:
#      ccg completion fish > ~/.config/fish/completions/ccg.fish

# Commands
complete -c ccg -f -n "__fish_use_subcommand" -a "init" -d "Create .ccg/project.yaml configuration"
complete -c ccg -f -n "__fish_use_subcommand" -a "analyze" -d "Analyze a repository (git URL or local path)"
complete -c ccg -f -n "__fish_use_subcommand" -a "status" -d "Show artifacts from previous runs"
complete -c ccg -f -n "__fish_use_subcommand" -a "clean" -d "Delete generated artifacts (destructive!)"
complete -c ccg -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

# Global flags
complete -c ccg -l version -d "Show version and exit"
complete -c ccg -l config -d "Path to .ccg/project.yaml" -r
complete -c ccg -l json -d "Machine-readable output"
complete -c ccg -l quiet -d "Suppress progress output"
complete -c ccg -l no-color -d "Disable colored output"

# analyze command flags
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l out -d "Output directory root" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l workers -d "Extraction worker count" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l max-file-size -d "Per-file size ceiling in bytes" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l parser -d "Extractor mode" -xa "auto treesitter simplified"
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l exclude -d "Additional exclude glob" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l provider -d "LLM backend" -xa "ollama openai anthropic mock none"
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l model -d "Generation model name" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l base-url -d "Provider endpoint URL" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l api-key -d "Provider API key" -r
complete -c ccg -n "__fish_seen_subcommand_from analyze" -l metrics-addr -d "Prometheus metrics address" -r

# status command flags
complete -c ccg -n "__fish_seen_subcommand_from status" -l out -d "Output directory root to inspect" -r

# clean command flags
complete -c ccg -n "__fish_seen_subcommand_from clean" -l yes -d "Skip confirmation prompt"

# completion command arguments
complete -c ccg -n "__fish_seen_subcommand_from completion" -f -a "bash" -d "Generate bash completion script"
complete -c ccg -n "__fish_seen_subcommand_from completion" -f -a "zsh" -d "Generate zsh completion script"
complete -c ccg -n "__fish_seen_subcommand_from completion" -f -a "fish" -d "Generate fish completion script"
`

// runCompletion executes the 'completion' CLI command, generating
// shell-specific completion scripts for bash, zsh, or fish shells.
//
// The completion command outputs a shell-specific script to stdout that can
// be sourced to enable tab completion for ccg commands and flags.
//
// Usage:
//
//	ccg completion [bash|zsh|fish]
//
// Examples:
//
//	ccg completion bash                     Output bash completion script
//	source <(ccg completion bash)           Load bash completions in current shell
//	ccg completion zsh > "${fpath[1]}/_ccg" Install zsh completions permanently
//	ccg completion fish | source            Load fish completions in current shell
func runCompletion(args []string) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccg completion <shell>

Description:
  Generate shell completion scripts for bash, zsh, or fish.

  Shell completions allow you to use Tab to autocomplete commands,
  flags, and arguments.

Arguments:
  shell    Shell type: bash, zsh, or fish (required)

Examples:
  # Load bash completions in current shell
  source <(ccg completion bash)

  # Install bash completions permanently (Linux)
  ccg completion bash > /etc/bash_completion.d/ccg

  # Install zsh completions
  ccg completion zsh > "${fpath[1]}/_ccg"

  # Install fish completions
  ccg completion fish > ~/.config/fish/completions/ccg.fish

Notes:
  After installing completions, restart your shell or source your rc file.

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"The completion command requires exactly one argument: the shell name",
			"Run 'ccg completion bash', 'ccg completion zsh', or 'ccg completion fish'",
		), false)
	}

	shell := fs.Arg(0)

	switch shell {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		errors.FatalError(errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("Shell '%s' is not supported. Valid options: bash, zsh, fish", shell),
			"Run 'ccg completion bash', 'ccg completion zsh', or 'ccg completion fish'",
		), false)
	}
}
