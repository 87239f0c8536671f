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

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccg/internal/errors"
)

// runClean executes the 'clean' CLI command, deleting all generated
// artifacts under the output directory.
func runClean(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the deletion (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccg clean [options]

Deletes the output directory with all generated artifacts.
This is useful before re-analyzing to ensure a clean slate.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: you must pass --yes to confirm the deletion\n")
		fmt.Fprintf(os.Stderr, "This will delete all generated artifacts.\n")
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	outDir := cfg.Output.Dir

	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "No artifacts found under %s\n", outDir)
		os.Exit(0)
	}

	fmt.Printf("Deleting %s...\n", outDir)

	if err := os.RemoveAll(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete artifacts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Clean complete. All generated artifacts have been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  ccg analyze .    Re-analyze the repository")
}
