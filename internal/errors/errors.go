// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the ccg CLI.
//
// This package defines UserError, a type that carries structured error
// information including what went wrong, why it happened, and how to fix it.
// It also defines consistent exit codes for different error categories.
//
// # Usage Example
//
// Creating and displaying errors:
//
//	err := errors.NewCloneError(
//	    "Cannot clone repository",
//	    "git exited with status 128",
//	    "Check the URL and your network connection, then retry",
//	    underlyingErr,
//	)
//	if err != nil {
//	    errors.FatalError(err, false)
//	}
//
// # Formatted Output
//
// The Format() method provides colored terminal output:
//
//	Error: Cannot clone repository
//	Cause: git exited with status 128
//	Fix:   Check the URL and your network connection, then retry
//
// For JSON output, ToJSON() returns a machine-readable structure with the
// same fields plus the exit code.
//
// # Exit Codes
//
// The package defines semantic exit codes following Unix conventions:
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Configuration errors (missing/invalid config)
//   - ExitClone (2): Repository acquisition errors (clone failed, bad URL)
//   - ExitAnalysis (3): Analysis errors (unreadable files, graph conflicts)
//   - ExitGeneration (4): LLM generation errors (provider unreachable, refused)
//   - ExitInput (5): Invalid user input (bad arguments, validation errors)
//   - ExitInternal (10): Internal errors (bugs, panics)
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors (missing/invalid config files).
	ExitConfig = 1

	// ExitClone indicates repository acquisition errors (clone failed,
	// invalid URL, missing local path).
	ExitClone = 2

	// ExitAnalysis indicates analysis errors (unreadable source files,
	// path collisions in the graph).
	ExitAnalysis = 3

	// ExitGeneration indicates LLM generation errors (provider unreachable,
	// request refused, malformed response).
	ExitGeneration = 4

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 5

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: What went wrong (user-facing error description)
//   - Cause: Why it happened (diagnostic information)
//   - Fix: How to fix it (actionable suggestion)
//
// UserError also carries an exit code for consistent CLI exit behavior
// and optionally wraps an underlying error for error chain compatibility.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error that caused this error (optional).
	// This enables error wrapping and compatibility with errors.Is/As.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Use this for errors related to missing, invalid, or malformed configuration
// files.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load project configuration",
//	    "The file .ccg/project.yaml is malformed",
//	    "Fix the YAML syntax or delete the file to use defaults",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitConfig,
		Err:      err,
	}
}

// NewCloneError creates a repository acquisition error with exit code ExitClone.
//
// Use this for errors while cloning a remote repository or resolving a local
// source path.
//
// Example:
//
//	return NewCloneError(
//	    "Cannot clone repository",
//	    "git exited with status 128",
//	    "Check the URL and your network connection, then retry",
//	    err,
//	)
func NewCloneError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitClone,
		Err:      err,
	}
}

// NewAnalysisError creates an analysis error with exit code ExitAnalysis.
//
// Use this for errors during scanning and graph assembly, such as unreadable
// source files or conflicting file paths.
//
// Example:
//
//	return NewAnalysisError(
//	    "Cannot analyze repository",
//	    "Two files differ only by letter case: a/x.py and A/x.py",
//	    "Rename one of the conflicting files and rerun the analysis",
//	    err,
//	)
func NewAnalysisError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitAnalysis,
		Err:      err,
	}
}

// NewGenerationError creates an LLM generation error with exit code ExitGeneration.
//
// Use this when the documentation or diagram provider is unreachable or
// refuses a request.
//
// Example:
//
//	return NewGenerationError(
//	    "Cannot generate documentation",
//	    "The ollama server at localhost:11434 is not responding",
//	    "Start ollama, or pass --provider mock to skip LLM content",
//	    err,
//	)
func NewGenerationError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitGeneration,
		Err:      err,
	}
}

// NewInputError creates an input validation error with exit code ExitInput.
//
// Use this for errors related to invalid user input, such as bad command-line
// arguments or failed validation checks. Input errors typically do not wrap
// an underlying error.
//
// Example:
//
//	return NewInputError(
//	    "Invalid parser mode",
//	    "Parser mode must be one of: auto, tree-sitter, simplified",
//	    "Pass --parser auto (the default) or one of the listed modes",
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInput,
		Err:      nil,
	}
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs in the program, such as
// assertion failures, unexpected nil values, or unhandled error cases.
// Internal errors should be reported to the maintainers.
//
// Example:
//
//	return NewInternalError(
//	    "Unexpected nil graph",
//	    "The analyze stage completed without producing a graph",
//	    "This is a bug. Please report it at github.com/kraklabs/ccg/issues",
//	    err,
//	)
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInternal,
		Err:      err,
	}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// The output includes colored sections for Error (red/bold), Cause (yellow),
// and Fix (green). Color output respects the NO_COLOR environment variable
// and can be explicitly disabled with the noColor parameter.
//
// Example output:
//
//	Error: Cannot clone repository
//	Cause: git exited with status 128
//	Fix:   Check the URL and your network connection, then retry
//
// Empty Cause or Fix fields are omitted from the output.
//
// Note: This method temporarily modifies the global color.NoColor state
// and restores it after formatting.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format.
//
// This structure is suitable for machine consumption and integrates with
// CLI commands that support --json output mode.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
//
// Fields with empty values (Cause, Fix) are omitted from JSON output using
// the omitempty tag.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints the error and exits with the appropriate code.
//
// If the error is a UserError, it uses Format() for colored output or
// ToJSON() for JSON mode. For non-UserError types, it prints a simple
// error message and exits with ExitInternal.
//
// This function never returns - it always calls os.Exit().
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			// Encoding errors are ignored since we are about to exit; the
			// exit code is correct either way.
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	// Fallback for non-UserError
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
