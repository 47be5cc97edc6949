// Package main provides the voicebank CLI tool.
//
// Usage:
//
//	voicebank [flags] <command> [args]
//
// Commands:
//
//	profile  - Local user profile management
//	enrol    - Enrol the user's voiceprint
//	verify   - Verify a voice sample against the enrolment
//	check    - Ask the server whether the user is enrolled
//	delete   - Delete the user's voiceprints
//	status   - Show local enrolment status
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.voicebank/
//	Use 'voicebank config' commands to manage server contexts.
package main

import (
	"fmt"
	"os"

	"github.com/auraya/voicebank/cmd/voicebank/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
