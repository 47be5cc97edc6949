// Package cli provides common utilities for the voicebank command-line
// tool.
//
// This package includes:
//   - Configuration management (server contexts)
//   - Output formatting (YAML, JSON, raw)
//   - Request file loading (YAML/JSON)
//   - Terminal styling for prompts and level meters
//
// Configuration is stored in the ~/.voicebank/ directory, supporting
// multiple contexts similar to kubectl.
//
// Example usage:
//
//	// Load the tool configuration
//	cfg, err := cli.LoadConfig()
//
//	// Resolve the context to talk to
//	ctx, err := cfg.ResolveContext("")
//
//	// Output result
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
