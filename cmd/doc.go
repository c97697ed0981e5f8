// Package cmd implements the command-line interface for inboxtriage.
//
// This package provides the following commands:
//   - serve: Start the HTTP JSON API server for the web frontend
//   - process: Run one triage batch from the command line using a cached token
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
