// Package cmd implements the capturedemo CLI: a minimal real harness that
// spawns a child process under a PTY and drives the capture pipeline
// (vtmodel.Model + capture.Engine) against its output end to end.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "capturedemo",
		Short: "Capture a child process's terminal output as a plain-text transcript",
		Long: `capturedemo spawns a command under a pseudo-terminal, feeds its output into
a terminal model and capture engine, and prints the resulting transcript
events as newline-delimited JSON.`,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newPeekCmd(),
	)

	return rootCmd
}
