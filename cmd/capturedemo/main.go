// Command capturedemo is a minimal CLI harness for the terminal capture
// pipeline: it spawns a child process under a PTY, drives vtmodel.Model and
// capture.Engine against its output, and prints the resulting transcript.
package main

import (
	"fmt"
	"os"

	"github.com/StephenLReed/consullo-terminal-automation/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
