package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/StephenLReed/consullo-terminal-automation/internal/vtmodel"
)

func newPeekCmd() *cobra.Command {
	var cmdStr string

	cmd := &cobra.Command{
		Use:   "peek [flags] [-- <command> [args...]]",
		Short: "Run a command under a PTY and print its final screen and history once",
		Long: `peek spawns <command> under a pseudo-terminal, lets it run to
completion, and prints a single snapshot of the resulting history and
screen to stdout as plain text (no streaming events, no tailing) —
useful for scripting against a command's final output.

  capturedemo peek -- git log --oneline -5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, cmdArgs, err := resolveCommand(cmdStr, args)
			if err != nil {
				return err
			}
			return runPeek(command, cmdArgs)
		},
	}

	cmd.Flags().StringVar(&cmdStr, "cmd", "", "Command line to run, split shell-style (mutually exclusive with trailing args)")

	return cmd
}

// runPeek spawns command under a PTY, feeds its full output into a model
// with no capture engine attached, waits for exit, then prints the final
// history followed by the final screen, each line newline-terminated.
func runPeek(command string, args []string) error {
	cols, rows := 80, 24
	if c, r, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cols, rows = c, r
	}

	model := vtmodel.NewModel(cols, rows, 0)

	childCmd := exec.Command(command, args...)
	ptmx, err := pty.StartWithSize(childCmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return fmt.Errorf("start %q under pty: %w", command, err)
	}
	defer ptmx.Close()

	buf := make([]byte, 4096)
	for {
		n, readErr := ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			model.Feed(chunk)
		}
		if readErr != nil {
			break
		}
	}

	waitErr := childCmd.Wait()

	view := model.Scrollback()
	if n := view.HistoryLineCount(); n > 0 {
		lines, err := view.ReadHistoryLines(0, n)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		for _, line := range lines {
			fmt.Fprintln(os.Stdout, vtmodel.Normalize(line))
		}
	}

	snapshot := model.Snapshot()
	if lines, err := view.ReadScreenLines(0, snapshot.Rows); err == nil {
		for _, line := range lines {
			fmt.Fprintln(os.Stdout, vtmodel.Normalize(line))
		}
	}

	return waitErr
}
