package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/StephenLReed/consullo-terminal-automation/internal/capture"
	"github.com/StephenLReed/consullo-terminal-automation/internal/config"
	"github.com/StephenLReed/consullo-terminal-automation/internal/vtmodel"
)

// chanCapacity bounds the byte-chunk channel between the PTY reader and the
// model feeder. When full, the oldest pending chunk is dropped rather than
// blocking the PTY read loop.
const chanCapacity = 64

func newRunCmd() *cobra.Command {
	var cmdStr string
	var volatileRowCount int
	var stabilityWindow string
	var maxHistory int
	var disableAltScreenSuppression bool

	cmd := &cobra.Command{
		Use:   "run [flags] [-- <command> [args...]]",
		Short: "Spawn a command under a PTY and print its transcript as JSON lines",
		Long: `run spawns <command> under a pseudo-terminal, feeds its output into the
terminal model and capture engine, and prints one JSON object per
transcript line to stdout.

  capturedemo run -- bash -lc 'for i in 1 2 3; do echo line $i; done'
  capturedemo run --cmd "ping example.com"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, cmdArgs, err := resolveCommand(cmdStr, args)
			if err != nil {
				return err
			}

			fileCfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			captureCfg, err := resolveCaptureConfig(fileCfg.Capture, cmd, volatileRowCount, stabilityWindow, disableAltScreenSuppression)
			if err != nil {
				return err
			}
			resolvedMaxHistory := maxHistory
			if !cmd.Flags().Changed("max-history") && fileCfg.Capture.MaxHistory > 0 {
				resolvedMaxHistory = fileCfg.Capture.MaxHistory
			}

			return runCapture(command, cmdArgs, captureCfg, resolvedMaxHistory)
		},
	}

	cmd.Flags().StringVar(&cmdStr, "cmd", "", "Command line to run, split shell-style (mutually exclusive with trailing args)")
	cmd.Flags().IntVar(&volatileRowCount, "volatile-row-count", capture.DefaultConfig().VolatileRowCount, "Bottom screen rows excluded from stability emission")
	cmd.Flags().StringVar(&stabilityWindow, "stability-window", capture.DefaultConfig().StabilityWindow.String(), "Minimum unchanged duration before a screen row is emitted")
	cmd.Flags().IntVar(&maxHistory, "max-history", 0, "Maximum retained scrollback lines (0 uses the model default)")
	cmd.Flags().BoolVar(&disableAltScreenSuppression, "no-suppress-alt-screen", false, "Emit screen-stability events while the alternate screen is active")

	return cmd
}

// resolveCommand determines the child command and its arguments from either
// --cmd (shell-split with shlex) or trailing positional args.
func resolveCommand(cmdStr string, args []string) (string, []string, error) {
	if cmdStr != "" {
		if len(args) > 0 {
			return "", nil, fmt.Errorf("--cmd and a trailing command are mutually exclusive")
		}
		parts, err := shlex.Split(cmdStr)
		if err != nil {
			return "", nil, fmt.Errorf("parse --cmd: %w", err)
		}
		if len(parts) == 0 {
			return "", nil, fmt.Errorf("--cmd produced no tokens")
		}
		return parts[0], parts[1:], nil
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("a command is required (or use --cmd)")
	}
	return args[0], args[1:], nil
}

// resolveCaptureConfig layers the capture engine's defaults, the config
// file, and explicit CLI flags (highest priority).
func resolveCaptureConfig(fileCfg config.CaptureConfig, cmd *cobra.Command, volatileRowCount int, stabilityWindow string, disableAltScreenSuppression bool) (capture.Config, error) {
	cfg := capture.DefaultConfig()

	if fileCfg.VolatileRowCount > 0 {
		cfg.VolatileRowCount = fileCfg.VolatileRowCount
	}
	if d, err := fileCfg.ParseStabilityWindow(); err != nil {
		return capture.Config{}, err
	} else if d > 0 {
		cfg.StabilityWindow = d
	}
	if fileCfg.SuppressAlternateScreen != nil {
		cfg.SuppressAlternateScreen = *fileCfg.SuppressAlternateScreen
	}

	if cmd.Flags().Changed("volatile-row-count") {
		cfg.VolatileRowCount = volatileRowCount
	}
	if cmd.Flags().Changed("stability-window") {
		d, err := time.ParseDuration(stabilityWindow)
		if err != nil {
			return capture.Config{}, fmt.Errorf("--stability-window: %w", err)
		}
		cfg.StabilityWindow = d
	}
	if disableAltScreenSuppression {
		cfg.SuppressAlternateScreen = false
	}

	return cfg, nil
}

// runCapture spawns command under a PTY and pipes its output through the
// capture pipeline until it exits.
func runCapture(command string, args []string, captureCfg capture.Config, maxHistory int) error {
	cols, rows := 80, 24
	stdinIsTTY := isatty.IsTerminal(os.Stdin.Fd())
	if stdinIsTTY {
		if c, r, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
			cols, rows = c, r
		}
	}

	model := vtmodel.NewModel(cols, rows, maxHistory)
	engine := capture.New(captureCfg)
	runID := uuid.NewString()
	var stats capture.Stats
	status := newStatusWriter()

	encoder := json.NewEncoder(os.Stdout)
	model.Subscribe(func(d vtmodel.Damage) {
		events, err := engine.OnDamage(model.Scrollback(), model.Snapshot(), d)
		if err != nil {
			log.Printf("capturedemo: engine: %v", err)
			return
		}
		for _, e := range events {
			e.RunID = runID
			if err := encoder.Encode(e); err != nil {
				log.Printf("capturedemo: encode event: %v", err)
			}
		}
	})

	childCmd := exec.Command(command, args...)
	ptmx, err := pty.StartWithSize(childCmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return fmt.Errorf("start %q under pty: %w", command, err)
	}
	defer ptmx.Close()

	if stdinIsTTY {
		restore, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer term.Restore(int(os.Stdin.Fd()), restore)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)
	go watchResize(sigCh, ptmx, model)

	chunks := make(chan []byte, chanCapacity)
	go readPTY(ptmx, chunks, &stats)
	go io.Copy(ptmx, os.Stdin)

	go func() {
		for chunk := range chunks {
			model.Feed(chunk)
		}
	}()

	err = childCmd.Wait()
	fmt.Fprintf(os.Stderr, "%s (%s)\n", status.Running("capturedemo: child exited", true), status.Dropped(stats.Dropped()))
	return err
}

// watchResize re-queries the terminal size on SIGWINCH and propagates it to
// both the PTY and the model.
func watchResize(sigCh <-chan os.Signal, ptmx *os.File, model *vtmodel.Model) {
	for range sigCh {
		cols, rows, err := term.GetSize(int(os.Stdin.Fd()))
		if err != nil {
			continue
		}
		pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
		if err := model.Resize(cols, rows); err != nil {
			log.Printf("capturedemo: resize: %v", err)
		}
	}
}

// readPTY reads child output in fixed-size chunks and forwards them over a
// bounded channel. When the channel is full, the oldest pending chunk is
// dropped (Overflow error class: never block the PTY, count the loss).
func readPTY(ptmx *os.File, out chan []byte, stats *capture.Stats) {
	defer close(out)
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			default:
				select {
				case <-out:
					stats.IncrementDropped()
				default:
				}
				select {
				case out <- chunk:
				default:
					stats.IncrementDropped()
				}
			}
		}
		if err != nil {
			return
		}
	}
}
