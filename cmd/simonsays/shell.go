package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/simonsays/internal/executor"
	"github.com/verte-zerg/simonsays/internal/input"
	"github.com/verte-zerg/simonsays/internal/script"
)

var (
	shellLocations string
	shellSettle    float64
	shellSmooth    bool
)

var shellExitWords = map[string]bool{"quit": true, "exit": true, "q": true}

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively, one line at a time",
		Args:  cobra.NoArgs,
		RunE:  runShellCmd,
	}
	cmd.Flags().StringVar(&shellLocations, "locations", "", "locations file (default: locations.json)")
	cmd.Flags().Float64Var(&shellSettle, "settle", defaultSettle, "seconds between moving and clicking")
	cmd.Flags().BoolVar(&shellSmooth, "smooth", true, "animate pointer moves")
	return cmd
}

func runShellCmd(cmd *cobra.Command, _ []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	applyFloatConfig(cmd, "settle", &shellSettle, st.file.Play.Settle)
	applyBoolConfig(cmd, "smooth", &shellSmooth, st.file.Play.Smooth)
	if shellSettle < 0 {
		return fmt.Errorf("--settle must be >= 0")
	}
	if shellLocations == "" {
		shellLocations = st.paths.Locations
	}
	restore := true
	if st.file.Play.RestoreClipboard != nil {
		restore = *st.file.Play.RestoreClipboard
	}
	pasteMod := executor.DefaultPasteModifier()
	if v := st.file.Play.PasteModifier; v != nil {
		mod, ok := script.CanonicalModifier(*v)
		if !ok {
			return fmt.Errorf("paste-modifier: unknown modifier %q", *v)
		}
		pasteMod = mod
	}

	store, err := loadLocations(shellLocations)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	driver := input.NewRobot(shellSmooth)
	run := func(ctx context.Context, s script.Script) error {
		runner := executor.New(driver, input.Clipboard{}, executor.Immediate,
			executor.WithDelay(0),
			executor.WithSettle(seconds(shellSettle)),
			executor.WithRestoreClipboard(restore),
			executor.WithPasteKey("v", pasteMod),
		)
		return runner.Run(ctx, s, store)
	}

	out := cmd.OutOrStdout()
	say(out, "Enter commands (quit to exit). %d locations from %s\n", store.Len(), shellLocations)
	return runShell(ctx, cmd.InOrStdin(), out, run)
}

type shellLine struct {
	text string
	err  error
}

// runShell reads one command per line and runs it. A "type code block" header
// keeps reading until its closing fence. Errors are printed and the session
// continues; quit, exit, q, end of input or ctx cancellation end it.
func runShell(ctx context.Context, in io.Reader, out io.Writer, run func(context.Context, script.Script) error) error {
	lines := readLines(ctx, in)
	for {
		say(out, "> ")
		line, ok := nextLine(ctx, lines)
		if !ok {
			if ctx.Err() != nil {
				say(out, "\nExiting...\n")
			} else {
				say(out, "\n")
			}
			return nil
		}
		if line.err != nil {
			return fmt.Errorf("failed to read input: %w", line.err)
		}
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			continue
		}
		if shellExitWords[strings.ToLower(trimmed)] {
			return nil
		}
		text := line.text
		if isCodeBlockStart(trimmed) {
			text += "\n" + strings.Join(readBlock(ctx, lines, out), "\n")
		}
		s, err := script.Parse(text)
		if err != nil {
			say(out, "error: %v\n", err)
			continue
		}
		if err := run(ctx, s); err != nil {
			if ctx.Err() != nil {
				say(out, "\nExiting...\n")
				return nil
			}
			say(out, "error: %v\n", err)
		}
	}
}

func readLines(ctx context.Context, in io.Reader) <-chan shellLine {
	lines := make(chan shellLine)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- shellLine{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- shellLine{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return lines
}

func nextLine(ctx context.Context, lines <-chan shellLine) (shellLine, bool) {
	select {
	case <-ctx.Done():
		return shellLine{}, false
	case line, ok := <-lines:
		return line, ok
	}
}

func isCodeBlockStart(trimmed string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(trimmed), " "), "type code block")
}

// readBlock collects the fence and body lines that follow a code block header.
// It stops after the closing fence, at a line that cannot open a block, or at
// the end of input; the parser reports anything malformed.
func readBlock(ctx context.Context, lines <-chan shellLine, out io.Writer) []string {
	var (
		body  []string
		fence string
	)
	for {
		say(out, "... ")
		line, ok := nextLine(ctx, lines)
		if !ok || line.err != nil {
			return body
		}
		body = append(body, line.text)
		trimmed := strings.TrimSpace(line.text)
		switch {
		case fence == "" && trimmed == "":
		case fence == "":
			if trimmed != script.FenceDots && trimmed != script.FenceBackticks {
				return body
			}
			fence = trimmed
		case trimmed == fence:
			return body
		}
	}
}

func say(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort terminal output.
		_ = err
	}
}
