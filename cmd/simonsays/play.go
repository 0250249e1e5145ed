package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/simonsays/internal/executor"
	"github.com/verte-zerg/simonsays/internal/history"
	"github.com/verte-zerg/simonsays/internal/input"
	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/recording"
	"github.com/verte-zerg/simonsays/internal/script"
)

var (
	playLocations     string
	playDelay         float64
	playSettle        float64
	playTrigger       string
	playCountdown     float64
	playNoRestore     bool
	playPasteModifier string
	playSmooth        bool
)

var (
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <recording-id|script-path>",
		Short: "Play a script or recording",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlayCmd,
	}
	cmd.Flags().StringVar(&playLocations, "locations", "", "locations file (default: the recording's, else locations.json)")
	cmd.Flags().Float64Var(&playDelay, "delay", defaultDelay, "seconds between actions")
	cmd.Flags().Float64Var(&playSettle, "settle", defaultSettle, "seconds between moving and clicking")
	cmd.Flags().StringVar(&playTrigger, "trigger", defaultTrigger, "start trigger: mouse3, f1 or countdown")
	cmd.Flags().Float64Var(&playCountdown, "countdown", defaultCountdown, "seconds to wait with --trigger countdown")
	cmd.Flags().BoolVar(&playNoRestore, "no-restore-clipboard", false, "clear the clipboard after pasting instead of restoring it")
	cmd.Flags().StringVar(&playPasteModifier, "paste-modifier", executor.DefaultPasteModifier(), "modifier for the paste keystroke")
	cmd.Flags().BoolVar(&playSmooth, "smooth", true, "animate pointer moves")
	return cmd
}

// target is a resolved script to play.
type target struct {
	recording     string
	scriptPath    string
	locationsPath string
	bundle        *recording.Bundle
}

func resolveTarget(arg, recordingsDir, locationsPath string) (target, error) {
	bundle, err := recording.Open(recordingsDir, arg)
	if err == nil {
		return target{
			recording:     bundle.ID,
			scriptPath:    bundle.ScriptPath(),
			locationsPath: bundle.LocationsPath(),
			bundle:        &bundle,
		}, nil
	}
	if !errors.Is(err, recording.ErrNotFound) {
		return target{}, err
	}
	if _, serr := os.Stat(arg); serr == nil {
		return target{scriptPath: arg, locationsPath: locationsPath}, nil
	}
	return target{}, notFoundError(arg, recordingsDir)
}

func notFoundError(arg, recordingsDir string) error {
	lines := []string{fmt.Sprintf("recording or script %q not found", arg)}
	bundles, err := recording.List(recordingsDir)
	if err != nil || len(bundles) == 0 {
		lines = append(lines, fmt.Sprintf("no recordings in %s", recordingsDir))
		return errors.New(strings.Join(lines, "\n"))
	}
	lines = append(lines, "Available recordings:")
	for _, b := range bundles {
		desc := b.Info.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines, fmt.Sprintf("  %s - %s", b.ID, desc))
	}
	return errors.New(strings.Join(lines, "\n"))
}

// loadLocations reads a location file; a missing file is an empty store.
func loadLocations(path string) (locations.Store, error) {
	store, _, err := locations.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		empty, _ := locations.New()
		return empty, nil
	}
	if err != nil {
		return locations.Store{}, fmt.Errorf("failed to load locations: %w", err)
	}
	return store, nil
}

// loadScript parses the target's script through its bundle when it has one.
func (t target) loadScript() (script.Script, error) {
	if t.bundle != nil {
		s, _, err := t.bundle.LoadScript()
		return s, err
	}
	return loadScript(t.scriptPath)
}

func loadScript(path string) (script.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return script.Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	s, err := script.Parse(string(data))
	if err != nil {
		return script.Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	restore := !playNoRestore
	applyFloatConfig(cmd, "delay", &playDelay, st.file.Play.Delay)
	applyFloatConfig(cmd, "settle", &playSettle, st.file.Play.Settle)
	applyStringConfig(cmd, "trigger", &playTrigger, st.file.Play.Trigger)
	applyFloatConfig(cmd, "countdown", &playCountdown, st.file.Play.Countdown)
	applyBoolConfig(cmd, "no-restore-clipboard", &restore, st.file.Play.RestoreClipboard)
	applyStringConfig(cmd, "paste-modifier", &playPasteModifier, st.file.Play.PasteModifier)
	applyBoolConfig(cmd, "smooth", &playSmooth, st.file.Play.Smooth)
	if st.env.Trigger != "" && !cmd.Flags().Changed("trigger") {
		playTrigger = st.env.Trigger
	}
	if playLocations == "" {
		playLocations = st.paths.Locations
	}

	cfg := model.PlayConfig{
		Delay:            seconds(playDelay),
		Settle:           seconds(playSettle),
		Trigger:          playTrigger,
		Countdown:        seconds(playCountdown),
		RestoreClipboard: restore,
		Smooth:           playSmooth,
	}
	if err := validatePlayConfig(cfg, playDelay, playSettle, playCountdown); err != nil {
		return err
	}
	triggerKind, err := input.ParseTrigger(cfg.Trigger)
	if err != nil {
		return err
	}
	pasteMod, ok := script.CanonicalModifier(playPasteModifier)
	if !ok {
		return fmt.Errorf("--paste-modifier: unknown modifier %q", playPasteModifier)
	}

	tgt, err := resolveTarget(args[0], st.paths.Recordings, playLocations)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("locations") {
		tgt.locationsPath = playLocations
	}
	s, err := tgt.loadScript()
	if err != nil {
		return err
	}
	store, err := loadLocations(tgt.locationsPath)
	if err != nil {
		return err
	}
	printTarget(tgt, s, store)
	if err := script.Validate(s, store); err != nil {
		logErrf("warning: %v; playback will stop there\n", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	observer := &playObserver{total: s.Len()}
	runner := executor.New(input.NewRobot(cfg.Smooth), input.Clipboard{}, newTrigger(triggerKind, cfg.Countdown),
		executor.WithDelay(cfg.Delay),
		executor.WithSettle(cfg.Settle),
		executor.WithRestoreClipboard(cfg.RestoreClipboard),
		executor.WithPasteKey("v", pasteMod),
		executor.WithObserver(observer),
	)

	hist := openHistory(st.paths.Database)
	defer closeHistory(hist)

	runErr := runner.Run(ctx, s, store)
	observer.finish(runErr)
	recordPlay(hist, tgt, s, observer, runErr)
	return runErr
}

func validatePlayConfig(cfg model.PlayConfig, delay, settle, countdown float64) error {
	if delay < 0 {
		return fmt.Errorf("--delay must be >= 0")
	}
	if settle < 0 {
		return fmt.Errorf("--settle must be >= 0")
	}
	if countdown < 0 {
		return fmt.Errorf("--countdown must be >= 0")
	}
	if cfg.Trigger == "" {
		return fmt.Errorf("--trigger must not be empty")
	}
	return nil
}

func newTrigger(kind input.TriggerKind, countdown time.Duration) executor.TriggerSource {
	switch kind {
	case input.TriggerCountdown:
		logErrln("Press Ctrl+C to cancel")
		return executor.CountdownTrigger{
			Duration: countdown,
			Tick: func(remaining time.Duration) {
				logErrf("Starting in %.0f...\n", remaining.Seconds())
			},
		}
	case input.TriggerF1:
		logErrln("Press F1 to start (Ctrl+C to cancel)")
	default:
		logErrln("Press the middle mouse button to start (Ctrl+C to cancel)")
	}
	return input.HookTrigger{Kind: kind}
}

func printTarget(tgt target, s script.Script, store locations.Store) {
	if tgt.recording == "" {
		logErrf("Playing %s (%d actions, %d locations)\n", tgt.scriptPath, s.Len(), store.Len())
		return
	}
	logErrf("Playing recording: %s\n", tgt.recording)
	if tgt.bundle != nil {
		created := tgt.bundle.Info.Created
		if created == "" {
			created = "unknown"
		}
		logErrf("Created: %s\n", created)
		logErrf("Duration: %.1fs\n", tgt.bundle.Info.Duration)
	}
	logErrf("Commands: %d\n", s.Len())
}

// playObserver reports executor progress on stderr and times the run.
type playObserver struct {
	total     int
	startedAt time.Time
	endedAt   time.Time
}

func (o *playObserver) StateChanged(state executor.State) {
	switch state {
	case executor.StateRunning:
		o.startedAt = time.Now()
		logErrln("Starting execution...")
	case executor.StateCompleted, executor.StateAborted:
		o.endedAt = time.Now()
	}
}

func (o *playObserver) ActionStarted(index int, action script.Action) {
	text, _, _ := strings.Cut(script.FormatAction(action), "\n")
	logErrln(stepStyle.Render(fmt.Sprintf("[%d/%d] %s", index+1, o.total, text)))
}

func (o *playObserver) finish(err error) {
	var cancelled *executor.CancelledError
	switch {
	case err == nil:
		logErrln(okStyle.Render(fmt.Sprintf("Done: %d actions", o.total)))
	case errors.As(err, &cancelled):
		logErrln(errorStyle.Render("Cancelled"))
	default:
		logErrln(errorStyle.Render("Aborted"))
	}
}

func recordPlay(hist *history.Store, tgt target, s script.Script, o *playObserver, runErr error) {
	if hist == nil || o.startedAt.IsZero() {
		return
	}
	rec := model.RunRecord{
		Kind:        model.RunPlay,
		Recording:   tgt.recording,
		Script:      tgt.scriptPath,
		StartedAt:   o.startedAt,
		EndedAt:     o.endedAt,
		Status:      model.StatusCompleted,
		Actions:     s.Len(),
		FailedIndex: -1,
	}
	if rec.Recording == "" {
		rec.Recording = tgt.scriptPath
	}
	var cancelled *executor.CancelledError
	var execErr *executor.ExecError
	switch {
	case errors.As(runErr, &cancelled):
		rec.Status = model.StatusCancelled
		rec.FailedIndex = cancelled.Index
		rec.Error = runErr.Error()
	case errors.As(runErr, &execErr):
		rec.Status = model.StatusAborted
		rec.FailedIndex = execErr.Index
		rec.Error = runErr.Error()
	case runErr != nil:
		rec.Status = model.StatusAborted
		rec.Error = runErr.Error()
	}
	if _, err := hist.Insert(context.Background(), rec); err != nil {
		logErrf("failed to save run: %v\n", err)
	}
}
