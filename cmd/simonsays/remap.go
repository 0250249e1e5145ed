package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/simonsays/internal/history"
	"github.com/verte-zerg/simonsays/internal/input"
	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/recording"
	"github.com/verte-zerg/simonsays/internal/remap"
	"github.com/verte-zerg/simonsays/internal/remapui"
)

var (
	remapOut   string
	remapTUI   bool
	remapDescr string
)

func newRemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remap <recording-id>",
		Short: "Rebind every location of a recording by clicking",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemapCmd,
	}
	cmd.Flags().StringVar(&remapOut, "out", "", "id of the new recording (default: next recN)")
	cmd.Flags().BoolVar(&remapTUI, "tui", true, "use the full-screen interface when stdout is a terminal")
	cmd.Flags().StringVar(&remapDescr, "description", "", "description of the new recording")
	return cmd
}

func runRemapCmd(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	applyBoolConfig(cmd, "tui", &remapTUI, st.file.Remap.TUI)

	bundle, err := recording.Open(st.paths.Recordings, args[0])
	if err != nil {
		return err
	}
	parsed, text, err := bundle.LoadScript()
	if err != nil {
		return err
	}
	old, meta, err := bundle.LoadLocations()
	if err != nil {
		return err
	}
	if old.Len() == 0 {
		return fmt.Errorf("recording %s has no locations to remap", bundle.ID)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	hist := openHistory(st.paths.Database)
	defer closeHistory(hist)

	startedAt := time.Now()
	var remapped locations.Store
	if remapTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		remapped, err = runRemapTUI(ctx, bundle.ID, old)
	} else {
		remapped, err = remap.Run(ctx, old, input.ClickSampler{Prompt: plainPrompt(old)})
	}
	recordRemap(hist, bundle, old.Len(), startedAt, err)
	if err != nil {
		return err
	}

	descr := remapDescr
	if descr == "" {
		descr = fmt.Sprintf("Remap of %s from %s", bundle.ID, time.Now().Format("2006-01-02 15:04:05"))
	}
	out, err := recording.Write(st.paths.Recordings, recording.Contents{
		Info: recording.Info{
			ID:           remapOut,
			Duration:     bundle.Info.Duration,
			Commands:     parsed.Len(),
			Description:  descr,
			RemappedFrom: bundle.ID,
		},
		Script:    text,
		Locations: remapped,
		Meta:      meta,
	})
	if err != nil {
		return fmt.Errorf("failed to save remapped recording: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved remapped recording %s (%d locations)\n", out.ID, remapped.Len()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runRemapTUI(ctx context.Context, id string, old locations.Store) (locations.Store, error) {
	m := remapui.NewModel(ctx, id, old, input.ClickSampler{})
	program := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return locations.Store{}, fmt.Errorf("failed to run remap TUI: %w", err)
	}
	return m.Result()
}

func plainPrompt(old locations.Store) func(name string, index, total int) {
	return func(name string, index, total int) {
		was := ""
		if loc, err := old.Get(name); err == nil {
			was = " (was " + loc.Point.String() + ")"
		}
		logErrf("[%d/%d] Click the new position of %s%s, Esc to cancel\n", index+1, total, name, was)
	}
}

func recordRemap(hist *history.Store, bundle recording.Bundle, total int, startedAt time.Time, runErr error) {
	if hist == nil {
		return
	}
	rec := model.RunRecord{
		Kind:        model.RunRemap,
		Recording:   bundle.ID,
		Script:      bundle.ScriptPath(),
		StartedAt:   startedAt,
		EndedAt:     time.Now(),
		Status:      model.StatusCompleted,
		Actions:     total,
		FailedIndex: -1,
	}
	var cancelled *remap.CancelledError
	switch {
	case errors.As(runErr, &cancelled):
		rec.Status = model.StatusCancelled
		rec.FailedIndex = cancelled.Done
		rec.Error = runErr.Error()
	case runErr != nil:
		rec.Status = model.StatusAborted
		rec.Error = runErr.Error()
	}
	if _, err := hist.Insert(context.Background(), rec); err != nil {
		logErrf("failed to save run: %v\n", err)
	}
}
