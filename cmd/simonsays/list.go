package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/simonsays/internal/history"
	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/recording"
	"github.com/verte-zerg/simonsays/internal/script"
)

const nameColumn = 24

var (
	checkLocations string
	historyLast    int
	historyKind    string
	historySince   string
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <recording-id|script-path>",
		Short: "Parse a script and resolve its locations without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckCmd,
	}
	cmd.Flags().StringVar(&checkLocations, "locations", "", "locations file (default: the recording's, else locations.json)")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	if checkLocations == "" {
		checkLocations = st.paths.Locations
	}
	tgt, err := resolveTarget(args[0], st.paths.Recordings, checkLocations)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("locations") {
		tgt.locationsPath = checkLocations
	}
	s, err := tgt.loadScript()
	if err != nil {
		return err
	}
	store, err := loadLocations(tgt.locationsPath)
	if err != nil {
		return err
	}
	if err := script.Validate(s, store); err != nil {
		return err
	}
	refs := s.References()
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "OK: %d actions, %d of %d locations referenced\n", s.Len(), len(refs), store.Len()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newRecordingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recordings",
		Short: "List recordings",
		Args:  cobra.NoArgs,
		RunE:  runRecordingsCmd,
	}
}

func runRecordingsCmd(cmd *cobra.Command, _ []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	bundles, err := recording.List(st.paths.Recordings)
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		logErrf("No recordings found in %s\n", st.paths.Recordings)
		return nil
	}

	summaries := map[string]history.RecordingSummary{}
	if _, err := os.Stat(st.paths.Database); err == nil {
		hist := openHistory(st.paths.Database)
		if hist != nil {
			sums, err := hist.Summaries(context.Background())
			if err != nil {
				logErrf("failed to load run history: %v\n", err)
			}
			for _, sum := range sums {
				summaries[sum.Recording] = sum
			}
			closeHistory(hist)
		}
	}

	out := cmd.OutOrStdout()
	for _, b := range bundles {
		desc := b.Info.Description
		if desc == "" {
			desc = "No description"
		}
		if b.Info.RemappedFrom != "" {
			desc += " [from " + b.Info.RemappedFrom + "]"
		}
		line := fmt.Sprintf("%s %4d cmds %3d locs  %s", pad(b.ID, 10), b.Info.Commands, b.Info.Locations, desc)
		if sum, ok := summaries[b.ID]; ok {
			line += fmt.Sprintf("  (%d runs, %.0f%% ok)", sum.Runs, sum.SuccessRate()*100)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations <recording-id|locations-path>",
		Short: "List named locations",
		Args:  cobra.ExactArgs(1),
		RunE:  runLocationsCmd,
	}
}

func runLocationsCmd(cmd *cobra.Command, args []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	path := args[0]
	bundle, err := recording.Open(st.paths.Recordings, args[0])
	switch {
	case err == nil:
		path = bundle.LocationsPath()
	case !errors.Is(err, recording.ErrNotFound):
		return err
	}
	store, meta, err := locations.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}
	return writeLocations(cmd.OutOrStdout(), store, meta)
}

func writeLocations(w io.Writer, store locations.Store, meta locations.Meta) error {
	for _, loc := range store.Locations() {
		if _, err := fmt.Fprintf(w, "%s %s\n", pad(loc.Name, nameColumn), loc.Point); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if res, ok := meta["screen_resolution"]; ok {
		if _, err := fmt.Fprintf(w, "captured at %v\n", res); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent play and remap runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultLast, "number of runs to show")
	cmd.Flags().StringVar(&historyKind, "kind", "", "filter by kind: play or remap")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast <= 0 {
		return fmt.Errorf("--last must be > 0")
	}
	filter := history.Filter{Kind: model.RunKind(historyKind)}
	switch filter.Kind {
	case "", model.RunPlay, model.RunRemap:
	default:
		return fmt.Errorf("--kind must be play or remap")
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}

	st, err := loadSettings()
	if err != nil {
		return err
	}
	hist, err := history.Open(st.paths.Database)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeHistory(hist)

	runs, err := hist.ListRecent(context.Background(), historyLast, filter)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	if len(runs) == 0 {
		logErrln("No runs recorded yet")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, run := range runs {
		if _, err := fmt.Fprintln(out, formatRun(run)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatRun(run model.RunRecord) string {
	parts := []string{
		run.EndedAt.Local().Format("2006-01-02 15:04:05"),
		pad(string(run.Kind), 5),
		pad(run.Recording, 12),
		pad(string(run.Status), 9),
		fmt.Sprintf("%6.1fs", run.Duration().Seconds()),
	}
	if run.FailedIndex >= 0 && run.Status != model.StatusCompleted {
		parts = append(parts, fmt.Sprintf("at %d/%d", run.FailedIndex+1, run.Actions))
	}
	if run.Error != "" {
		parts = append(parts, run.Error)
	}
	return strings.Join(parts, "  ")
}

// pad truncates or right-pads s to width display cells.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
