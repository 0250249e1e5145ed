package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/simonsays/internal/input"
	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/remap"
)

var locateOut string

func newLocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate [name...]",
		Short: "Print the position of each left click, or save clicks as named locations",
		Args:  cobra.ArbitraryArgs,
		RunE:  runLocateCmd,
	}
	cmd.Flags().StringVar(&locateOut, "out", "", "locations file to update with named clicks (default: locations.json)")
	return cmd
}

func runLocateCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		say(out, "Click anywhere to print its position. Press Esc or Ctrl+C to stop.\n")
		return printClicks(ctx, input.ClickSampler{}, out)
	}

	st, err := loadSettings()
	if err != nil {
		return err
	}
	path := locateOut
	if path == "" {
		path = st.paths.Locations
	}
	base, meta, err := locations.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		base, err = locations.New()
	}
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}

	store, err := learnLocations(ctx, base, args, input.ClickSampler{Prompt: plainPrompt(base)})
	if err != nil {
		return err
	}
	if err := locations.SaveFile(path, store, meta); err != nil {
		return fmt.Errorf("failed to save locations: %w", err)
	}
	say(out, "Saved %d locations to %s\n", len(args), path)
	return nil
}

// printClicks prints the pixel position of every sampled click until the
// sampler is cancelled.
func printClicks(ctx context.Context, sampler remap.Sampler, out io.Writer) error {
	for i := 0; ; i++ {
		p, err := sampler.Sample(ctx, "", i, 0)
		if err != nil {
			if errors.Is(err, remap.ErrCancelled) || ctx.Err() != nil {
				say(out, "Stopped.\n")
				return nil
			}
			return err
		}
		x, y := p.Pixel()
		say(out, "Left click at: x=%d, y=%d\n", x, y)
	}
}

// learnLocations samples a point for each name and binds it on top of base.
// Nothing is returned unless every name was sampled.
func learnLocations(ctx context.Context, base locations.Store, names []string, sampler remap.Sampler) (locations.Store, error) {
	for _, name := range names {
		if err := locations.ValidateName(name); err != nil {
			return locations.Store{}, err
		}
	}
	store := base
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return locations.Store{}, &remap.CancelledError{Name: name, Done: i, Total: len(names), Err: err}
		}
		p, err := sampler.Sample(ctx, name, i, len(names))
		if err != nil {
			return locations.Store{}, remap.SampleFailed(ctx, name, i, len(names), err)
		}
		next, err := store.With(name, p)
		if err != nil {
			return locations.Store{}, err
		}
		store = next
	}
	return store, nil
}
