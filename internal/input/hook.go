//go:build cgo

package input

import (
	"context"
	"errors"
	"fmt"

	hook "github.com/robotn/gohook"

	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/remap"
)

// waitEvent runs the global hook until match reports done or ctx ends.
func waitEvent(ctx context.Context, match func(hook.Event) (bool, error)) error {
	events := hook.Start()
	defer hook.End()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return errors.New("input hook closed")
			}
			done, err := match(ev)
			if err != nil || done {
				return err
			}
		}
	}
}

func isKeyPress(ev hook.Event, code uint16) bool {
	return (ev.Kind == hook.KeyHold || ev.Kind == hook.KeyDown) && ev.Keycode == code
}

// HookTrigger waits for a global middle click or F1 press.
type HookTrigger struct {
	Kind TriggerKind
}

// Wait implements executor.TriggerSource.
func (t HookTrigger) Wait(ctx context.Context) error {
	switch t.Kind {
	case TriggerMouse3:
		middle := hook.MouseMap["center"]
		return waitEvent(ctx, func(ev hook.Event) (bool, error) {
			return ev.Kind == hook.MouseDown && ev.Button == middle, nil
		})
	case TriggerF1:
		f1 := hook.Keycode["f1"]
		return waitEvent(ctx, func(ev hook.Event) (bool, error) {
			return isKeyPress(ev, f1), nil
		})
	default:
		return fmt.Errorf("trigger %q is not a hook trigger", t.Kind)
	}
}

// ClickSampler reads a location as the pointer position of the next left click.
// Esc cancels the remap.
type ClickSampler struct {
	Prompt func(name string, index, total int)
}

// Sample implements remap.Sampler.
func (s ClickSampler) Sample(ctx context.Context, name string, index, total int) (model.Point, error) {
	if s.Prompt != nil {
		s.Prompt(name, index, total)
	}
	esc := hook.Keycode["esc"]
	left := hook.MouseMap["left"]
	pointer := NewRobot(false)
	var p model.Point
	err := waitEvent(ctx, func(ev hook.Event) (bool, error) {
		switch {
		case isKeyPress(ev, esc):
			return true, remap.ErrCancelled
		case ev.Kind == hook.MouseDown && ev.Button == left:
			loc, err := pointer.Location()
			p = loc
			return true, err
		}
		return false, nil
	})
	return p, err
}
