// Package executor runs parsed scripts against an input driver.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/simonsays/internal/model"
)

// InputDriver synthesizes pointer and keyboard input.
type InputDriver interface {
	MoveTo(x, y int) error
	Click(button model.Button) error
	Down(button model.Button) error
	Up(button model.Button) error
	KeyTap(key string, modifiers ...string) error
}

// ClipboardPort reads and writes the system clipboard.
type ClipboardPort interface {
	Read() (string, error)
	Write(text string) error
}

// TriggerSource blocks until the user signals that playback may start.
type TriggerSource interface {
	Wait(ctx context.Context) error
}

// TriggerFunc adapts a function to TriggerSource.
type TriggerFunc func(ctx context.Context) error

// Wait implements TriggerSource.
func (f TriggerFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// Immediate is a trigger that fires at once.
var Immediate = TriggerFunc(func(ctx context.Context) error {
	return ctx.Err()
})

// CountdownTrigger fires after a fixed delay, calling Tick once per remaining second.
type CountdownTrigger struct {
	Duration time.Duration
	Tick     func(remaining time.Duration)
}

// Wait implements TriggerSource.
func (c CountdownTrigger) Wait(ctx context.Context) error {
	remaining := c.Duration
	for remaining > 0 {
		if c.Tick != nil {
			c.Tick(remaining)
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		if err := sleepContext(ctx, step); err != nil {
			return err
		}
		remaining -= step
	}
	return ctx.Err()
}

// DriverError reports a failed input or clipboard operation.
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// sleepContext blocks for at least d of monotonic time unless ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	deadline := time.Now().Add(d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil
			}
			timer.Reset(remaining)
		}
	}
}
