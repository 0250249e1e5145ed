// Package model defines shared data structures.
package model

import (
	"fmt"
	"math"
	"time"
)

// Point is an absolute pixel position in the capturing display's coordinate space.
type Point struct {
	X float64
	Y float64
}

// Pixel rounds the point to integer screen coordinates.
func (p Point) Pixel() (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// PlayConfig defines playback settings.
type PlayConfig struct {
	Delay            time.Duration
	Settle           time.Duration
	Trigger          string
	Countdown        time.Duration
	RestoreClipboard bool
	Smooth           bool
}

// RunKind distinguishes history entries.
type RunKind string

const (
	RunPlay  RunKind = "play"
	RunRemap RunKind = "remap"
)

// RunStatus is the terminal outcome of a run.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusAborted   RunStatus = "aborted"
	StatusCancelled RunStatus = "cancelled"
)

// RunRecord captures a finished play or remap run.
type RunRecord struct {
	ID        string
	Kind      RunKind
	Recording string
	Script    string
	StartedAt time.Time
	EndedAt   time.Time
	Status    RunStatus
	Actions   int
	// FailedIndex is the 0-based action index of an aborted play, or -1.
	FailedIndex int
	Error       string
}

// Duration returns the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
