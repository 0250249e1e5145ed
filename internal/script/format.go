package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
)

// Format renders a script in canonical grammar, one command per line.
func Format(s Script) string {
	var b strings.Builder
	for _, a := range s.Actions {
		b.WriteString(FormatAction(a))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatAction renders a single action. Code blocks span several lines.
func FormatAction(a Action) string {
	switch a := a.(type) {
	case Click:
		if a.Target.Kind == RefCurrent {
			return a.Button.String() + " click"
		}
		return fmt.Sprintf("%s click at %s", a.Button, formatRef(a.Target))
	case Move:
		return "move mouse to " + formatRef(a.Target)
	case Type:
		if a.AppendReturn {
			return "type line " + quote(a.Text)
		}
		return "type " + quote(a.Text)
	case KeyPress:
		return "press " + strings.Join(append(append([]string(nil), a.Modifiers...), a.Key), "+")
	case Wait:
		return "wait " + formatSeconds(a.Duration)
	case CodeBlock:
		fence := FenceBackticks
		for _, line := range a.Lines {
			if strings.TrimSpace(line) == FenceBackticks {
				fence = FenceDots
				break
			}
		}
		lines := append([]string{"type code block", fence}, a.Lines...)
		return strings.Join(append(lines, fence), "\n")
	case Hold:
		out := a.Button.String() + " click and hold"
		if a.Target.Kind != RefCurrent {
			out += " at " + formatRef(a.Target)
		}
		return out + " for " + formatSeconds(a.Duration) + "s"
	case Drag:
		return fmt.Sprintf("drag %s from %s to %s", a.Button, formatRef(a.From), formatRef(a.To))
	default:
		return fmt.Sprintf("# unsupported action %T", a)
	}
}

func formatRef(r Ref) string {
	if r.Kind == RefPoint {
		return "(" + formatFloat(r.Point.X) + ", " + formatFloat(r.Point.Y) + ")"
	}
	return r.Name
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatSeconds(d time.Duration) string {
	return formatFloat(d.Seconds())
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// ReferenceError locates an unresolved reference found before execution.
type ReferenceError struct {
	Index int
	Line  int
	Err   error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("action %d (line %d): %v", e.Index+1, e.Line, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// Validate checks every named reference against the store without executing.
// The first unresolved reference is returned as a *ReferenceError wrapping
// a *locations.UnknownLocationError.
func Validate(s Script, store locations.Store) error {
	for i, a := range s.Actions {
		for _, r := range Refs(a) {
			if r.Kind != RefName {
				continue
			}
			if _, err := store.Get(r.Name); err != nil {
				return &ReferenceError{Index: i, Line: a.Line(), Err: err}
			}
		}
	}
	return nil
}

// IsUnknownLocation reports whether err carries an unresolved location reference.
func IsUnknownLocation(err error) (string, bool) {
	var unknown *locations.UnknownLocationError
	if errors.As(err, &unknown) {
		return unknown.Name, true
	}
	return "", false
}

// Resolve turns a reference into a point. RefCurrent returns ok=false.
func Resolve(r Ref, store locations.Store) (model.Point, bool, error) {
	switch r.Kind {
	case RefName:
		loc, err := store.Get(r.Name)
		if err != nil {
			return model.Point{}, false, err
		}
		return loc.Point, true, nil
	case RefPoint:
		return r.Point, true, nil
	default:
		return model.Point{}, false, nil
	}
}
