// Package script parses and formats the line-oriented action language.
package script

import (
	"fmt"
	"time"

	"github.com/verte-zerg/simonsays/internal/model"
)

// Kind names an action variant.
type Kind int

const (
	KindClick Kind = iota
	KindMove
	KindType
	KindKeyPress
	KindWait
	KindCodeBlock
	KindHold
	KindDrag
)

func (k Kind) String() string {
	switch k {
	case KindClick:
		return "click"
	case KindMove:
		return "move"
	case KindType:
		return "type"
	case KindKeyPress:
		return "press"
	case KindWait:
		return "wait"
	case KindCodeBlock:
		return "code block"
	case KindHold:
		return "hold"
	case KindDrag:
		return "drag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is one executable step. The set of implementations is closed.
type Action interface {
	Kind() Kind
	// Line is the 1-based source line the action was parsed from, or 0.
	Line() int
	sealed()
}

// RefKind distinguishes how a Ref is resolved.
type RefKind int

const (
	// RefCurrent uses the pointer where it is.
	RefCurrent RefKind = iota
	// RefName must resolve in the bound location store.
	RefName
	// RefPoint is a literal coordinate.
	RefPoint
)

// Ref is a pointer target.
type Ref struct {
	Kind  RefKind
	Name  string
	Point model.Point
}

// Current is the "where the pointer already is" reference.
func Current() Ref { return Ref{Kind: RefCurrent} }

// Named references a location by name.
func Named(name string) Ref { return Ref{Kind: RefName, Name: name} }

// At references a literal coordinate.
func At(p model.Point) Ref { return Ref{Kind: RefPoint, Point: p} }

func (r Ref) String() string {
	switch r.Kind {
	case RefName:
		return r.Name
	case RefPoint:
		return r.Point.String()
	default:
		return "current position"
	}
}

type pos struct{ line int }

func (p pos) Line() int { return p.line }
func (pos) sealed()     {}

// Click presses and releases a button, optionally after moving to Target.
type Click struct {
	pos
	Button model.Button
	Target Ref
}

// Move moves the pointer to Target.
type Move struct {
	pos
	Target Ref
}

// Type pastes Text, followed by a newline when AppendReturn is set.
type Type struct {
	pos
	Text         string
	AppendReturn bool
}

// KeyPress taps Key with optional modifiers held.
type KeyPress struct {
	pos
	Key       string
	Modifiers []string
}

// Wait suspends execution.
type Wait struct {
	pos
	Duration time.Duration
}

// CodeBlock pastes Lines one by one, each but the last followed by return.
type CodeBlock struct {
	pos
	Lines []string
}

// Hold presses Button at Target for Duration before releasing it.
type Hold struct {
	pos
	Button   model.Button
	Target   Ref
	Duration time.Duration
}

// Drag presses Button at From, moves to To and releases.
type Drag struct {
	pos
	Button model.Button
	From   Ref
	To     Ref
}

func (Click) Kind() Kind     { return KindClick }
func (Move) Kind() Kind      { return KindMove }
func (Type) Kind() Kind      { return KindType }
func (KeyPress) Kind() Kind  { return KindKeyPress }
func (Wait) Kind() Kind      { return KindWait }
func (CodeBlock) Kind() Kind { return KindCodeBlock }
func (Hold) Kind() Kind      { return KindHold }
func (Drag) Kind() Kind      { return KindDrag }

// Script is an ordered, branch-free sequence of actions.
type Script struct {
	Actions []Action
}

// Len returns the number of actions.
func (s Script) Len() int {
	return len(s.Actions)
}

// References returns distinct location names in first-use order.
func (s Script) References() []string {
	var names []string
	seen := map[string]struct{}{}
	add := func(r Ref) {
		if r.Kind != RefName {
			return
		}
		if _, ok := seen[r.Name]; ok {
			return
		}
		seen[r.Name] = struct{}{}
		names = append(names, r.Name)
	}
	for _, a := range s.Actions {
		for _, r := range Refs(a) {
			add(r)
		}
	}
	return names
}

// Refs returns the pointer targets of an action in resolution order.
func Refs(a Action) []Ref {
	switch a := a.(type) {
	case Click:
		return []Ref{a.Target}
	case Move:
		return []Ref{a.Target}
	case Hold:
		return []Ref{a.Target}
	case Drag:
		return []Ref{a.From, a.To}
	default:
		return nil
	}
}
