package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/script"
)

const (
	defaultDelay       = 100 * time.Millisecond
	defaultSettle      = 200 * time.Millisecond
	defaultPasteSettle = 50 * time.Millisecond
)

// State is the executor lifecycle position.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotIdle is returned when Run is called on an executor that already ran.
var ErrNotIdle = errors.New("executor is not idle")

// ExecError reports the action that aborted a run.
type ExecError struct {
	// Index is 0-based; messages show the 1-based position.
	Index int
	Kind  script.Kind
	Line  int
	Err   error
}

func (e *ExecError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("action %d (%s, line %d): %v", e.Index+1, e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("action %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// CancelledError reports a run stopped by context cancellation.
type CancelledError struct {
	// Index is the first action that did not complete, or -1 while armed.
	Index int
	Err   error
}

func (e *CancelledError) Error() string {
	if e.Index < 0 {
		return "cancelled while waiting for trigger"
	}
	return fmt.Sprintf("cancelled at action %d", e.Index+1)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// Observer receives progress notifications. Calls happen on the Run goroutine.
type Observer interface {
	StateChanged(state State)
	ActionStarted(index int, action script.Action)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State)               {}
func (nopObserver) ActionStarted(int, script.Action) {}

// Option configures an Executor.
type Option func(*Executor)

// WithDelay sets the pause between consecutive actions.
func WithDelay(d time.Duration) Option {
	return func(e *Executor) { e.delay = d }
}

// WithSettle sets the pause between moving the pointer and pressing a button.
func WithSettle(d time.Duration) Option {
	return func(e *Executor) { e.settle = d }
}

// WithPasteSettle sets how long the clipboard keeps pasted text after the paste keystroke.
func WithPasteSettle(d time.Duration) Option {
	return func(e *Executor) { e.pasteSettle = d }
}

// WithPasteKey overrides the paste keystroke.
func WithPasteKey(key string, modifiers ...string) Option {
	return func(e *Executor) {
		e.pasteKey = key
		e.pasteMods = modifiers
	}
}

// WithRestoreClipboard selects whether the previous clipboard is restored after a paste.
// When disabled the clipboard is cleared instead.
func WithRestoreClipboard(restore bool) Option {
	return func(e *Executor) { e.restore = restore }
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// DefaultPasteModifier returns the platform paste modifier.
func DefaultPasteModifier() string {
	if runtime.GOOS == "darwin" {
		return script.ModCmd
	}
	return script.ModCtrl
}

// Executor runs one script. It is single-use: Idle, Armed, Running, then
// Completed or Aborted.
type Executor struct {
	driver  InputDriver
	clip    ClipboardPort
	trigger TriggerSource

	delay       time.Duration
	settle      time.Duration
	pasteSettle time.Duration
	pasteKey    string
	pasteMods   []string
	restore     bool
	observer    Observer

	mu    sync.Mutex
	state State
}

// New constructs an idle executor.
func New(driver InputDriver, clip ClipboardPort, trigger TriggerSource, opts ...Option) *Executor {
	if trigger == nil {
		trigger = Immediate
	}
	e := &Executor{
		driver:      driver,
		clip:        clip,
		trigger:     trigger,
		delay:       defaultDelay,
		settle:      defaultSettle,
		pasteSettle: defaultPasteSettle,
		pasteKey:    "v",
		pasteMods:   []string{DefaultPasteModifier()},
		restore:     true,
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle state. Safe for concurrent use.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.observer.StateChanged(s)
}

// Run arms the executor, waits for the trigger and executes every action in order.
// The store is read-only for the duration of the run. The first unresolved reference,
// driver failure or cancellation aborts the run; no later action executes.
func (e *Executor) Run(ctx context.Context, s script.Script, store locations.Store) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return ErrNotIdle
	}
	e.state = StateArmed
	e.mu.Unlock()
	e.observer.StateChanged(StateArmed)

	if err := e.trigger.Wait(ctx); err != nil {
		e.setState(StateAborted)
		if ctx.Err() != nil {
			return &CancelledError{Index: -1, Err: ctx.Err()}
		}
		return fmt.Errorf("failed to wait for trigger: %w", err)
	}

	e.setState(StateRunning)
	for i, action := range s.Actions {
		if ctx.Err() != nil {
			e.setState(StateAborted)
			return &CancelledError{Index: i, Err: ctx.Err()}
		}
		e.observer.ActionStarted(i, action)
		if err := e.execute(ctx, action, store); err != nil {
			e.setState(StateAborted)
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return &CancelledError{Index: i, Err: err}
			}
			return &ExecError{Index: i, Kind: action.Kind(), Line: action.Line(), Err: err}
		}
		if i < len(s.Actions)-1 {
			if err := sleepContext(ctx, e.delay); err != nil {
				e.setState(StateAborted)
				return &CancelledError{Index: i + 1, Err: err}
			}
		}
	}
	e.setState(StateCompleted)
	return nil
}

func (e *Executor) execute(ctx context.Context, action script.Action, store locations.Store) error {
	switch a := action.(type) {
	case script.Click:
		p, ok, err := script.Resolve(a.Target, store)
		if err != nil {
			return err
		}
		if ok {
			if err := e.moveTo(ctx, p, true); err != nil {
				return err
			}
		}
		return e.do("click", e.driver.Click(a.Button))
	case script.Move:
		p, ok, err := script.Resolve(a.Target, store)
		if err != nil || !ok {
			return err
		}
		return e.moveTo(ctx, p, false)
	case script.Type:
		text := a.Text
		if a.AppendReturn {
			text += "\n"
		}
		return e.paste(text)
	case script.KeyPress:
		return e.do("press "+a.Key, e.driver.KeyTap(a.Key, a.Modifiers...))
	case script.Wait:
		return sleepContext(ctx, a.Duration)
	case script.CodeBlock:
		return e.codeBlock(a.Lines)
	case script.Hold:
		return e.hold(ctx, a, store)
	case script.Drag:
		return e.drag(ctx, a, store)
	default:
		return fmt.Errorf("unsupported action %T", action)
	}
}

func (e *Executor) do(op string, err error) error {
	if err != nil {
		return &DriverError{Op: op, Err: err}
	}
	return nil
}

func (e *Executor) moveTo(ctx context.Context, p model.Point, settle bool) error {
	x, y := p.Pixel()
	if err := e.do("move", e.driver.MoveTo(x, y)); err != nil {
		return err
	}
	if settle {
		return sleepContext(ctx, e.settle)
	}
	return nil
}

// paste puts text on the clipboard, sends the paste keystroke and always puts the
// clipboard back afterwards, whether or not the paste succeeded.
func (e *Executor) paste(text string) (err error) {
	prev, rerr := e.clip.Read()
	if rerr != nil {
		prev = ""
	}
	if werr := e.clip.Write(text); werr != nil {
		return &DriverError{Op: "clipboard write", Err: werr}
	}
	defer func() {
		restoreTo := ""
		if e.restore {
			restoreTo = prev
		}
		if werr := e.clip.Write(restoreTo); werr != nil && err == nil {
			err = &DriverError{Op: "clipboard restore", Err: werr}
		}
	}()
	if err := e.do("paste", e.driver.KeyTap(e.pasteKey, e.pasteMods...)); err != nil {
		return err
	}
	if e.pasteSettle > 0 {
		time.Sleep(e.pasteSettle)
	}
	return nil
}

// codeBlock homes the cursor once so editor auto-indent cannot compound, then
// pastes each line. Only lines before the last are followed by return.
func (e *Executor) codeBlock(lines []string) error {
	if err := e.do("press "+script.KeyHome, e.driver.KeyTap(script.KeyHome)); err != nil {
		return err
	}
	for i, line := range lines {
		if err := e.paste(line); err != nil {
			return err
		}
		if i == len(lines)-1 {
			break
		}
		if err := e.do("press "+script.KeyReturn, e.driver.KeyTap(script.KeyReturn)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) hold(ctx context.Context, a script.Hold, store locations.Store) (err error) {
	p, ok, err := script.Resolve(a.Target, store)
	if err != nil {
		return err
	}
	if ok {
		if err := e.moveTo(ctx, p, true); err != nil {
			return err
		}
	}
	if err := e.do("button down", e.driver.Down(a.Button)); err != nil {
		return err
	}
	defer func() {
		if uerr := e.driver.Up(a.Button); uerr != nil && err == nil {
			err = &DriverError{Op: "button up", Err: uerr}
		}
	}()
	return sleepContext(ctx, a.Duration)
}

func (e *Executor) drag(ctx context.Context, a script.Drag, store locations.Store) (err error) {
	from, fromOK, err := script.Resolve(a.From, store)
	if err != nil {
		return err
	}
	to, toOK, err := script.Resolve(a.To, store)
	if err != nil {
		return err
	}
	if fromOK {
		if err := e.moveTo(ctx, from, true); err != nil {
			return err
		}
	}
	if err := e.do("button down", e.driver.Down(a.Button)); err != nil {
		return err
	}
	defer func() {
		if uerr := e.driver.Up(a.Button); uerr != nil && err == nil {
			err = &DriverError{Op: "button up", Err: uerr}
		}
	}()
	if toOK {
		return e.moveTo(ctx, to, true)
	}
	return nil
}
