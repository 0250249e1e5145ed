// Package remap rebinds every location of a store to freshly sampled points.
package remap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
)

var (
	// ErrCancelled is returned by a Sampler when the user aborts the session.
	ErrCancelled = errors.New("remap cancelled")
	// ErrSessionClosed is returned by Session methods after Commit or Cancel.
	ErrSessionClosed = errors.New("remap session closed")
	// ErrIncomplete is returned by Commit while names remain unbound.
	ErrIncomplete = errors.New("remap session incomplete")
)

// OrderError reports a Bind for a name other than the expected next one.
type OrderError struct {
	Expected string
	Got      string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("expected location %q, got %q", e.Expected, e.Got)
}

// CancelledError reports an aborted remap. No store is produced.
type CancelledError struct {
	// Name is the location that was awaiting a point.
	Name  string
	Done  int
	Total int
	Err   error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("remap cancelled at %q (%d/%d bound)", e.Name, e.Done, e.Total)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// SampleError reports a sampler failure for a location.
type SampleError struct {
	Name string
	Err  error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("failed to sample location %q: %v", e.Name, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// Session walks the names of a store in order, collecting a new point for each.
// The source store is never modified; Commit publishes a new store in one step.
type Session struct {
	mu     sync.Mutex
	old    locations.Store
	names  []string
	points []model.Point
	closed bool
}

// NewSession starts a session over every name in old, in store order.
func NewSession(old locations.Store) *Session {
	return &Session{old: old, names: old.List()}
}

// Next returns the name awaiting a point. ok is false once every name is bound.
func (s *Session) Next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.points) >= len(s.names) {
		return "", false
	}
	return s.names[len(s.points)], true
}

// Progress returns bound and total name counts.
func (s *Session) Progress() (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points), len(s.names)
}

// Previous returns the point name had in the source store.
func (s *Session) Previous(name string) (model.Point, bool) {
	loc, err := s.old.Get(name)
	if err != nil {
		return model.Point{}, false
	}
	return loc.Point, true
}

// Bind records p for name, which must equal Next().
func (s *Session) Bind(name string, p model.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if len(s.points) >= len(s.names) {
		return &OrderError{Got: name}
	}
	if expected := s.names[len(s.points)]; expected != name {
		return &OrderError{Expected: expected, Got: name}
	}
	s.points = append(s.points, p)
	return nil
}

// Commit closes the session and returns the remapped store. It fails with
// ErrIncomplete while names remain, leaving the session open.
func (s *Session) Commit() (locations.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return locations.Store{}, ErrSessionClosed
	}
	if len(s.points) < len(s.names) {
		return locations.Store{}, ErrIncomplete
	}
	out := s.old
	for i, name := range s.names {
		next, err := out.WithReplaced(name, s.points[i])
		if err != nil {
			return locations.Store{}, fmt.Errorf("failed to bind %q: %w", name, err)
		}
		out = next
	}
	s.closed = true
	return out, nil
}

// Cancel discards every collected point.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.points = nil
}

// Sampler produces the new point for one location, typically by waiting for a click.
// index is 0-based. Returning ErrCancelled aborts the remap.
type Sampler interface {
	Sample(ctx context.Context, name string, index, total int) (model.Point, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context, name string, index, total int) (model.Point, error)

// Sample implements Sampler.
func (f SamplerFunc) Sample(ctx context.Context, name string, index, total int) (model.Point, error) {
	return f(ctx, name, index, total)
}

// SampleFailed classifies a sampler error for name as a *CancelledError when the
// user or ctx aborted, and a *SampleError otherwise.
func SampleFailed(ctx context.Context, name string, done, total int, err error) error {
	if errors.Is(err, ErrCancelled) || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
		return &CancelledError{Name: name, Done: done, Total: total, Err: err}
	}
	return &SampleError{Name: name, Err: err}
}

// Run samples a new point for every location of old and returns the remapped store.
// On cancellation or failure no store is returned and old is untouched.
func Run(ctx context.Context, old locations.Store, sampler Sampler) (locations.Store, error) {
	session := NewSession(old)
	for {
		name, ok := session.Next()
		if !ok {
			break
		}
		done, total := session.Progress()
		if err := ctx.Err(); err != nil {
			session.Cancel()
			return locations.Store{}, &CancelledError{Name: name, Done: done, Total: total, Err: err}
		}
		p, err := sampler.Sample(ctx, name, done, total)
		if err != nil {
			session.Cancel()
			return locations.Store{}, SampleFailed(ctx, name, done, total, err)
		}
		if err := session.Bind(name, p); err != nil {
			return locations.Store{}, err
		}
	}
	return session.Commit()
}
