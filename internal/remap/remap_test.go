package remap

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
)

func sampleStore(t *testing.T) locations.Store {
	t.Helper()
	store, err := locations.New(
		locations.Location{Name: "a", Point: model.Point{X: 1, Y: 1}},
		locations.Location{Name: "b", Point: model.Point{X: 2, Y: 2}},
		locations.Location{Name: "c", Point: model.Point{X: 3, Y: 3}},
	)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func scripted(points map[string]model.Point, cancelAt string) (Sampler, *[]string) {
	var asked []string
	return SamplerFunc(func(_ context.Context, name string, index, total int) (model.Point, error) {
		asked = append(asked, name)
		if name == cancelAt {
			return model.Point{}, ErrCancelled
		}
		return points[name], nil
	}), &asked
}

func TestRunRemapsEveryLocation(t *testing.T) {
	old := sampleStore(t)
	before := old.Locations()
	points := map[string]model.Point{
		"a": {X: 10, Y: 10},
		"b": {X: 20, Y: 20},
		"c": {X: 30, Y: 30},
	}
	sampler, asked := scripted(points, "")

	out, err := Run(context.Background(), old, sampler)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(*asked, []string{"a", "b", "c"}) {
		t.Fatalf("expected prompts in store order, got %v", *asked)
	}
	for _, loc := range out.Locations() {
		if loc.Point != points[loc.Name] {
			t.Fatalf("expected %s at %v, got %v", loc.Name, points[loc.Name], loc.Point)
		}
	}
	if !reflect.DeepEqual(out.List(), old.List()) {
		t.Fatalf("expected identical key set and order")
	}
	if !reflect.DeepEqual(before, old.Locations()) {
		t.Fatalf("expected old store unchanged")
	}
}

func TestRunCancelLeavesNoStore(t *testing.T) {
	old := sampleStore(t)
	before := old.Locations()
	sampler, _ := scripted(map[string]model.Point{"a": {X: 9, Y: 9}}, "b")

	out, err := Run(context.Background(), old, sampler)
	var cancelled *CancelledError
	if !errors.As(err, &cancelled) {
		t.Fatalf("expected CancelledError, got %v", err)
	}
	if cancelled.Name != "b" || cancelled.Done != 1 || cancelled.Total != 3 {
		t.Fatalf("unexpected cancellation %+v", cancelled)
	}
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled in chain")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no store, got %d locations", out.Len())
	}
	if !reflect.DeepEqual(before, old.Locations()) {
		t.Fatalf("expected old store unchanged")
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sampler, asked := scripted(nil, "")
	_, err := Run(ctx, sampleStore(t), sampler)
	var cancelled *CancelledError
	if !errors.As(err, &cancelled) || cancelled.Name != "a" || cancelled.Done != 0 {
		t.Fatalf("expected cancellation at a, got %v", err)
	}
	if len(*asked) != 0 {
		t.Fatalf("expected sampler not called, got %v", *asked)
	}
}

func TestRunSamplerFailure(t *testing.T) {
	boom := errors.New("hook failed")
	sampler := SamplerFunc(func(context.Context, string, int, int) (model.Point, error) {
		return model.Point{}, boom
	})
	_, err := Run(context.Background(), sampleStore(t), sampler)
	var sampleErr *SampleError
	if !errors.As(err, &sampleErr) || sampleErr.Name != "a" {
		t.Fatalf("expected SampleError for a, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause in chain")
	}
}

func TestRunEmptyStore(t *testing.T) {
	empty, err := locations.New()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	sampler, asked := scripted(nil, "")
	out, err := Run(context.Background(), empty, sampler)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 || len(*asked) != 0 {
		t.Fatalf("expected empty remap without prompts")
	}
}

func TestSessionMisuse(t *testing.T) {
	session := NewSession(sampleStore(t))
	var order *OrderError
	if err := session.Bind("b", model.Point{}); !errors.As(err, &order) || order.Expected != "a" {
		t.Fatalf("expected OrderError, got %v", err)
	}
	if err := session.Bind("a", model.Point{X: 5}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, err := session.Commit(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if done, total := session.Progress(); done != 1 || total != 3 {
		t.Fatalf("expected 1/3, got %d/%d", done, total)
	}
	if p, ok := session.Previous("b"); !ok || p != (model.Point{X: 2, Y: 2}) {
		t.Fatalf("unexpected previous point %v", p)
	}
	session.Cancel()
	if _, ok := session.Next(); ok {
		t.Fatalf("expected no next name after cancel")
	}
	if err := session.Bind("b", model.Point{}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := session.Commit(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSessionCommitOnce(t *testing.T) {
	session := NewSession(sampleStore(t))
	for _, name := range []string{"a", "b", "c"} {
		next, ok := session.Next()
		if !ok || next != name {
			t.Fatalf("expected next %s, got %s", name, next)
		}
		if err := session.Bind(name, model.Point{X: 7, Y: 7}); err != nil {
			t.Fatalf("bind %s: %v", name, err)
		}
	}
	out, err := session.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if loc, err := out.Get("c"); err != nil || loc.Point != (model.Point{X: 7, Y: 7}) {
		t.Fatalf("unexpected c: %v %v", loc, err)
	}
	if _, err := session.Commit(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed on second commit, got %v", err)
	}
}
