package recording

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
)

func writeBundle(t *testing.T, root, id string) Bundle {
	t.Helper()
	store, err := locations.New(locations.Location{Name: "button1", Point: model.Point{X: 100, Y: 200}})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	b, err := Write(root, Contents{
		Info:      Info{ID: id, Description: "demo " + id},
		Script:    "# Recording ID: " + id + "\nmove mouse to button1\nleft click\n",
		Locations: store,
	})
	if err != nil {
		t.Fatalf("write %s: %v", id, err)
	}
	return b
}

func TestWriteOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	written := writeBundle(t, root, "")
	if written.ID != "rec1" {
		t.Fatalf("expected rec1, got %s", written.ID)
	}

	b, err := Open(root, "rec1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Info.Commands != 2 || b.Info.Locations != 1 || b.Info.Description != "demo " {
		t.Fatalf("unexpected info %+v", b.Info)
	}
	if b.Info.Created == "" {
		t.Fatalf("expected created timestamp")
	}
	s, text, err := b.LoadScript()
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	if s.Len() != 2 || text == "" {
		t.Fatalf("unexpected script %d actions", s.Len())
	}
	store, _, err := b.LoadLocations()
	if err != nil {
		t.Fatalf("load locations: %v", err)
	}
	loc, err := store.Get("button1")
	if err != nil || loc.Point != (model.Point{X: 100, Y: 200}) {
		t.Fatalf("unexpected location %v %v", loc, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected staging dir removed, got %d entries", len(entries))
	}
}

func TestWriteNeverOverwrites(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "rec1")
	_, err := Write(root, Contents{Info: Info{ID: "rec1"}, Script: "wait 1\n"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	b, err := Open(root, "rec1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Info.Commands != 2 {
		t.Fatalf("expected original bundle intact, got %+v", b.Info)
	}
}

func TestWriteRejectsInvalidID(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "recordings")
	for _, id := range []string{"../escaped", "a/b", `a\b`, ".", "..", ".hidden"} {
		if _, err := Write(root, Contents{Info: Info{ID: id}, Script: "wait 1\n"}); err == nil {
			t.Fatalf("expected error for id %q", id)
		}
	}
	if _, err := os.Stat(filepath.Join(base, "escaped")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected nothing written outside root, got %v", err)
	}
	if _, err := Open(root, "../escaped"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndNextID(t *testing.T) {
	root := t.TempDir()
	if id, err := NextID(filepath.Join(root, "missing")); err != nil || id != "rec1" {
		t.Fatalf("expected rec1 for missing root, got %q %v", id, err)
	}
	for _, id := range []string{"rec10", "rec2", "demo", "rec1"} {
		writeBundle(t, root, id)
	}
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	bundles, err := List(root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, b := range bundles {
		ids = append(ids, b.ID)
	}
	expected := []string{"rec1", "rec2", "rec10", "demo"}
	if len(ids) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, ids)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, ids)
		}
	}
	if id, err := NextID(root); err != nil || id != "rec11" {
		t.Fatalf("expected rec11, got %q %v", id, err)
	}
}

func TestOpenMissingAndLegacy(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root, "rec9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := Open(root, "../etc"); err == nil {
		t.Fatalf("expected invalid id error")
	}

	dir := filepath.Join(root, "rec3")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ScriptFile), []byte("press tab\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	b, err := Open(root, "rec3")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Info.ID != "rec3" {
		t.Fatalf("expected id from directory, got %+v", b.Info)
	}
	store, _, err := b.LoadLocations()
	if err != nil || store.Len() != 0 {
		t.Fatalf("expected empty store for missing locations file, got %d %v", store.Len(), err)
	}
}

func TestOpenLegacyInfo(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "rec1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ScriptFile), []byte("wait 1\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	legacy := `{"id": "rec1", "created": "2024-05-01T10:00:00.123456", "duration": 12.5, "commands": 4, "locations": 2, "description": "Recording from 2024-05-01 10:00:00"}`
	if err := os.WriteFile(filepath.Join(dir, InfoFile), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write info: %v", err)
	}
	b, err := Open(root, "rec1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Info.Duration != 12.5 || b.Info.Commands != 4 || b.Info.Created != "2024-05-01T10:00:00.123456" {
		t.Fatalf("unexpected info %+v", b.Info)
	}
}
