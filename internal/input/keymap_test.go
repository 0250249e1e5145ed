package input

import (
	"reflect"
	"testing"

	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/script"
)

func TestKeyName(t *testing.T) {
	cases := map[string]string{
		script.KeyReturn:   "enter",
		script.KeyEscape:   "esc",
		script.KeyPageDown: "pagedown",
		script.KeyTab:      "tab",
		"f5":               "f5",
		"a":                "a",
	}
	for in, expected := range cases {
		if got := KeyName(in); got != expected {
			t.Fatalf("expected %q for %q, got %q", expected, in, got)
		}
	}
}

func TestModifierNames(t *testing.T) {
	got := ModifierNames([]string{script.ModCmd, script.ModOption, script.ModShift})
	if !reflect.DeepEqual(got, []string{"cmd", "alt", "shift"}) {
		t.Fatalf("unexpected modifiers %v", got)
	}
	if got := ModifierNames(nil); len(got) != 0 {
		t.Fatalf("expected no modifiers, got %v", got)
	}
}

func TestButtonName(t *testing.T) {
	if ButtonName(model.ButtonMiddle) != "center" || ButtonName(model.ButtonRight) != "right" || ButtonName(model.ButtonLeft) != "left" {
		t.Fatalf("unexpected button names")
	}
}

func TestParseTrigger(t *testing.T) {
	for _, name := range []string{"mouse3", "F1", "countdown"} {
		if _, err := ParseTrigger(name); err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
	}
	if _, err := ParseTrigger("mouse9"); err == nil {
		t.Fatalf("expected error for unknown trigger")
	}
}

func TestProfileForDragIsSlower(t *testing.T) {
	glide, drag := profileFor(false), profileFor(true)
	if drag.low <= glide.low || drag.high <= glide.high {
		t.Fatalf("expected drag pacing slower than glide, got %+v vs %+v", drag, glide)
	}
	if glide.low > glide.high || drag.low > drag.high {
		t.Fatalf("expected low <= high, got %+v and %+v", glide, drag)
	}
}
