// Package input adapts the executor and remapper ports to the host desktop.
package input

import (
	"errors"

	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/script"
)

// ErrUnsupported is returned when the binary was built without desktop input support.
var ErrUnsupported = errors.New("desktop input not supported in this build")

var robotKeys = map[string]string{
	script.KeyReturn:   "enter",
	script.KeyEscape:   "esc",
	script.KeyPageUp:   "pageup",
	script.KeyPageDown: "pagedown",
}

var robotModifiers = map[string]string{
	script.ModCmd:    "cmd",
	script.ModCtrl:   "ctrl",
	script.ModShift:  "shift",
	script.ModOption: "alt",
}

// KeyName maps a canonical script key to the synthesizer's key name.
func KeyName(key string) string {
	if name, ok := robotKeys[key]; ok {
		return name
	}
	return key
}

// ModifierNames maps canonical modifiers to synthesizer names.
func ModifierNames(mods []string) []string {
	out := make([]string, 0, len(mods))
	for _, mod := range mods {
		if name, ok := robotModifiers[mod]; ok {
			out = append(out, name)
			continue
		}
		out = append(out, mod)
	}
	return out
}

// ButtonName maps a button to the synthesizer's button name.
func ButtonName(b model.Button) string {
	switch b {
	case model.ButtonRight:
		return "right"
	case model.ButtonMiddle:
		return "center"
	default:
		return "left"
	}
}

// moveProfile paces an animated pointer move. low and high bound the per-step
// pause in milliseconds; delay is the pause after the move completes.
type moveProfile struct {
	low   float64
	high  float64
	delay int
}

var (
	glideProfile = moveProfile{low: 1.0, high: 3.0, delay: 10}
	dragProfile  = moveProfile{low: 3.0, high: 6.0, delay: 10}
)

// profileFor returns the pacing for a move. Moves with a button held are drags.
func profileFor(dragging bool) moveProfile {
	if dragging {
		return dragProfile
	}
	return glideProfile
}
