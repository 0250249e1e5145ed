package script

import "strings"

// Canonical key names accepted by "press".
const (
	KeyReturn    = "return"
	KeyEscape    = "escape"
	KeyTab       = "tab"
	KeySpace     = "space"
	KeyBackspace = "backspace"
	KeyDelete    = "delete"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyHome      = "home"
	KeyEnd       = "end"
	KeyPageUp    = "pageup"
	KeyPageDown  = "pagedown"
)

// Canonical modifier names.
const (
	ModCmd    = "cmd"
	ModCtrl   = "ctrl"
	ModShift  = "shift"
	ModOption = "option"
)

var keyAliases = map[string]string{
	"enter":     KeyReturn,
	"esc":       KeyEscape,
	"page_up":   KeyPageUp,
	"page_down": KeyPageDown,
}

var modifierAliases = map[string]string{
	"cmd":     ModCmd,
	"command": ModCmd,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"option":  ModOption,
	"alt":     ModOption,
}

var namedKeys = func() map[string]struct{} {
	keys := map[string]struct{}{}
	for _, k := range []string{
		KeyReturn, KeyEscape, KeyTab, KeySpace, KeyBackspace, KeyDelete,
		KeyUp, KeyDown, KeyLeft, KeyRight, KeyHome, KeyEnd, KeyPageUp, KeyPageDown,
		"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12",
	} {
		keys[k] = struct{}{}
	}
	return keys
}()

const singleKeys = "abcdefghijklmnopqrstuvwxyz0123456789.,/;'[]\\-=`"

// CanonicalKey returns the canonical name for a key, or false when the key is not
// in the supported set.
func CanonicalKey(name string) (string, bool) {
	name = strings.ToLower(name)
	if alias, ok := keyAliases[name]; ok {
		return alias, true
	}
	if _, ok := namedKeys[name]; ok {
		return name, true
	}
	if len(name) == 1 && strings.Contains(singleKeys, name) {
		return name, true
	}
	return "", false
}

// CanonicalModifier returns the canonical modifier name.
func CanonicalModifier(name string) (string, bool) {
	mod, ok := modifierAliases[strings.ToLower(name)]
	return mod, ok
}
