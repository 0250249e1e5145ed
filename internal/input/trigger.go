package input

import (
	"fmt"
	"strings"
)

// TriggerKind selects what starts playback.
type TriggerKind string

const (
	TriggerMouse3    TriggerKind = "mouse3"
	TriggerF1        TriggerKind = "f1"
	TriggerCountdown TriggerKind = "countdown"
)

// ParseTrigger validates a trigger name.
func ParseTrigger(name string) (TriggerKind, error) {
	switch kind := TriggerKind(strings.ToLower(strings.TrimSpace(name))); kind {
	case TriggerMouse3, TriggerF1, TriggerCountdown:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown trigger %q (expected mouse3, f1 or countdown)", name)
	}
}
