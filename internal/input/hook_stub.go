//go:build !cgo

package input

import (
	"context"

	"github.com/verte-zerg/simonsays/internal/model"
)

// HookTrigger is unavailable without cgo.
type HookTrigger struct {
	Kind TriggerKind
}

func (HookTrigger) Wait(context.Context) error {
	return ErrUnsupported
}

// ClickSampler is unavailable without cgo.
type ClickSampler struct {
	Prompt func(name string, index, total int)
}

func (ClickSampler) Sample(context.Context, string, int, int) (model.Point, error) {
	return model.Point{}, ErrUnsupported
}
