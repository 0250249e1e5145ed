//go:build !cgo

package input

import "github.com/verte-zerg/simonsays/internal/model"

// Robot is unavailable without cgo.
type Robot struct{}

// NewRobot returns a driver that fails every operation.
func NewRobot(bool) *Robot {
	return &Robot{}
}

func (*Robot) MoveTo(int, int) error          { return ErrUnsupported }
func (*Robot) Click(model.Button) error       { return ErrUnsupported }
func (*Robot) Down(model.Button) error        { return ErrUnsupported }
func (*Robot) Up(model.Button) error          { return ErrUnsupported }
func (*Robot) KeyTap(string, ...string) error { return ErrUnsupported }

// Location is unavailable without cgo.
func (*Robot) Location() (model.Point, error) {
	return model.Point{}, ErrUnsupported
}
