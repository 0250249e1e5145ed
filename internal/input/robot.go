//go:build cgo

package input

import (
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/verte-zerg/simonsays/internal/model"
)

// Robot synthesizes pointer and keyboard input through robotgo.
type Robot struct {
	smooth bool

	mu   sync.Mutex
	held int
}

// NewRobot returns the desktop input driver. With smooth set, pointer moves are
// animated, and moves made while a button is held travel slower.
func NewRobot(smooth bool) *Robot {
	return &Robot{smooth: smooth}
}

func (r *Robot) MoveTo(x, y int) error {
	if !r.smooth {
		robotgo.Move(x, y)
		return nil
	}
	r.mu.Lock()
	p := profileFor(r.held > 0)
	r.mu.Unlock()
	robotgo.MoveSmooth(x, y, p.low, p.high, p.delay)
	// Land exactly on the target pixel.
	robotgo.Move(x, y)
	return nil
}

func (*Robot) Click(b model.Button) error {
	robotgo.Click(ButtonName(b))
	return nil
}

func (r *Robot) Down(b model.Button) error {
	if err := robotgo.Toggle(ButtonName(b)); err != nil {
		return err
	}
	r.mu.Lock()
	r.held++
	r.mu.Unlock()
	return nil
}

func (r *Robot) Up(b model.Button) error {
	r.mu.Lock()
	if r.held > 0 {
		r.held--
	}
	r.mu.Unlock()
	return robotgo.Toggle(ButtonName(b), "up")
}

func (*Robot) KeyTap(key string, modifiers ...string) error {
	args := make([]interface{}, 0, len(modifiers))
	for _, mod := range ModifierNames(modifiers) {
		args = append(args, mod)
	}
	return robotgo.KeyTap(KeyName(key), args...)
}

// Location returns the current pointer position.
func (*Robot) Location() (model.Point, error) {
	x, y := robotgo.Location()
	return model.Point{X: float64(x), Y: float64(y)}, nil
}
