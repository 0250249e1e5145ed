// Package locations holds named screen coordinates and their file format.
package locations

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/verte-zerg/simonsays/internal/model"
)

// Location is a named screen coordinate.
type Location struct {
	Name  string
	Point model.Point
}

// UnknownLocationError reports a reference to a name absent from the store.
type UnknownLocationError struct {
	Name string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("unknown location %q", e.Name)
}

// ErrInvalidName is returned for names that cannot be stored or referenced.
var ErrInvalidName = errors.New("invalid location name")

// Store maps names to locations and remembers creation order.
// Store is a value: mutators return a new Store and never touch the receiver.
type Store struct {
	order  []string
	points map[string]model.Point
}

// New builds a store from locations in the given order. Duplicate names are an error.
func New(locs ...Location) (Store, error) {
	s := Store{
		order:  make([]string, 0, len(locs)),
		points: make(map[string]model.Point, len(locs)),
	}
	for _, loc := range locs {
		if err := ValidateName(loc.Name); err != nil {
			return Store{}, err
		}
		if _, ok := s.points[loc.Name]; ok {
			return Store{}, fmt.Errorf("duplicate location %q", loc.Name)
		}
		s.order = append(s.order, loc.Name)
		s.points[loc.Name] = loc.Point
	}
	return s, nil
}

// ValidateName checks that a name can be used as a location key and as a script token.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.HasPrefix(name, "$") {
		return fmt.Errorf("%w: %q starts with reserved '$'", ErrInvalidName, name)
	}
	if first := name[0]; first == '(' || first == '-' || (first >= '0' && first <= '9') {
		return fmt.Errorf("%w: %q reads as a coordinate", ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
		}
	}
	return nil
}

// Len returns the number of locations.
func (s Store) Len() int {
	return len(s.order)
}

// Has reports whether name is bound.
func (s Store) Has(name string) bool {
	_, ok := s.points[name]
	return ok
}

// Get returns the named location or an *UnknownLocationError.
func (s Store) Get(name string) (Location, error) {
	p, ok := s.points[name]
	if !ok {
		return Location{}, &UnknownLocationError{Name: name}
	}
	return Location{Name: name, Point: p}, nil
}

// List returns names in creation order.
func (s Store) List() []string {
	return append([]string(nil), s.order...)
}

// Locations returns all locations in creation order.
func (s Store) Locations() []Location {
	out := make([]Location, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Location{Name: name, Point: s.points[name]})
	}
	return out
}

// WithReplaced returns a copy with name rebound to p. The name must already exist.
func (s Store) WithReplaced(name string, p model.Point) (Store, error) {
	if !s.Has(name) {
		return Store{}, &UnknownLocationError{Name: name}
	}
	next := s.clone()
	next.points[name] = p
	return next, nil
}

// With returns a copy with name bound to p, appending it when new.
func (s Store) With(name string, p model.Point) (Store, error) {
	if err := ValidateName(name); err != nil {
		return Store{}, err
	}
	next := s.clone()
	if _, ok := next.points[name]; !ok {
		next.order = append(next.order, name)
	}
	next.points[name] = p
	return next, nil
}

// Equal reports whether both stores hold the same bindings in the same order.
func (s Store) Equal(other Store) bool {
	if len(s.order) != len(other.order) {
		return false
	}
	for i, name := range s.order {
		if other.order[i] != name {
			return false
		}
		if s.points[name] != other.points[name] {
			return false
		}
	}
	return true
}

func (s Store) clone() Store {
	next := Store{
		order:  make([]string, len(s.order), len(s.order)+1),
		points: make(map[string]model.Point, len(s.points)+1),
	}
	copy(next.order, s.order)
	for k, v := range s.points {
		next.points[k] = v
	}
	return next
}
