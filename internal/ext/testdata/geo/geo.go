// Package geo is a fixture for the binding generator tests.
package geo

import "errors"

type Point struct {
	X, Y int
}

func NewPoint() *Point { return &Point{} }

func NewPointAt(x, y int) *Point { return &Point{X: x, Y: y} }

func ParsePoint(s string) (*Point, error) {
	if s == "" {
		return nil, errors.New("empty point")
	}
	return &Point{}, nil
}

func (p *Point) Add(q Point) { p.X += q.X; p.Y += q.Y }

func Origin() Point { return Point{} }

var Zero Point
