// Package geom holds the 2-D point and rectangle primitives shared by the
// point tables. Both types are the tidwall geometry types, so rectangle
// containment and intersection are inclusive of the boundary.
package geom

import (
	"errors"
	"math"
	"strconv"

	"github.com/tidwall/geojson/geometry"
)

// Point is an immutable 2-D coordinate.
type Point = geometry.Point

// Rect is an axis-aligned rectangle, Min holds the lower bounds.
type Rect = geometry.Rect

// ErrNotFinite is returned by parsers when a coordinate is NaN or infinite.
var ErrNotFinite = errors.New("coordinate is not finite")

// P is shorthand for Point{X: x, Y: y}.
func P(x, y float64) Point {
	return Point{X: x, Y: y}
}

// R returns the rectangle [minX, maxX] x [minY, maxY].
func R(minX, minY, maxX, maxY float64) Rect {
	return Rect{
		Min: Point{X: minX, Y: minY},
		Max: Point{X: maxX, Y: maxY},
	}
}

// Unbounded returns the rectangle covering the whole plane.
func Unbounded() Rect {
	return R(math.Inf(-1), math.Inf(-1), math.Inf(+1), math.Inf(+1))
}

// Equal reports whether a and b have exactly the same coordinates.
func Equal(a, b Point) bool {
	return a.X == b.X && a.Y == b.Y
}

// Less orders points by y, then by x.
func Less(a, b Point) bool {
	if a.Y < b.Y {
		return true
	}
	if a.Y > b.Y {
		return false
	}
	return a.X < b.X
}

// Dist is the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// RectDist is the distance from p to the nearest point of r, zero when r
// contains p. Infinite bounds are fine as long as p is finite.
func RectDist(r Rect, p Point) float64 {
	dx := axisDist(p.X, r.Min.X, r.Max.X)
	dy := axisDist(p.Y, r.Min.Y, r.Max.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func axisDist(k, min, max float64) float64 {
	if k < min {
		return min - k
	}
	if k <= max {
		return 0
	}
	return k - max
}

// Finite reports whether both coordinates are real numbers.
func Finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ParsePoint parses two decimal strings into a finite point.
func ParsePoint(xs, ys string) (Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return Point{}, err
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return Point{}, err
	}
	p := P(x, y)
	if !Finite(p) {
		return Point{}, ErrNotFinite
	}
	return p, nil
}
