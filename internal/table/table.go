// Package table defines the point table contract shared by the 2-d tree and
// the brute-force implementation, so either can be swapped for the other.
package table

import (
	"fmt"
	"strings"

	"github.com/ygmpkk/pointst/internal/brute"
	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/kdtree"
)

// Table maps 2-D points to values.
//
// Iterating methods call iter for each result and stop when it returns
// false; they return false if stopped early. A Table must not be modified
// from inside iter.
type Table[V any] interface {
	// Empty returns true when no points are stored.
	Empty() bool
	// Len returns the number of stored points.
	Len() int
	// Set associates value with point. A point that is already stored has
	// its value replaced and the previous value is returned.
	Set(point geom.Point, value V) (prev V, replaced bool)
	// Get returns the value stored for point.
	Get(point geom.Point) (V, bool)
	// Contains returns true when point is stored.
	Contains(point geom.Point) bool
	// Scan iterates over all points and their values.
	Scan(iter func(point geom.Point, value V) bool) bool
	// Range iterates over the points inside rect and their values.
	Range(rect geom.Rect, iter func(point geom.Point, value V) bool) bool
	// Nearest returns a closest point not equal to target.
	Nearest(target geom.Point) (geom.Point, bool)
	// KNearest iterates over up to k closest points not equal to target,
	// nearest first.
	KNearest(target geom.Point, k int, iter func(point geom.Point, value V, dist float64) bool) bool
	// Reset removes every point.
	Reset()
}

var (
	_ Table[int] = (*kdtree.Tree[int])(nil)
	_ Table[int] = (*brute.Table[int])(nil)
)

// Kind selects a Table implementation.
type Kind int

// Table kinds
const (
	KDTree Kind = iota
	Brute
)

func (k Kind) String() string {
	switch k {
	case KDTree:
		return "kdtree"
	case Brute:
		return "brute"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses "kdtree" or "brute", case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "kdtree", "kd":
		return KDTree, nil
	case "brute", "bruteforce":
		return Brute, nil
	}
	return 0, fmt.Errorf("invalid table kind '%s'", s)
}

// New returns an empty table of the given kind.
func New[V any](kind Kind) Table[V] {
	if kind == Brute {
		return brute.New[V]()
	}
	return kdtree.New[V]()
}

// Points collects the points of a Scan or Range style iterator into a
// slice.
func Points[V any](fn func(iter func(point geom.Point, value V) bool) bool) []geom.Point {
	var points []geom.Point
	fn(func(point geom.Point, _ V) bool {
		points = append(points, point)
		return true
	})
	return points
}

// Nearby collects up to k nearest points of t into a slice.
func Nearby[V any](t Table[V], target geom.Point, k int) []geom.Point {
	var points []geom.Point
	t.KNearest(target, k, func(point geom.Point, _ V, _ float64) bool {
		points = append(points, point)
		return true
	})
	return points
}
