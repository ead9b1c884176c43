// Package brute implements a point table with linear scans over an ordered
// map. It is the reference the 2-d tree is checked against.
package brute

import (
	"sort"

	"github.com/tidwall/btree"
	"github.com/ygmpkk/pointst/internal/geom"
)

type entry[V any] struct {
	point geom.Point
	value V
}

func byPoint[V any](a, b entry[V]) bool {
	return geom.Less(a.point, b.point)
}

var optsNoLock = btree.Options{NoLocks: true}

// Table maps points to values, ordered by y then x.
type Table[V any] struct {
	tr *btree.BTreeG[entry[V]]
}

// New returns an empty table.
func New[V any]() *Table[V] {
	return &Table[V]{tr: btree.NewBTreeGOptions(byPoint[V], optsNoLock)}
}

// Empty returns true when the table holds no points.
func (t *Table[V]) Empty() bool {
	return t.tr.Len() == 0
}

// Len returns the number of points in the table.
func (t *Table[V]) Len() int {
	return t.tr.Len()
}

// Reset removes every point.
func (t *Table[V]) Reset() {
	t.tr = btree.NewBTreeGOptions(byPoint[V], optsNoLock)
}

// Set associates value with point, replacing and returning any previous
// value.
func (t *Table[V]) Set(point geom.Point, value V) (prev V, replaced bool) {
	old, replaced := t.tr.Set(entry[V]{point: point, value: value})
	return old.value, replaced
}

// Get returns the value stored for point.
func (t *Table[V]) Get(point geom.Point) (V, bool) {
	e, ok := t.tr.Get(entry[V]{point: point})
	return e.value, ok
}

// Contains returns true when point is stored.
func (t *Table[V]) Contains(point geom.Point) bool {
	_, ok := t.tr.Get(entry[V]{point: point})
	return ok
}

// Scan iterates over every point and its value in (y, x) order.
func (t *Table[V]) Scan(iter func(point geom.Point, value V) bool) bool {
	keepon := true
	t.tr.Scan(func(e entry[V]) bool {
		keepon = iter(e.point, e.value)
		return keepon
	})
	return keepon
}

// Range iterates over every point inside rect, boundary included.
func (t *Table[V]) Range(rect geom.Rect, iter func(point geom.Point, value V) bool) bool {
	return t.Scan(func(point geom.Point, value V) bool {
		if rect.ContainsPoint(point) {
			return iter(point, value)
		}
		return true
	})
}

// Nearest returns a stored point closest to target other than target
// itself.
func (t *Table[V]) Nearest(target geom.Point) (geom.Point, bool) {
	var best geom.Point
	var bestDist float64
	var found bool
	t.Scan(func(point geom.Point, _ V) bool {
		if geom.Equal(point, target) {
			return true
		}
		if d := geom.Dist(point, target); !found || d < bestDist {
			best, bestDist, found = point, d, true
		}
		return true
	})
	return best, found
}

type candidate[V any] struct {
	entry[V]
	dist float64
}

// KNearest iterates over the k points closest to target, nearest first,
// skipping target itself.
func (t *Table[V]) KNearest(target geom.Point, k int,
	iter func(point geom.Point, value V, dist float64) bool,
) bool {
	if k <= 0 {
		return true
	}
	cands := make([]candidate[V], 0, t.tr.Len())
	t.Scan(func(point geom.Point, value V) bool {
		if !geom.Equal(point, target) {
			cands = append(cands, candidate[V]{
				entry[V]{point, value}, geom.Dist(point, target),
			})
		}
		return true
	})
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].dist < cands[j].dist
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	for _, c := range cands {
		if !iter(c.point, c.value, c.dist) {
			return false
		}
	}
	return true
}
