// Package kdtree implements a point table on an unbalanced 2-d tree.
//
// Nodes split on x at even depths and on y at odd depths. Every node keeps
// the rectangle of the plane that routes to its subtree, which is what lets
// range and nearest searches skip whole subtrees.
package kdtree

import (
	"math"

	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/pqueue"
)

const none = -1

type node[V any] struct {
	point  geom.Point
	value  V
	region geom.Rect
	lo, hi int // left/bottom and right/top children, or none
}

// Tree is a 2-d tree mapping points to values. Its zero value is an empty
// tree. Nodes live in one slice and refer to their children by index, so a
// Reset followed by a full rebuild reuses the same memory.
//
// A Tree is not safe for concurrent use.
type Tree[V any] struct {
	nodes []node[V]
}

// New returns an empty tree.
func New[V any]() *Tree[V] {
	return &Tree[V]{}
}

// Empty returns true when the tree holds no points.
func (tr *Tree[V]) Empty() bool {
	return len(tr.nodes) == 0
}

// Len returns the number of points in the tree.
func (tr *Tree[V]) Len() int {
	return len(tr.nodes)
}

// Reset removes every point and keeps the node storage for reuse.
func (tr *Tree[V]) Reset() {
	for i := range tr.nodes {
		tr.nodes[i] = node[V]{}
	}
	tr.nodes = tr.nodes[:0]
}

// goesLo reports whether p routes to the left/bottom child of a node at
// point split with the given depth.
func goesLo(p, split geom.Point, depth int) bool {
	if depth&1 == 0 {
		return p.X < split.X
	}
	return p.Y < split.Y
}

// clipRegion splits region at split on the dimension active at depth and
// returns the parts for the left/bottom and right/top children.
func clipRegion(region geom.Rect, split geom.Point, depth int) (lo, hi geom.Rect) {
	lo, hi = region, region
	if depth&1 == 0 {
		lo.Max.X = split.X
		hi.Min.X = split.X
	} else {
		lo.Max.Y = split.Y
		hi.Min.Y = split.Y
	}
	return lo, hi
}

// Set associates value with point. When the point is already stored its
// value is replaced and the previous one returned.
func (tr *Tree[V]) Set(point geom.Point, value V) (prev V, replaced bool) {
	if len(tr.nodes) == 0 {
		tr.nodes = append(tr.nodes, node[V]{
			point: point, value: value, region: geom.Unbounded(),
			lo: none, hi: none,
		})
		return prev, false
	}
	i := 0
	for depth := 0; ; depth++ {
		n := &tr.nodes[i]
		if geom.Equal(point, n.point) {
			prev, n.value = n.value, value
			return prev, true
		}
		lo, hi := clipRegion(n.region, n.point, depth)
		child, region := &n.hi, hi
		if goesLo(point, n.point, depth) {
			child, region = &n.lo, lo
		}
		if *child == none {
			// link before append, which may move the slice
			*child = len(tr.nodes)
			tr.nodes = append(tr.nodes, node[V]{
				point: point, value: value, region: region,
				lo: none, hi: none,
			})
			return prev, false
		}
		i = *child
	}
}

// Get returns the value stored for point.
func (tr *Tree[V]) Get(point geom.Point) (value V, ok bool) {
	i := 0
	if len(tr.nodes) == 0 {
		i = none
	}
	for depth := 0; i != none; depth++ {
		n := &tr.nodes[i]
		if geom.Equal(point, n.point) {
			return n.value, true
		}
		if goesLo(point, n.point, depth) {
			i = n.lo
		} else {
			i = n.hi
		}
	}
	return value, false
}

// Contains returns true when point is stored in the tree.
func (tr *Tree[V]) Contains(point geom.Point) bool {
	_, ok := tr.Get(point)
	return ok
}

// Scan iterates over every point and its value in level order, root first.
// Returning false from iter stops the scan.
func (tr *Tree[V]) Scan(iter func(point geom.Point, value V) bool) bool {
	if len(tr.nodes) == 0 {
		return true
	}
	queue := []int{0}
	for len(queue) > 0 {
		n := &tr.nodes[queue[0]]
		queue = queue[1:]
		if n.lo != none {
			queue = append(queue, n.lo)
		}
		if n.hi != none {
			queue = append(queue, n.hi)
		}
		if !iter(n.point, n.value) {
			return false
		}
	}
	return true
}

// Height returns the number of levels in the tree.
func (tr *Tree[V]) Height() int {
	if len(tr.nodes) == 0 {
		return 0
	}
	var height int
	level := []int{0}
	for len(level) > 0 {
		height++
		var next []int
		for _, i := range level {
			if tr.nodes[i].lo != none {
				next = append(next, tr.nodes[i].lo)
			}
			if tr.nodes[i].hi != none {
				next = append(next, tr.nodes[i].hi)
			}
		}
		level = next
	}
	return height
}

// Range iterates over every point inside rect and its value, boundary
// included. The order is unspecified.
func (tr *Tree[V]) Range(rect geom.Rect, iter func(point geom.Point, value V) bool) bool {
	if len(tr.nodes) == 0 {
		return true
	}
	return tr.search(0, rect, iter)
}

func (tr *Tree[V]) search(i int, rect geom.Rect, iter func(point geom.Point, value V) bool) bool {
	if i == none {
		return true
	}
	n := &tr.nodes[i]
	// the region bounds every point below n
	if !n.region.IntersectsRect(rect) {
		return true
	}
	if rect.ContainsPoint(n.point) && !iter(n.point, n.value) {
		return false
	}
	return tr.search(n.lo, rect, iter) && tr.search(n.hi, rect, iter)
}

type nearestSearch struct {
	target geom.Point
	best   geom.Point
	dist   float64
	found  bool
}

// Nearest returns a stored point closest to target, ignoring a point equal
// to target. It returns false when no such point exists.
func (tr *Tree[V]) Nearest(target geom.Point) (geom.Point, bool) {
	if len(tr.nodes) == 0 {
		return geom.Point{}, false
	}
	s := nearestSearch{target: target, dist: math.Inf(+1)}
	tr.nearest(0, 0, &s)
	return s.best, s.found
}

func (tr *Tree[V]) nearest(i, depth int, s *nearestSearch) {
	if i == none {
		return
	}
	n := &tr.nodes[i]
	// nothing in the region can beat the current best
	if geom.RectDist(n.region, s.target) >= s.dist {
		return
	}
	if !geom.Equal(n.point, s.target) {
		if d := geom.Dist(n.point, s.target); d < s.dist {
			s.best, s.dist, s.found = n.point, d, true
		}
	}
	first, second := n.hi, n.lo
	if goesLo(s.target, n.point, depth) {
		first, second = n.lo, n.hi
	}
	tr.nearest(first, depth+1, s)
	tr.nearest(second, depth+1, s)
}

// KNearest iterates over the k points closest to target with their values
// and distances, nearest first, ignoring a point equal to target. Fewer than
// k points are returned when the tree is smaller, and none when k <= 0.
func (tr *Tree[V]) KNearest(target geom.Point, k int,
	iter func(point geom.Point, value V, dist float64) bool,
) bool {
	if k <= 0 || len(tr.nodes) == 0 {
		return true
	}
	q := pqueue.New[V](target, k)
	tr.knn(0, 0, q)
	return q.Drain(iter)
}

func (tr *Tree[V]) knn(i, depth int, q *pqueue.Queue[V]) {
	if i == none {
		return
	}
	n := &tr.nodes[i]
	target := q.Target()
	if q.Len() >= q.Cap() {
		_, far, _ := q.Farthest()
		if geom.RectDist(n.region, target) >= far {
			return
		}
	}
	if !geom.Equal(n.point, target) {
		q.Push(n.point, n.value)
		if q.Len() > q.Cap() {
			q.PopFarthest()
		}
	}
	first, second := n.hi, n.lo
	if goesLo(target, n.point, depth) {
		first, second = n.lo, n.hi
	}
	tr.knn(first, depth+1, q)
	tr.knn(second, depth+1, q)
}
