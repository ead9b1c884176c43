// Package pqueue provides the bounded distance queue used by k-nearest
// searches. The farthest point from the target is always on top.
package pqueue

import (
	"github.com/tidwall/tinyqueue"
	"github.com/ygmpkk/pointst/internal/geom"
)

type queueItem[T any] struct {
	point geom.Point
	value T
	dist  float64
}

// Less is inverted so that tinyqueue, a min heap, keeps the farthest item
// at the head.
func (item *queueItem[T]) Less(b tinyqueue.Item) bool {
	return item.dist > b.(*queueItem[T]).dist
}

// Queue is a max queue of points, each carrying a value, ordered by
// distance to a fixed target. Push never evicts; callers compare Len with
// Cap and call PopFarthest.
type Queue[T any] struct {
	target geom.Point
	k      int
	q      *tinyqueue.Queue
}

// New returns an empty queue for the k points nearest to target.
func New[T any](target geom.Point, k int) *Queue[T] {
	return &Queue[T]{target: target, k: k, q: tinyqueue.New(nil)}
}

// Target returns the point distances are measured from.
func (q *Queue[T]) Target() geom.Point {
	return q.target
}

// Cap returns the capacity the queue was created with.
func (q *Queue[T]) Cap() int {
	return q.k
}

// Len returns the number of queued points.
func (q *Queue[T]) Len() int {
	return q.q.Len()
}

// Push adds p and its value to the queue.
func (q *Queue[T]) Push(p geom.Point, value T) {
	q.q.Push(&queueItem[T]{point: p, value: value, dist: geom.Dist(q.target, p)})
}

// Farthest returns the queued point farthest from the target and its
// distance, or false when the queue is empty.
func (q *Queue[T]) Farthest() (geom.Point, float64, bool) {
	item := q.q.Peek()
	if item == nil {
		return geom.Point{}, 0, false
	}
	qi := item.(*queueItem[T])
	return qi.point, qi.dist, true
}

// PopFarthest removes and returns the farthest point.
func (q *Queue[T]) PopFarthest() (geom.Point, float64, bool) {
	item := q.q.Pop()
	if item == nil {
		return geom.Point{}, 0, false
	}
	qi := item.(*queueItem[T])
	return qi.point, qi.dist, true
}

// Drain empties the queue and calls iter from the nearest point to the
// farthest. It returns false if iter stopped early.
func (q *Queue[T]) Drain(iter func(p geom.Point, value T, dist float64) bool) bool {
	items := make([]*queueItem[T], q.q.Len())
	for i := len(items) - 1; i >= 0; i-- {
		items[i] = q.q.Pop().(*queueItem[T])
	}
	for _, item := range items {
		if !iter(item.point, item.value, item.dist) {
			return false
		}
	}
	return true
}
