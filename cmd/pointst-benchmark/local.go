package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/table"
)

type mover struct {
	pos, vel geom.Point
}

// flock is a set of points that drift toward their nearest neighbors while
// a chaser follows the closest point.
type flock struct {
	movers []mover
	chaser mover
	tbl    table.Table[int]
	k      int
}

func newFlock(rng *rand.Rand, kind table.Kind, n, k int) *flock {
	f := &flock{
		movers: make([]mover, n),
		chaser: mover{pos: geom.P(0.5, 0.3)},
		tbl:    table.New[int](kind),
		k:      k,
	}
	for i := range f.movers {
		f.movers[i] = mover{
			pos: geom.P(rng.Float64(), rng.Float64()),
			vel: geom.P((rng.Float64()-0.5)/1000, (rng.Float64()-0.5)/1000),
		}
	}
	return f
}

// tick rebuilds the table from the current positions, steers every point
// by its k nearest neighbors and moves the chaser toward the closest one.
func (f *flock) tick() {
	f.tbl.Reset()
	for i := range f.movers {
		f.tbl.Set(f.movers[i].pos, i)
	}
	for i := range f.movers {
		m := &f.movers[i]
		var cx, cy float64
		var n int
		f.tbl.KNearest(m.pos, f.k, func(_ geom.Point, j int, _ float64) bool {
			cx += f.movers[j].pos.X
			cy += f.movers[j].pos.Y
			n++
			return true
		})
		if n > 0 {
			m.vel.X += (cx/float64(n) - m.pos.X) / 10000
			m.vel.Y += (cy/float64(n) - m.pos.Y) / 10000
		}
	}
	for i := range f.movers {
		m := &f.movers[i]
		m.pos.X += m.vel.X
		m.pos.Y += m.vel.Y
	}
	if p, ok := f.tbl.Nearest(f.chaser.pos); ok {
		f.chaser.pos.X += (p.X - f.chaser.pos.X) / 100
		f.chaser.pos.Y += (p.Y - f.chaser.pos.Y) / 100
	}
}

// runLocal times builds, queries and rebuild ticks on both table kinds.
func runLocal(w io.Writer, n, k, nticks int) {
	for _, kind := range []table.Kind{table.KDTree, table.Brute} {
		rng := rand.New(rand.NewSource(1))
		pts := make([]geom.Point, n)
		for i := range pts {
			pts[i] = geom.P(rng.Float64(), rng.Float64())
		}
		tbl := table.New[int](kind)
		report(w, kind, "SET", n, func() {
			for i, p := range pts {
				tbl.Set(p, i)
			}
		})
		report(w, kind, "GET", n, func() {
			for _, p := range pts {
				tbl.Get(p)
			}
		})
		report(w, kind, "RANGE (side 0.01)", n, func() {
			for _, p := range pts {
				tbl.Range(geom.R(p.X, p.Y, p.X+0.01, p.Y+0.01),
					func(geom.Point, int) bool { return true })
			}
		})
		report(w, kind, "NEAREST", n, func() {
			for _, p := range pts {
				tbl.Nearest(p)
			}
		})
		report(w, kind, fmt.Sprintf("NEAREST (k %d)", k), n, func() {
			for _, p := range pts {
				tbl.KNearest(p, k, func(geom.Point, int, float64) bool { return true })
			}
		})
		f := newFlock(rng, kind, n, k)
		report(w, kind, fmt.Sprintf("REBUILD (%d points, k %d)", n, k), nticks, func() {
			for i := 0; i < nticks; i++ {
				f.tick()
			}
		})
	}
}

func report(w io.Writer, kind table.Kind, name string, ops int, fn func()) {
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	var rate float64
	if elapsed > 0 {
		rate = float64(ops) / elapsed.Seconds()
	}
	fmt.Fprintf(w, "%s %s: %.2f ops per second (%d ops in %s)\n",
		kind, name, rate, ops, elapsed)
}
