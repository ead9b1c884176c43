package brute

import (
	"testing"

	"github.com/tidwall/assert"
	"github.com/ygmpkk/pointst/internal/geom"
)

func TestScanOrder(t *testing.T) {
	tbl := New[string]()
	tbl.Set(geom.P(0.9, 0.1), "c")
	tbl.Set(geom.P(0.2, 0.3), "a")
	tbl.Set(geom.P(0.1, 0.3), "b")
	tbl.Set(geom.P(0.4, 0.7), "d")
	var got []geom.Point
	var values string
	tbl.Scan(func(p geom.Point, v string) bool {
		got = append(got, p)
		values += v
		return true
	})
	assert.Assert(values == "cbad")
	want := []geom.Point{
		geom.P(0.9, 0.1), geom.P(0.1, 0.3), geom.P(0.2, 0.3), geom.P(0.4, 0.7),
	}
	assert.Assert(len(got) == len(want))
	for i := range got {
		assert.Assert(geom.Equal(got[i], want[i]))
	}
}

func TestSetGet(t *testing.T) {
	tbl := New[string]()
	assert.Assert(tbl.Empty())
	prev, replaced := tbl.Set(geom.P(1, 2), "one")
	assert.Assert(!replaced && prev == "")
	prev, replaced = tbl.Set(geom.P(1, 2), "uno")
	assert.Assert(replaced && prev == "one")
	assert.Assert(tbl.Len() == 1)
	v, ok := tbl.Get(geom.P(1, 2))
	assert.Assert(ok && v == "uno")
	_, ok = tbl.Get(geom.P(2, 1))
	assert.Assert(!ok)
}

func TestKNearestOrder(t *testing.T) {
	tbl := New[int]()
	for i := 0; i < 10; i++ {
		tbl.Set(geom.P(float64(i), 0), i)
	}
	var vals []float64
	tbl.KNearest(geom.P(4.2, 0), 4, func(p geom.Point, v int, dist float64) bool {
		assert.Assert(dist == geom.Dist(p, geom.P(4.2, 0)))
		assert.Assert(float64(v) == p.X)
		vals = append(vals, p.X)
		return true
	})
	assert.Assert(len(vals) == 4)
	assert.Assert(vals[0] == 4 && vals[1] == 5 && vals[2] == 3 && vals[3] == 6)
}

func TestNearestSkipsSelf(t *testing.T) {
	tbl := New[int]()
	tbl.Set(geom.P(0, 0), 0)
	tbl.Set(geom.P(3, 4), 1)
	p, ok := tbl.Nearest(geom.P(0, 0))
	assert.Assert(ok && geom.Equal(p, geom.P(3, 4)))
	tbl.Reset()
	tbl.Set(geom.P(0, 0), 0)
	_, ok = tbl.Nearest(geom.P(0, 0))
	assert.Assert(!ok)
}
