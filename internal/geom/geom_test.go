package geom

import (
	"math"
	"testing"

	"github.com/tidwall/assert"
)

func TestRectDist(t *testing.T) {
	r := R(0, 0, 1, 1)
	assert.Assert(RectDist(r, P(0.5, 0.5)) == 0)
	assert.Assert(RectDist(r, P(1, 1)) == 0)
	assert.Assert(RectDist(r, P(2, 0.5)) == 1)
	assert.Assert(RectDist(r, P(0.5, -3)) == 3)
	assert.Assert(RectDist(r, P(4, 5)) == 5)

	u := Unbounded()
	assert.Assert(RectDist(u, P(1e300, -1e300)) == 0)

	half := R(math.Inf(-1), math.Inf(-1), 0.5, math.Inf(+1))
	assert.Assert(RectDist(half, P(0.25, 9)) == 0)
	assert.Assert(RectDist(half, P(0.75, 9)) == 0.25)
}

func TestContainsIntersects(t *testing.T) {
	r := R(0, 0, 0.5, 0.5)
	assert.Assert(r.ContainsPoint(P(0.2, 0.3)))
	assert.Assert(r.ContainsPoint(P(0.5, 0.5)))
	assert.Assert(!r.ContainsPoint(P(0.4, 0.7)))
	assert.Assert(!r.ContainsPoint(P(0.9, 0.1)))

	assert.Assert(r.IntersectsRect(Unbounded()))
	assert.Assert(r.IntersectsRect(R(0.5, 0.5, 2, 2)))
	assert.Assert(!r.IntersectsRect(R(0.6, 0, 2, 2)))
}

func TestDistEqualLess(t *testing.T) {
	assert.Assert(Dist(P(0, 0), P(3, 4)) == 5)
	assert.Assert(Equal(P(0.1, 0.2), P(0.1, 0.2)))
	assert.Assert(!Equal(P(0.1, 0.2), P(0.2, 0.1)))
	assert.Assert(Less(P(9, 0), P(0, 1)))
	assert.Assert(Less(P(0, 1), P(1, 1)))
	assert.Assert(!Less(P(1, 1), P(1, 1)))
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("0.25", "-3")
	assert.Assert(err == nil)
	assert.Assert(Equal(p, P(0.25, -3)))

	_, err = ParsePoint("NaN", "0")
	assert.Assert(err == ErrNotFinite)
	_, err = ParsePoint("1", "+Inf")
	assert.Assert(err == ErrNotFinite)
	_, err = ParsePoint("1", "y")
	assert.Assert(err != nil)
}

func TestString(t *testing.T) {
	tests := []struct {
		p    Point
		want string
	}{
		{P(0.661633, 0.287141), "(0.661633, 0.287141)"},
		{P(0, 0), "(0.0, 0.0)"},
		{P(1, -2.5), "(1.0, -2.5)"},
		{P(0.0001, 12345678), "(1.0E-4, 1.2345678E7)"},
		{P(-0.00025, 0.001), "(-2.5E-4, 0.001)"},
	}
	for _, tc := range tests {
		if got := String(tc.p); got != tc.want {
			t.Fatalf("String(%v) = %q, want %q", tc.p, got, tc.want)
		}
	}
}
