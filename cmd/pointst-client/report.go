package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/table"
)

var (
	query     = geom.P(0.661633, 0.287141)
	origin    = geom.P(0, 0)
	queryRect = geom.R(0.65, 0.28, 0.68, 0.29)
)

const (
	sampleValues = 6
	nearestK     = 7
)

var errOddInput = errors.New("odd number of coordinates")

// load reads whitespace separated x y pairs until EOF and stores each point
// with its zero based position as the value.
func load(rd io.Reader, tbl table.Table[int]) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	var i int
	for sc.Scan() {
		xs := sc.Text()
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return errOddInput
		}
		p, err := geom.ParsePoint(xs, sc.Text())
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		tbl.Set(p, i)
		i++
	}
	return sc.Err()
}

// report writes the acceptance report for tbl.
func report(w io.Writer, tbl table.Table[int]) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "st.empty()? %t\n", tbl.Empty())
	fmt.Fprintf(bw, "st.size() = %d\n", tbl.Len())
	fmt.Fprintf(bw, "First five values:\n")
	var n int
	tbl.Scan(func(_ geom.Point, v int) bool {
		fmt.Fprintf(bw, "  %d\n", v)
		n++
		return n < sampleValues
	})
	fmt.Fprintf(bw, "st.contains(%s)? %t\n", geom.String(query), tbl.Contains(query))
	fmt.Fprintf(bw, "st.contains(%s)? %t\n", geom.String(origin), tbl.Contains(origin))
	fmt.Fprintf(bw, "st.range([%s, %s]x[%s, %s]):\n",
		geom.AppendFloat(nil, queryRect.Min.X), geom.AppendFloat(nil, queryRect.Max.X),
		geom.AppendFloat(nil, queryRect.Min.Y), geom.AppendFloat(nil, queryRect.Max.Y))
	tbl.Range(queryRect, func(p geom.Point, _ int) bool {
		fmt.Fprintf(bw, "  %s\n", geom.String(p))
		return true
	})
	nearest := "null"
	if p, ok := tbl.Nearest(query); ok {
		nearest = geom.String(p)
	}
	fmt.Fprintf(bw, "st.nearest(%s) = %s\n", geom.String(query), nearest)
	fmt.Fprintf(bw, "st.nearest(%s):\n", geom.String(query))
	tbl.KNearest(query, nearestK, func(p geom.Point, _ int, _ float64) bool {
		fmt.Fprintf(bw, "  %s\n", geom.String(p))
		return true
	})
	return bw.Flush()
}
