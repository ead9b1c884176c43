package server

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/tidwall/resp"
	"github.com/tidwall/sjson"
	"github.com/ygmpkk/pointst/core"
	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/log"
)

var errDevOnly = errors.New("command only available in dev mode")

// MASSINSERT num_points [minx miny maxx maxy]
func (s *Server) cmdMassInsert(msg *Message) (resp.Value, error) {
	start := time.Now()
	if !core.DevMode {
		return NOMessage, errDevOnly
	}
	vs := msg.Args[1:]
	var snum string
	var ok bool
	if vs, snum, ok = tokenval(vs); !ok || snum == "" {
		return NOMessage, errInvalidNumberOfArguments
	}
	n, err := strconv.ParseUint(snum, 10, 64)
	if err != nil || n > math.MaxInt32 {
		return NOMessage, errInvalidArgument(snum)
	}
	bounds := geom.R(0, 0, 1, 1)
	if len(vs) != 0 {
		var lo, hi geom.Point
		if vs, lo, err = tokenpoint(vs); err != nil {
			return NOMessage, err
		}
		if vs, hi, err = tokenpoint(vs); err != nil {
			return NOMessage, err
		}
		if len(vs) != 0 {
			return NOMessage, errInvalidNumberOfArguments
		}
		bounds = geom.Rect{Min: lo, Max: hi}
	}
	var inserted int
	for i := 0; i < int(n); i++ {
		p := geom.P(
			bounds.Min.X+rand.Float64()*(bounds.Max.X-bounds.Min.X),
			bounds.Min.Y+rand.Float64()*(bounds.Max.Y-bounds.Min.Y),
		)
		if _, replaced := s.tbl.Set(p, strconv.Itoa(i)); !replaced {
			inserted++
		}
	}
	log.Infof("massinsert: %d points in %s", inserted, time.Since(start))
	switch msg.OutputType {
	case JSON:
		js, _ := sjson.Set(`{"ok":true}`, "inserted", inserted)
		return jsonReply(js, start), nil
	}
	return resp.IntegerValue(inserted), nil
}
