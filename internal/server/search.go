package server

import (
	"strconv"
	"time"

	"github.com/tidwall/resp"
	"github.com/ygmpkk/pointst/internal/deadline"
	"github.com/ygmpkk/pointst/internal/geom"
)

// pointWriter gathers search results in the output type of a message.
type pointWriter struct {
	msg    *Message
	start  time.Time
	dl     *deadline.Deadline
	limit  int
	count  int
	json   []byte
	values []resp.Value
}

func newPointWriter(msg *Message, client *Client, field string, limit int) *pointWriter {
	pw := &pointWriter{
		msg: msg, start: time.Now(), limit: limit,
		dl: deadline.New(client.timeout),
	}
	if msg.OutputType == JSON {
		pw.json = append(pw.json, `{"ok":true,"`+field+`":[`...)
	}
	return pw
}

// push adds a result and returns false once the limit is reached or the
// client timeout expired. A negative dist is left out of the reply.
func (pw *pointWriter) push(p geom.Point, value string, dist float64) bool {
	if pw.limit > 0 && pw.count >= pw.limit {
		return false
	}
	if pw.dl.Expired() {
		return false
	}
	switch pw.msg.OutputType {
	case JSON:
		if pw.count > 0 {
			pw.json = append(pw.json, ',')
		}
		pw.json = appendJSONPoint(pw.json, p, value, dist)
	case RESP:
		vals := respPoint(p, value)
		if dist >= 0 {
			vals = append(vals, resp.StringValue(strconv.FormatFloat(dist, 'f', -1, 64)))
		}
		pw.values = append(pw.values, resp.ArrayValue(vals))
	}
	pw.count++
	return pw.limit <= 0 || pw.count < pw.limit
}

func (pw *pointWriter) value() (resp.Value, error) {
	if pw.dl.Hit() {
		return NOMessage, errTimeout
	}
	if pw.msg.OutputType == JSON {
		pw.json = append(pw.json, `],"count":`...)
		pw.json = strconv.AppendInt(pw.json, int64(pw.count), 10)
		pw.json = append(pw.json, '}')
		return jsonReply(string(pw.json), pw.start), nil
	}
	return resp.ArrayValue(pw.values), nil
}

func parseLimit(vs []string) (limit int, err error) {
	var tok string
	var ok bool
	for len(vs) > 0 {
		vs, tok, _ = tokenval(vs)
		if !lc(tok, "limit") {
			return 0, errInvalidArgument(tok)
		}
		if vs, tok, ok = tokenval(vs); !ok {
			return 0, errInvalidNumberOfArguments
		}
		n, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return 0, errInvalidArgument(tok)
		}
		limit = int(n)
	}
	return limit, nil
}

// POINTS [LIMIT n]
func (s *Server) cmdPoints(msg *Message, client *Client) (resp.Value, error) {
	limit, err := parseLimit(msg.Args[1:])
	if err != nil {
		return NOMessage, err
	}
	pw := newPointWriter(msg, client, "points", limit)
	s.tbl.Scan(func(p geom.Point, value string) bool {
		return pw.push(p, value, -1)
	})
	return pw.value()
}

// RANGE minx miny maxx maxy [LIMIT n]
func (s *Server) cmdRange(msg *Message, client *Client) (resp.Value, error) {
	vs, lo, err := tokenpoint(msg.Args[1:])
	if err != nil {
		return NOMessage, err
	}
	vs, hi, err := tokenpoint(vs)
	if err != nil {
		return NOMessage, err
	}
	if hi.X < lo.X {
		return NOMessage, errInvalidArgument(msg.Args[3])
	}
	if hi.Y < lo.Y {
		return NOMessage, errInvalidArgument(msg.Args[4])
	}
	limit, err := parseLimit(vs)
	if err != nil {
		return NOMessage, err
	}
	pw := newPointWriter(msg, client, "points", limit)
	s.tbl.Range(geom.Rect{Min: lo, Max: hi}, func(p geom.Point, value string) bool {
		return pw.push(p, value, -1)
	})
	return pw.value()
}

// NEAREST x y [k]
func (s *Server) cmdNearest(msg *Message, client *Client) (resp.Value, error) {
	start := time.Now()
	vs, target, err := tokenpoint(msg.Args[1:])
	if err != nil {
		return NOMessage, err
	}
	var tok string
	var ok bool
	if vs, tok, ok = tokenval(vs); !ok {
		p, found := s.tbl.Nearest(target)
		if msg.OutputType == JSON {
			if !found {
				return NOMessage, errPointNotFound
			}
			value, _ := s.tbl.Get(p)
			js := append([]byte(`{"ok":true,"point":`),
				appendJSONPoint(nil, p, value, geom.Dist(p, target))...)
			return jsonReply(string(append(js, '}')), start), nil
		}
		if !found {
			return resp.NullValue(), nil
		}
		value, _ := s.tbl.Get(p)
		return resp.ArrayValue(respPoint(p, value)), nil
	}
	if len(vs) != 0 {
		return NOMessage, errInvalidNumberOfArguments
	}
	k, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return NOMessage, errInvalidArgument(tok)
	}
	pw := newPointWriter(msg, client, "points", 0)
	s.tbl.KNearest(target, int(k), func(p geom.Point, value string, dist float64) bool {
		return pw.push(p, value, dist)
	})
	return pw.value()
}
