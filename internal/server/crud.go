package server

import (
	"strconv"
	"time"

	"github.com/tidwall/resp"
	"github.com/tidwall/sjson"
	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/table"
)

// SET x y value
func (s *Server) cmdSet(msg *Message) (resp.Value, error) {
	start := time.Now()
	vs, p, err := tokenpoint(msg.Args[1:])
	if err != nil {
		return NOMessage, err
	}
	var value string
	var ok bool
	if vs, value, ok = tokenval(vs); !ok || len(vs) != 0 {
		return NOMessage, errInvalidNumberOfArguments
	}
	_, replaced := s.tbl.Set(p, value)
	switch msg.OutputType {
	case JSON:
		js, _ := sjson.Set(`{"ok":true}`, "replaced", replaced)
		return jsonReply(js, start), nil
	}
	if replaced {
		return resp.IntegerValue(1), nil
	}
	return resp.IntegerValue(0), nil
}

// GET x y
func (s *Server) cmdGet(msg *Message) (resp.Value, error) {
	start := time.Now()
	vs, p, err := tokenpoint(msg.Args[1:])
	if err != nil {
		return NOMessage, err
	}
	if len(vs) != 0 {
		return NOMessage, errInvalidNumberOfArguments
	}
	value, ok := s.tbl.Get(p)
	switch msg.OutputType {
	case JSON:
		if !ok {
			return NOMessage, errPointNotFound
		}
		js, _ := sjson.Set(`{"ok":true}`, "value", value)
		return jsonReply(js, start), nil
	}
	if !ok {
		return resp.NullValue(), nil
	}
	return resp.StringValue(value), nil
}

// EXISTS x y
func (s *Server) cmdExists(msg *Message) (resp.Value, error) {
	start := time.Now()
	vs, p, err := tokenpoint(msg.Args[1:])
	if err != nil {
		return NOMessage, err
	}
	if len(vs) != 0 {
		return NOMessage, errInvalidNumberOfArguments
	}
	return boolReply(msg, "exists", s.tbl.Contains(p), start), nil
}

// SIZE
func (s *Server) cmdSize(msg *Message) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) != 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	switch msg.OutputType {
	case JSON:
		js, _ := sjson.Set(`{"ok":true}`, "size", s.tbl.Len())
		return jsonReply(js, start), nil
	}
	return resp.IntegerValue(s.tbl.Len()), nil
}

// EMPTY
func (s *Server) cmdEmpty(msg *Message) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) != 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	return boolReply(msg, "empty", s.tbl.Empty(), start), nil
}

// FLUSHDB drops every point. The table is recreated when the configured
// index kind changed, otherwise its storage is reused.
func (s *Server) cmdFlushDB(msg *Message) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) != 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	if kind := s.config.index(); kind != s.kind {
		s.kind = kind
		s.tbl = table.New[string](kind)
	} else {
		s.tbl.Reset()
	}
	s.statsRebuilds.Inc()
	return OKMessage(msg, start), nil
}

func boolReply(msg *Message, name string, v bool, start time.Time) resp.Value {
	if msg.OutputType == JSON {
		js, _ := sjson.Set(`{"ok":true}`, name, v)
		return jsonReply(js, start)
	}
	if v {
		return resp.IntegerValue(1)
	}
	return resp.IntegerValue(0)
}

func respPoint(p geom.Point, value string) []resp.Value {
	return []resp.Value{
		resp.StringValue(strconv.FormatFloat(p.X, 'f', -1, 64)),
		resp.StringValue(strconv.FormatFloat(p.Y, 'f', -1, 64)),
		resp.StringValue(value),
	}
}
