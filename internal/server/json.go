package server

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/tidwall/resp"
	"github.com/tidwall/sjson"
	"github.com/ygmpkk/pointst/internal/geom"
)

func jsonString(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] < ' ' || s[i] == '\\' || s[i] == '"' || s[i] > 126 {
			d, _ := json.Marshal(s)
			return string(d)
		}
	}
	b := make([]byte, len(s)+2)
	b[0] = '"'
	copy(b[1:], s)
	b[len(b)-1] = '"'
	return string(b)
}

func appendJSONFloat(dst []byte, f float64) []byte {
	return strconv.AppendFloat(dst, f, 'g', -1, 64)
}

// appendJSONPoint appends {"x":..,"y":..,"value":..}, and "distance" when
// dist is not negative.
func appendJSONPoint(dst []byte, p geom.Point, value string, dist float64) []byte {
	dst = append(dst, `{"x":`...)
	dst = appendJSONFloat(dst, p.X)
	dst = append(dst, `,"y":`...)
	dst = appendJSONFloat(dst, p.Y)
	dst = append(dst, `,"value":`...)
	dst = append(dst, jsonString(value)...)
	if dist >= 0 {
		dst = append(dst, `,"distance":`...)
		dst = appendJSONFloat(dst, dist)
	}
	return append(dst, '}')
}

// jsonReply stamps the elapsed time onto js.
func jsonReply(js string, start time.Time) resp.Value {
	js, _ = sjson.Set(js, "elapsed", time.Since(start).String())
	return resp.StringValue(js)
}
