package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/tidwall/resp"
)

var errTimeout = errors.New("timeout")

// TIMEOUT [seconds]
func (s *Server) cmdTimeout(msg *Message, client *Client) (res resp.Value, err error) {
	start := time.Now()
	vs := msg.Args[1:]
	var arg string
	var ok bool

	if len(vs) != 0 {
		if vs, arg, ok = tokenval(vs); !ok || arg == "" || len(vs) != 0 {
			return NOMessage, errInvalidNumberOfArguments
		}
		timeout, err := strconv.ParseFloat(arg, 64)
		if err != nil || timeout < 0 {
			return NOMessage, errInvalidArgument(arg)
		}
		client.timeout = time.Duration(timeout * float64(time.Second))
		return OKMessage(msg, start), nil
	}
	// return the timeout
	switch msg.OutputType {
	case JSON:
		return resp.StringValue(`{"ok":true` +
			`,"seconds":` + strconv.FormatFloat(client.timeout.Seconds(), 'f', -1, 64) +
			`,"elapsed":"` + time.Since(start).String() + `"}`), nil
	}
	return resp.FloatValue(client.timeout.Seconds()), nil
}
