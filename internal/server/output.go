package server

import (
	"strings"
	"time"

	"github.com/tidwall/resp"
)

// OUTPUT [resp|json]
func (s *Server) cmdOutput(msg *Message) (resp.Value, error) {
	start := time.Now()
	args := msg.Args
	switch len(args) {
	case 1:
		if msg.OutputType == JSON {
			return resp.StringValue(`{"ok":true,"output":"json","elapsed":"` +
				time.Since(start).String() + `"}`), nil
		}
		return resp.StringValue("resp"), nil
	case 2:
		// picked up by the connection before the next command
		switch strings.ToLower(args[1]) {
		default:
			return NOMessage, errInvalidArgument(args[1])
		case "json":
			msg.OutputType = JSON
		case "resp":
			msg.OutputType = RESP
		}
		return OKMessage(msg, start), nil
	default:
		return NOMessage, errInvalidNumberOfArguments
	}
}

// PING [message]
func (s *Server) cmdPing(msg *Message) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) > 2 {
		return NOMessage, errInvalidNumberOfArguments
	}
	switch msg.OutputType {
	case JSON:
		if len(msg.Args) > 1 {
			return resp.StringValue(`{"ok":true,"` + msg.Command() + `":` +
				jsonString(msg.Args[1]) + `,"elapsed":"` +
				time.Since(start).String() + `"}`), nil
		}
		return resp.StringValue(`{"ok":true,"` + msg.Command() + `":"pong","elapsed":"` +
			time.Since(start).String() + `"}`), nil
	}
	if len(msg.Args) > 1 {
		return resp.StringValue(msg.Args[1]), nil
	}
	return resp.SimpleStringValue("PONG"), nil
}
