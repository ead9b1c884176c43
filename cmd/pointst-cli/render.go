package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomodule/redigo/redis"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// splitArgs splits a command line on spaces. Double quoted arguments may
// contain spaces and backslash escapes.
func splitArgs(line string) ([]string, error) {
	var args []string
	for i := 0; i < len(line); {
		switch line[i] {
		case ' ', '\t':
			i++
			continue
		case '"':
			j := i + 1
			var arg []byte
			for ; j < len(line) && line[j] != '"'; j++ {
				if line[j] == '\\' && j+1 < len(line) {
					j++
				}
				arg = append(arg, line[j])
			}
			if j == len(line) {
				return nil, fmt.Errorf("unbalanced quotes in request")
			}
			args = append(args, string(arg))
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			args = append(args, line[i:j])
			i = j
		}
	}
	return args, nil
}

// renderJSON formats a JSON reply, colorized for a terminal unless raw.
func renderJSON(reply interface{}, raw bool) string {
	var data []byte
	switch v := reply.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return renderRESP(reply, 0)
	}
	if raw || !gjson.ValidBytes(data) {
		return string(data)
	}
	return strings.TrimSpace(string(pretty.Color(pretty.Pretty(data), nil)))
}

// renderRaw formats a RESP reply without decoration.
func renderRaw(reply interface{}) string {
	switch v := reply.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case redis.Error:
		return v.Error()
	case []interface{}:
		var lines []string
		for _, item := range v {
			lines = append(lines, renderRaw(item))
		}
		return strings.Join(lines, "\n")
	}
	return fmt.Sprint(reply)
}

// renderRESP formats a RESP reply the way redis-cli does.
func renderRESP(reply interface{}, spaces int) string {
	switch v := reply.(type) {
	case nil:
		return "(nil)"
	case []byte:
		return strconv.Quote(string(v))
	case string:
		return v
	case int64:
		return "(integer) " + strconv.FormatInt(v, 10)
	case redis.Error:
		return "(error) " + v.Error()
	case []interface{}:
		if len(v) == 0 {
			return "(empty list or set)"
		}
		var out string
		nspaces := spaces + numlen(len(v))
		for i, item := range v {
			if i > 0 {
				out += strings.Repeat(" ", spaces)
			}
			iout := strings.TrimSpace(renderRESP(item, nspaces+2))
			out += fmt.Sprintf("%d) %s\n", i+1, iout)
		}
		return strings.TrimRight(out, "\n")
	}
	return fmt.Sprint(reply)
}

func numlen(n int) int {
	return len(strconv.Itoa(n))
}
