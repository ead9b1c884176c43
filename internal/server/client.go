package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/resp"
	"github.com/tidwall/sjson"
)

// Client is a remote connection into the server
type Client struct {
	id         int64         // unique id
	authd      bool          // client has been authenticated
	quit       bool          // close after the reply is written
	outputType Type          // JSON or RESP
	timeout    time.Duration // search deadline, zero for none
	remoteAddr string        // original remote address
	out        []byte        // output write buffer
	opened     time.Time     // when the client was created

	mu   sync.Mutex // guards the fields below
	name string     // optional defined name
	last time.Time  // last client request
}

// Write appends to the output buffer.
func (client *Client) Write(b []byte) (n int, err error) {
	client.out = append(client.out, b...)
	return len(b), nil
}

func (s *Server) connectedClients() int {
	s.connsmu.RLock()
	defer s.connsmu.RUnlock()
	return s.conns.Len()
}

// CLIENT LIST | GETNAME | SETNAME name
func (s *Server) cmdClient(msg *Message, client *Client) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) == 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	switch strings.ToLower(msg.Args[1]) {
	default:
		return NOMessage, errors.New("Syntax error, try CLIENT " +
			"(LIST | GETNAME | SETNAME)")
	case "list":
		if len(msg.Args) != 2 {
			return NOMessage, errInvalidNumberOfArguments
		}
		var list []*Client
		s.connsmu.RLock()
		s.conns.Scan(func(_ int64, cc *Client) bool {
			list = append(list, cc)
			return true
		})
		s.connsmu.RUnlock()
		sort.Slice(list, func(i, j int) bool { return list[i].id < list[j].id })
		now := time.Now()
		var buf []byte
		js := `{"ok":true,"list":[]}`
		for _, cc := range list {
			cc.mu.Lock()
			name, last := cc.name, cc.last
			cc.mu.Unlock()
			age := int64(now.Sub(cc.opened) / time.Second)
			idle := int64(now.Sub(last) / time.Second)
			switch msg.OutputType {
			case JSON:
				item := `{}`
				item, _ = sjson.Set(item, "id", cc.id)
				item, _ = sjson.Set(item, "addr", cc.remoteAddr)
				item, _ = sjson.Set(item, "name", name)
				item, _ = sjson.Set(item, "age", age)
				item, _ = sjson.Set(item, "idle", idle)
				js, _ = sjson.SetRaw(js, "list.-1", item)
			case RESP:
				buf = append(buf, fmt.Sprintf("id=%d addr=%s name=%s age=%d idle=%d\n",
					cc.id, cc.remoteAddr, name, age, idle)...)
			}
		}
		if msg.OutputType == JSON {
			return jsonReply(js, start), nil
		}
		return resp.BytesValue(buf), nil
	case "getname":
		if len(msg.Args) != 2 {
			return NOMessage, errInvalidNumberOfArguments
		}
		client.mu.Lock()
		name := client.name
		client.mu.Unlock()
		if msg.OutputType == JSON {
			js, _ := sjson.Set(`{"ok":true}`, "name", name)
			return jsonReply(js, start), nil
		}
		return resp.StringValue(name), nil
	case "setname":
		if len(msg.Args) != 3 {
			return NOMessage, errInvalidNumberOfArguments
		}
		name := msg.Args[2]
		for i := 0; i < len(name); i++ {
			if name[i] < '!' || name[i] > '~' {
				return NOMessage, errors.New("Client names cannot contain " +
					"spaces, newlines or special characters.")
			}
		}
		client.mu.Lock()
		client.name = name
		client.mu.Unlock()
		return OKMessage(msg, start), nil
	}
}
