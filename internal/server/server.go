package server

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/hashmap"
	"github.com/tidwall/redcon"
	"github.com/tidwall/resp"
	"github.com/ygmpkk/pointst/internal/log"
	"github.com/ygmpkk/pointst/internal/table"
	"go.uber.org/atomic"
)

// Server is a point table server
type Server struct {
	// static values
	host    string
	port    int
	dir     string
	started time.Time
	config  *Config

	// atomics
	statsTotalConns    atomic.Int64 // counter for total connections
	statsTotalCommands atomic.Int64 // counter for total commands
	statsRebuilds      atomic.Int64 // counter for FLUSHDB rebuilds
	nextClientID       atomic.Int64
	stopServer         atomic.Bool

	connsmu sync.RWMutex
	conns   hashmap.Map[int64, *Client]

	mu   sync.RWMutex
	kind table.Kind          // kind of tbl
	tbl  table.Table[string] // point payloads

	ln *redcon.Server
}

// Options for creating a Server
type Options struct {
	Host string
	Port int
	Dir  string
	// Index is the table kind used when the config file names none.
	Index table.Kind
}

// New creates a server from the config file in opts.Dir. The server is not
// listening until ListenAndServe is called.
func New(opts Options) (*Server, error) {
	config, err := loadConfig(filepath.Join(opts.Dir, "config"), opts.Index)
	if err != nil {
		return nil, err
	}
	if lcfg := config.logConfig(); lcfg != "" {
		if err := log.Build(lcfg); err != nil {
			return nil, err
		}
		log.LogJSON = true
	}
	s := &Server{
		host:    Default(opts.Host, "127.0.0.1"),
		port:    opts.Port,
		dir:     opts.Dir,
		started: time.Now(),
		config:  config,
		kind:    config.index(),
	}
	s.tbl = table.New[string](s.kind)
	return s, nil
}

// ListenAndServe accepts RESP connections until Close is called.
func (s *Server) ListenAndServe() error {
	return s.listenAndServe(nil)
}

func (s *Server) listenAndServe(signal chan error) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	s.ln = redcon.NewServerNetwork("tcp", addr, s.handle, s.accept, s.closed)
	log.Infof("Ready to accept connections at %s", addr)
	if signal != nil {
		return s.ln.ListenServeAndSignal(signal)
	}
	return s.ln.ListenAndServe()
}

// Close stops the listener.
func (s *Server) Close() error {
	s.stopServer.Store(true)
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) accept(conn redcon.Conn) bool {
	if s.stopServer.Load() {
		return false
	}
	client := &Client{
		id:         s.nextClientID.Inc(),
		remoteAddr: conn.RemoteAddr(),
		opened:     time.Now(),
		outputType: RESP,
	}
	client.last = client.opened
	if ka := s.config.keepAlive(); ka > 0 {
		if err := setKeepAlive(conn.NetConn(), time.Duration(ka)*time.Second); err != nil {
			log.Warnf("could not set keepalive for connection: %v", conn.RemoteAddr())
		}
	}
	conn.SetContext(client)
	s.connsmu.Lock()
	s.conns.Set(client.id, client)
	s.connsmu.Unlock()
	s.statsTotalConns.Inc()
	log.Debugf("Opened connection: %s", client.remoteAddr)
	return true
}

func (s *Server) closed(conn redcon.Conn, err error) {
	client, ok := conn.Context().(*Client)
	if !ok {
		return
	}
	s.connsmu.Lock()
	s.conns.Delete(client.id)
	s.connsmu.Unlock()
	log.Debugf("Closed connection: %s", client.remoteAddr)
}

func (s *Server) handle(conn redcon.Conn, cmd redcon.Command) {
	client := conn.Context().(*Client)
	msg := &Message{Args: make([]string, len(cmd.Args)), OutputType: client.outputType}
	for i, arg := range cmd.Args {
		msg.Args[i] = string(arg)
	}
	client.mu.Lock()
	client.last = time.Now()
	client.mu.Unlock()
	if log.Level >= 2 {
		log.Cmdf("%s: %s", client.remoteAddr, strings.Join(msg.Args, " "))
	}

	if err := s.handleInputCommand(client, msg); err != nil {
		log.Error(err)
	}
	client.outputType = msg.OutputType
	conn.WriteRaw(client.out)
	client.out = client.out[:0]
	if client.quit {
		conn.Close()
	}
}

func setKeepAlive(conn net.Conn, period time.Duration) error {
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetKeepAlive(true); err != nil {
			return err
		}
		return tcp.SetKeepAlivePeriod(period)
	}
	return nil
}

// handleInputCommand runs msg and writes the serialized reply to client.
func (s *Server) handleInputCommand(client *Client, msg *Message) error {
	start := time.Now()
	if len(msg.Args) == 0 {
		return nil
	}
	s.statsTotalCommands.Inc()
	defer func() {
		cmdDurations.With(prometheus.Labels{"cmd": msg.Command()}).
			Observe(time.Since(start).Seconds())
	}()

	writeOutput := func(res string) error {
		var err error
		if msg.OutputType == JSON {
			_, err = fmt.Fprintf(client, "$%d\r\n%s\r\n", len(res), res)
		} else {
			_, err = client.Write([]byte(res))
		}
		return err
	}
	writeErr := func(errMsg string) error {
		switch msg.OutputType {
		case JSON:
			return writeOutput(`{"ok":false,"err":` + jsonString(errMsg) +
				`,"elapsed":"` + time.Since(start).String() + "\"}")
		default:
			if errMsg == errInvalidNumberOfArguments.Error() {
				return writeOutput("-ERR wrong number of arguments for '" +
					msg.Command() + "' command\r\n")
			}
			v, _ := resp.ErrorValue(errors.New("ERR " + errMsg)).MarshalRESP()
			return writeOutput(string(v))
		}
	}

	if !client.authd || msg.Command() == "auth" {
		if pass := s.config.requirePass(); pass != "" {
			if msg.Command() != "auth" {
				return writeErr("authentication required")
			}
			if len(msg.Args) != 2 || strings.TrimSpace(msg.Args[1]) != pass {
				return writeErr("invalid password")
			}
			client.authd = true
			return s.writeValue(client, msg, OKMessage(msg, start))
		} else if msg.Command() == "auth" {
			return writeErr("invalid password")
		}
	}

	// choose the locking strategy
	switch msg.Command() {
	case "set", "flushdb", "config", "massinsert":
		s.mu.Lock()
		defer s.mu.Unlock()
	case "get", "exists", "size", "empty", "points", "range", "nearest",
		"stats", "server":
		s.mu.RLock()
		defer s.mu.RUnlock()
	case "ping", "echo", "quit", "output", "client", "timeout":
		// connection operations, no locks
	}

	res, err := s.command(msg, client)
	if err != nil {
		return writeErr(err.Error())
	}
	if res.Type() == resp.Error {
		return writeErr(res.String())
	}
	return s.writeValue(client, msg, res)
}

func (s *Server) writeValue(client *Client, msg *Message, res resp.Value) error {
	if isRespValueEmptyString(res) {
		return nil
	}
	if msg.OutputType == JSON {
		data := res.String()
		_, err := fmt.Fprintf(client, "$%d\r\n%s\r\n", len(data), data)
		return err
	}
	data, err := res.MarshalRESP()
	if err != nil {
		return err
	}
	_, err = client.Write(data)
	return err
}

func isRespValueEmptyString(val resp.Value) bool {
	return !val.IsNull() && val.Type() == resp.SimpleString && len(val.Bytes()) == 0
}

func (s *Server) command(msg *Message, client *Client) (res resp.Value, err error) {
	switch msg.Command() {
	default:
		err = fmt.Errorf("unknown command '%s'", msg.Args[0])
	case "ping", "echo":
		res, err = s.cmdPing(msg)
	case "quit":
		client.quit = true
		res = OKMessage(msg, time.Now())
	case "output":
		res, err = s.cmdOutput(msg)
	case "client":
		res, err = s.cmdClient(msg, client)
	case "timeout":
		res, err = s.cmdTimeout(msg, client)
	case "set":
		res, err = s.cmdSet(msg)
	case "get":
		res, err = s.cmdGet(msg)
	case "exists":
		res, err = s.cmdExists(msg)
	case "size":
		res, err = s.cmdSize(msg)
	case "empty":
		res, err = s.cmdEmpty(msg)
	case "flushdb":
		res, err = s.cmdFlushDB(msg)
	case "points":
		res, err = s.cmdPoints(msg, client)
	case "range":
		res, err = s.cmdRange(msg, client)
	case "nearest":
		res, err = s.cmdNearest(msg, client)
	case "stats":
		res, err = s.cmdStats(msg)
	case "server":
		res, err = s.cmdServer(msg)
	case "config":
		res, err = s.cmdConfig(msg)
	case "massinsert":
		res, err = s.cmdMassInsert(msg)
	}
	return
}

// OKMessage returns a default OK message in JSON or RESP.
func OKMessage(msg *Message, start time.Time) resp.Value {
	switch msg.OutputType {
	case JSON:
		return resp.StringValue(`{"ok":true,"elapsed":"` + time.Since(start).String() + "\"}")
	case RESP:
		return resp.SimpleStringValue("OK")
	}
	return resp.SimpleStringValue("")
}

// NOMessage is no message
var NOMessage = resp.SimpleStringValue("")

// Type is resp type
type Type byte

// Protocol Types
const (
	Null Type = iota
	RESP
	JSON
)

// Message is a resp message
type Message struct {
	_command   string
	Args       []string
	OutputType Type
}

// Command returns the first argument as a lowercase string
func (msg *Message) Command() string {
	if msg._command == "" {
		msg._command = strings.ToLower(msg.Args[0])
	}
	return msg._command
}
