package server

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/tidwall/assert"
	"github.com/tidwall/gjson"
	"github.com/ygmpkk/pointst/core"
	"github.com/ygmpkk/pointst/internal/geom"
	"github.com/ygmpkk/pointst/internal/log"
	"github.com/ygmpkk/pointst/internal/table"
)

func newTestServer(t *testing.T, kind table.Kind) *Server {
	t.Helper()
	s, err := New(Options{Dir: t.TempDir(), Index: kind})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// do runs one command for client and returns the raw reply.
func do(s *Server, client *Client, args ...string) string {
	msg := &Message{Args: args, OutputType: client.outputType}
	if err := s.handleInputCommand(client, msg); err != nil {
		panic(err)
	}
	client.outputType = msg.OutputType
	out := string(client.out)
	client.out = client.out[:0]
	return out
}

// doJSON runs one command in JSON output and returns the JSON body.
func doJSON(s *Server, client *Client, args ...string) string {
	client.outputType = JSON
	out := do(s, client, args...)
	// strip the bulk header
	i := strings.Index(out, "\r\n")
	return strings.TrimSuffix(out[i+2:], "\r\n")
}

func forEachKind(t *testing.T, fn func(t *testing.T, kind table.Kind)) {
	for _, kind := range []table.Kind{table.KDTree, table.Brute} {
		t.Run(kind.String(), func(t *testing.T) { fn(t, kind) })
	}
}

func TestCommandsRESP(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind table.Kind) {
		s := newTestServer(t, kind)
		c := &Client{outputType: RESP}
		assert.Assert(do(s, c, "PING") == "+PONG\r\n")
		assert.Assert(do(s, c, "ping", "hi") == "$2\r\nhi\r\n")
		assert.Assert(do(s, c, "EMPTY") == ":1\r\n")
		assert.Assert(do(s, c, "SET", "0.5", "0.5", "a") == ":0\r\n")
		assert.Assert(do(s, c, "SET", "0.2", "0.3", "b") == ":0\r\n")
		assert.Assert(do(s, c, "SET", "0.5", "0.5", "c") == ":1\r\n")
		assert.Assert(do(s, c, "SIZE") == ":2\r\n")
		assert.Assert(do(s, c, "EMPTY") == ":0\r\n")
		assert.Assert(do(s, c, "GET", "0.5", "0.5") == "$1\r\nc\r\n")
		assert.Assert(do(s, c, "GET", "0.9", "0.9") == "$-1\r\n")
		assert.Assert(do(s, c, "EXISTS", "0.2", "0.3") == ":1\r\n")
		assert.Assert(do(s, c, "EXISTS", "0.3", "0.2") == ":0\r\n")
		assert.Assert(do(s, c, "NEAREST", "0.5", "0.5") ==
			"*3\r\n$3\r\n0.2\r\n$3\r\n0.3\r\n$1\r\nb\r\n")
		assert.Assert(do(s, c, "RANGE", "0", "0", "0.5", "0.5") != "*0\r\n")
		assert.Assert(do(s, c, "RANGE", "0.6", "0.6", "1", "1") == "*0\r\n")
		assert.Assert(do(s, c, "FLUSHDB") == "+OK\r\n")
		assert.Assert(do(s, c, "SIZE") == ":0\r\n")
		assert.Assert(do(s, c, "NEAREST", "0.5", "0.5") == "$-1\r\n")
	})
}

func TestCommandErrors(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	c := &Client{outputType: RESP}
	assert.Assert(do(s, c, "NOPE") == "-ERR unknown command 'NOPE'\r\n")
	assert.Assert(do(s, c, "SET", "1", "2") ==
		"-ERR wrong number of arguments for 'set' command\r\n")
	assert.Assert(do(s, c, "SET", "1", "x", "v") == "-ERR invalid argument 'x'\r\n")
	assert.Assert(do(s, c, "SET", "NaN", "1", "v") == "-ERR coordinate is not finite\r\n")
	assert.Assert(do(s, c, "GET", "1") ==
		"-ERR wrong number of arguments for 'get' command\r\n")
	assert.Assert(do(s, c, "NEAREST", "1", "2", "k") == "-ERR invalid argument 'k'\r\n")
	assert.Assert(do(s, c, "POINTS", "MAX", "2") == "-ERR invalid argument 'MAX'\r\n")
	assert.Assert(do(s, c, "RANGE", "0.5", "0", "0.4", "1") == "-ERR invalid argument '0.4'\r\n")
	assert.Assert(do(s, c, "RANGE", "0", "0.5", "1", "0.2") == "-ERR invalid argument '0.2'\r\n")
	assert.Assert(do(s, c, "RANGE", "0.5", "0.5", "0.5", "0.5") == "*0\r\n")
	assert.Assert(do(s, c, "OUTPUT", "xml") == "-ERR invalid argument 'xml'\r\n")
	assert.Assert(do(s, c, "SIZE") == ":0\r\n")

	js := doJSON(s, c, "GET", "1", "2")
	assert.Assert(gjson.Get(js, "ok").Bool() == false)
	assert.Assert(gjson.Get(js, "err").String() == "point not found")
}

func TestCommandsJSON(t *testing.T) {
	forEachKind(t, func(t *testing.T, kind table.Kind) {
		s := newTestServer(t, kind)
		c := &Client{outputType: RESP}
		assert.Assert(do(s, c, "OUTPUT", "json") != "")
		assert.Assert(c.outputType == JSON)

		for i, p := range [][2]float64{
			{0.7, 0.2}, {0.5, 0.4}, {0.2, 0.3}, {0.4, 0.7}, {0.9, 0.6},
		} {
			js := doJSON(s, c, "SET", fmt.Sprint(p[0]), fmt.Sprint(p[1]), fmt.Sprintf("v%d", i))
			assert.Assert(gjson.Get(js, "ok").Bool())
			assert.Assert(!gjson.Get(js, "replaced").Bool())
			assert.Assert(gjson.Get(js, "elapsed").Exists())
		}
		js := doJSON(s, c, "SET", "0.5", "0.4", "again")
		assert.Assert(gjson.Get(js, "replaced").Bool())

		js = doJSON(s, c, "SIZE")
		assert.Assert(gjson.Get(js, "size").Int() == 5)

		js = doJSON(s, c, "GET", "0.5", "0.4")
		assert.Assert(gjson.Get(js, "value").String() == "again")

		js = doJSON(s, c, "POINTS")
		assert.Assert(gjson.Get(js, "count").Int() == 5)
		assert.Assert(len(gjson.Get(js, "points").Array()) == 5)

		js = doJSON(s, c, "POINTS", "LIMIT", "2")
		assert.Assert(gjson.Get(js, "count").Int() == 2)

		js = doJSON(s, c, "RANGE", "0.3", "0.3", "0.8", "0.8")
		assert.Assert(gjson.Get(js, "count").Int() == 2)
		var values []string
		for _, v := range gjson.Get(js, "points.#.value").Array() {
			values = append(values, v.String())
		}
		assert.Assert(len(values) == 2)
		assert.Assert(strings.Contains(strings.Join(values, ","), "again"))
		assert.Assert(strings.Contains(strings.Join(values, ","), "v3"))

		js = doJSON(s, c, "NEAREST", "0.2", "0.3")
		assert.Assert(gjson.Get(js, "point.value").String() == "again")

		js = doJSON(s, c, "NEAREST", "0.5", "0.4", "3")
		assert.Assert(gjson.Get(js, "count").Int() == 3)
		d := gjson.Get(js, "points.#.distance").Array()
		assert.Assert(d[0].Float() <= d[1].Float() && d[1].Float() <= d[2].Float())
		for _, v := range gjson.Get(js, "points.#.value").Array() {
			assert.Assert(v.String() != "again")
		}

		js = doJSON(s, c, "NEAREST", "0.5", "0.4", "0")
		assert.Assert(gjson.Get(js, "count").Int() == 0)

		js = doJSON(s, c, "STATS")
		assert.Assert(gjson.Get(js, "stats.num_points").Int() == 5)
		assert.Assert(gjson.Get(js, "stats.index").String() == kind.String())
		assert.Assert(gjson.Get(js, "stats.height").Exists() == (kind == table.KDTree))

		js = doJSON(s, c, "SERVER")
		assert.Assert(gjson.Get(js, "stats.num_points").Int() == 5)
		assert.Assert(gjson.Get(js, "stats.id").String() != "")
	})
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	c := &Client{outputType: RESP}
	assert.Assert(do(s, c, "AUTH", "secret") == "-ERR invalid password\r\n")
	assert.Assert(do(s, c, "CONFIG", "SET", "requirepass", "secret") == "+OK\r\n")

	c2 := &Client{outputType: RESP}
	assert.Assert(do(s, c2, "SIZE") == "-ERR authentication required\r\n")
	assert.Assert(do(s, c2, "AUTH", "wrong") == "-ERR invalid password\r\n")
	assert.Assert(do(s, c2, "AUTH", "secret") == "+OK\r\n")
	assert.Assert(do(s, c2, "SIZE") == ":0\r\n")
}

func TestFlushDBSwitchesIndex(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	c := &Client{outputType: RESP}
	do(s, c, "SET", "1", "1", "a")
	assert.Assert(do(s, c, "CONFIG", "SET", "index", "brute") == "+OK\r\n")
	// takes effect on the next flush
	assert.Assert(s.kind == table.KDTree)
	assert.Assert(do(s, c, "FLUSHDB") == "+OK\r\n")
	assert.Assert(s.kind == table.Brute)
	assert.Assert(do(s, c, "SIZE") == ":0\r\n")
	assert.Assert(do(s, c, "CONFIG", "SET", "index", "octree") ==
		"-ERR Invalid argument 'octree' for CONFIG SET 'index'\r\n")
}

func TestClientCommand(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	c := &Client{id: 7, outputType: RESP, remoteAddr: "1.2.3.4:5"}
	s.conns.Set(c.id, c)
	assert.Assert(do(s, c, "CLIENT", "SETNAME", "alice") == "+OK\r\n")
	assert.Assert(do(s, c, "CLIENT", "GETNAME") == "$5\r\nalice\r\n")
	assert.Assert(do(s, c, "CLIENT", "SETNAME", "a b") ==
		"-ERR Client names cannot contain spaces, newlines or special characters.\r\n")
	js := doJSON(s, c, "CLIENT", "LIST")
	assert.Assert(gjson.Get(js, "list.0.name").String() == "alice")
	assert.Assert(gjson.Get(js, "list.0.addr").String() == "1.2.3.4:5")
}

func TestQuit(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	c := &Client{outputType: RESP}
	assert.Assert(do(s, c, "QUIT") == "+OK\r\n")
	assert.Assert(c.quit)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServeRedigo(t *testing.T) {
	port := freePort(t)
	s, err := New(Options{Port: port, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	signal := make(chan error, 1)
	go s.listenAndServe(signal)
	if err := <-signal; err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	conn, err := redis.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port),
		redis.DialConnectTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	pong, err := redis.String(conn.Do("PING"))
	assert.Assert(err == nil && pong == "PONG")
	for i := 0; i < 100; i++ {
		x, y := float64(i%10)/10, float64(i/10)/10
		replaced, err := redis.Int(conn.Do("SET", x, y, fmt.Sprint(i)))
		assert.Assert(err == nil && replaced == 0)
	}
	n, err := redis.Int(conn.Do("SIZE"))
	assert.Assert(err == nil && n == 100)

	v, err := redis.String(conn.Do("GET", 0.3, 0.4))
	assert.Assert(err == nil && v == "43")

	_, err = redis.String(conn.Do("GET", 5, 5))
	assert.Assert(err == redis.ErrNil)

	vals, err := redis.Values(conn.Do("NEAREST", 0.31, 0.4, 4))
	assert.Assert(err == nil && len(vals) == 4)
	first, err := redis.Strings(vals[0], nil)
	assert.Assert(err == nil && first[2] == "43")

	vals, err = redis.Values(conn.Do("RANGE", 0, 0, 0.15, 0.15))
	assert.Assert(err == nil && len(vals) == 4)

	_, err = conn.Do("SET", "abc", 1, "x")
	assert.Assert(err != nil && err.Error() == "ERR invalid argument 'abc'")

	stats, err := redis.StringMap(conn.Do("SERVER"))
	assert.Assert(err == nil)
	assert.Assert(stats["num_points"] == "100")
	assert.Assert(stats["connected_clients"] == "1")

	ok, err := redis.String(conn.Do("QUIT"))
	assert.Assert(err == nil && ok == "OK")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	err := os.WriteFile(path, []byte(`{"requirepass":"pw","keepalive":60,"index":"brute"}`), 0600)
	assert.Assert(err == nil)

	s, err := New(Options{Dir: dir})
	assert.Assert(err == nil)
	assert.Assert(s.config.requirePass() == "pw")
	assert.Assert(s.config.keepAlive() == 60)
	assert.Assert(s.kind == table.Brute)

	c := &Client{outputType: RESP, authd: true}
	out := do(s, c, "CONFIG", "GET", "*")
	assert.Assert(strings.Contains(out, "$5\r\nindex\r\n$5\r\nbrute\r\n"))
	out = do(s, c, "CONFIG", "GET", "keep*")
	assert.Assert(out == "*2\r\n$9\r\nkeepalive\r\n$2\r\n60\r\n")

	assert.Assert(do(s, c, "CONFIG", "SET", "keepalive", "30") == "+OK\r\n")
	assert.Assert(do(s, c, "CONFIG", "REWRITE") == "+OK\r\n")
	data, err := os.ReadFile(path)
	assert.Assert(err == nil)
	assert.Assert(gjson.GetBytes(data, "keepalive").Int() == 30)
	assert.Assert(gjson.GetBytes(data, "requirepass").String() == "pw")
	assert.Assert(gjson.GetBytes(data, "server_id").String() == s.config.serverID())

	assert.Assert(do(s, c, "CONFIG", "SET", "nope", "1") ==
		"-ERR Unsupported CONFIG parameter: nope\r\n")
}

func TestConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config"), []byte(`{"index":`), 0600)
	assert.Assert(err == nil)
	_, err = New(Options{Dir: dir})
	assert.Assert(err != nil)
}

func TestConfigLogJSON(t *testing.T) {
	dir := t.TempDir()
	logpath := filepath.Join(dir, "server.log")
	lcfg := `{"encoding":"json","outputPaths":[` + jsonString(logpath) + `],` +
		`"encoderConfig":{"messageKey":"msg","levelKey":"level","levelEncoder":"lowercase"}}`
	err := os.WriteFile(filepath.Join(dir, "config"), []byte(`{"logconfig":`+lcfg+`}`), 0600)
	assert.Assert(err == nil)
	defer func() { log.LogJSON = false }()

	_, err = New(Options{Dir: dir})
	assert.Assert(err == nil)
	assert.Assert(log.LogJSON)
	log.Infof("hello %d", 1)

	data, err := os.ReadFile(logpath)
	assert.Assert(err == nil)
	line := strings.TrimSpace(string(data))
	assert.Assert(gjson.Valid(line))
	assert.Assert(gjson.Get(line, "msg").String() == "hello 1")
	assert.Assert(gjson.Get(line, "level").String() == "info")
}

func TestMassInsert(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	c := &Client{outputType: RESP}
	assert.Assert(do(s, c, "MASSINSERT", "10") ==
		"-ERR command only available in dev mode\r\n")
	core.DevMode = true
	defer func() { core.DevMode = false }()
	assert.Assert(do(s, c, "MASSINSERT", "18446744073709551615") ==
		"-ERR invalid argument '18446744073709551615'\r\n")
	assert.Assert(do(s, c, "MASSINSERT", "2147483648") ==
		"-ERR invalid argument '2147483648'\r\n")
	assert.Assert(do(s, c, "SIZE") == ":0\r\n")
	assert.Assert(do(s, c, "MASSINSERT", "500", "10", "10", "20", "20") == ":500\r\n")
	assert.Assert(do(s, c, "SIZE") == ":500\r\n")
	assert.Assert(do(s, c, "RANGE", "0", "0", "9.9", "9.9") == "*0\r\n")
}

func TestTimeout(t *testing.T) {
	s := newTestServer(t, table.KDTree)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20000; i++ {
		s.tbl.Set(geom.P(rng.Float64()*200, rng.Float64()*200), "v")
	}
	c := &Client{outputType: RESP}
	assert.Assert(do(s, c, "TIMEOUT", "-1") == "-ERR invalid argument '-1'\r\n")
	assert.Assert(do(s, c, "TIMEOUT", "0.000000001") == "+OK\r\n")
	assert.Assert(do(s, c, "POINTS") == "-ERR timeout\r\n")
	assert.Assert(do(s, c, "RANGE", "0", "0", "200", "200") == "-ERR timeout\r\n")
	assert.Assert(do(s, c, "TIMEOUT", "0") == "+OK\r\n")
	assert.Assert(strings.HasPrefix(do(s, c, "POINTS", "LIMIT", "3"), "*3\r\n"))
	js := doJSON(s, c, "TIMEOUT")
	assert.Assert(gjson.Get(js, "seconds").Float() == 0)
}
