package main

import (
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/tidwall/assert"
)

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`SET 0.5 0.25 "hello world"`)
	assert.Assert(err == nil)
	assert.Assert(len(args) == 4 && args[3] == "hello world")

	args, err = splitArgs(`  SET  1   2 "a \"b\""  `)
	assert.Assert(err == nil)
	assert.Assert(len(args) == 4 && args[3] == `a "b"`)

	_, err = splitArgs(`SET 1 2 "open`)
	assert.Assert(err != nil)
}

func TestRenderRESP(t *testing.T) {
	assert.Assert(renderRESP(nil, 0) == "(nil)")
	assert.Assert(renderRESP(int64(3), 0) == "(integer) 3")
	assert.Assert(renderRESP([]byte("v"), 0) == `"v"`)
	assert.Assert(renderRESP(redis.Error("ERR nope"), 0) == "(error) ERR nope")
	assert.Assert(renderRESP([]interface{}{}, 0) == "(empty list or set)")
	out := renderRESP([]interface{}{
		[]interface{}{[]byte("0.5"), []byte("0.25"), []byte("a")},
		[]byte("b"),
	}, 0)
	assert.Assert(out == "1) 1) \"0.5\"\n   2) \"0.25\"\n   3) \"a\"\n2) \"b\"")
}

func TestRenderRaw(t *testing.T) {
	assert.Assert(renderRaw([]interface{}{[]byte("a"), int64(2)}) == "a\n2")
	assert.Assert(renderJSON([]byte(`{"ok":true}`), true) == `{"ok":true}`)
}

func TestComplete(t *testing.T) {
	c := complete("ne")
	assert.Assert(len(c) == 1 && c[0] == "NEAREST")
	c = complete("help @se")
	assert.Assert(len(c) == 2)
	c = complete("help ran")
	assert.Assert(len(c) == 1 && c[0] == "help RANGE")
	assert.Assert(helpText("range") != "")
	assert.Assert(helpText("@nope") != "")
}
