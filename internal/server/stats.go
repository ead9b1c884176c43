package server

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/tidwall/resp"
	"github.com/tidwall/sjson"
	"github.com/ygmpkk/pointst/core"
)

var memStats runtime.MemStats
var memStatsMu sync.Mutex
var memStatsBG bool

// readMemStats returns the latest memstats. It provides an instant response.
func readMemStats() runtime.MemStats {
	memStatsMu.Lock()
	if !memStatsBG {
		runtime.ReadMemStats(&memStats)
		go func() {
			var ms runtime.MemStats
			for {
				runtime.ReadMemStats(&ms)
				memStatsMu.Lock()
				memStats = ms
				memStatsMu.Unlock()
				time.Sleep(time.Second / 5)
			}
		}()
		memStatsBG = true
	}
	ms := memStats
	memStatsMu.Unlock()
	return ms
}

type heighter interface {
	Height() int
}

// tableStats populates m with statistics about the point table.
func (s *Server) tableStats(m map[string]interface{}) {
	m["index"] = s.kind.String()
	m["num_points"] = s.tbl.Len()
	if h, ok := s.tbl.(heighter); ok {
		m["height"] = h.Height()
	}
	m["rebuilds"] = s.statsRebuilds.Load()
}

// basicStats populates m with system, go, and server statistics.
func (s *Server) basicStats(m map[string]interface{}) {
	m["id"] = s.config.serverID()
	m["pid"] = os.Getpid()
	m["version"] = core.Version
	m["uptime"] = int64(time.Since(s.started) / time.Second)
	m["num_points"] = s.tbl.Len()
	m["index"] = s.kind.String()
	mem := readMemStats()
	avgsz := 0
	if n := s.tbl.Len(); n != 0 {
		avgsz = int(mem.HeapAlloc) / n
	}
	m["mem_alloc"] = mem.Alloc
	m["heap_size"] = mem.HeapAlloc
	m["heap_released"] = mem.HeapReleased
	m["avg_item_size"] = avgsz
	m["pointer_size"] = (32 << uintptr(uint64(^uintptr(0))>>63)) / 8
	m["cpus"] = runtime.NumCPU()
	m["connected_clients"] = s.connectedClients()
	m["total_connections_received"] = s.statsTotalConns.Load()
	m["total_commands_processed"] = s.statsTotalCommands.Load()
}

// STATS
func (s *Server) cmdStats(msg *Message) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) != 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	m := make(map[string]interface{})
	s.tableStats(m)
	return mapReply(msg, "stats", m, start), nil
}

// SERVER
func (s *Server) cmdServer(msg *Message) (resp.Value, error) {
	start := time.Now()
	if len(msg.Args) != 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	m := make(map[string]interface{})
	s.basicStats(m)
	return mapReply(msg, "stats", m, start), nil
}

func mapReply(msg *Message, field string, m map[string]interface{}, start time.Time) resp.Value {
	if msg.OutputType == JSON {
		js := `{"ok":true,"` + field + `":{}}`
		for _, key := range sortedKeys(m) {
			js, _ = sjson.Set(js, field+"."+key, m[key])
		}
		return jsonReply(js, start)
	}
	return resp.ArrayValue(respValuesSimpleMap(m))
}
