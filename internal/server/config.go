package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
	"github.com/tidwall/resp"
	"github.com/tidwall/sjson"
	"github.com/ygmpkk/pointst/internal/table"
)

const defaultKeepAlive = 300 // seconds

// Config keys
const (
	ServerID    = "server_id"
	RequirePass = "requirepass"
	KeepAlive   = "keepalive"
	LogConfig   = "logconfig"
	Index       = "index"
)

var validProperties = []string{RequirePass, KeepAlive, LogConfig, Index}

// Config is the server config, stored as JSON in the data directory
type Config struct {
	path string

	mu sync.RWMutex

	_serverID string

	_requirePassP string
	_requirePass  string
	_keepAliveP   string
	_keepAlive    int64
	_logConfigP   string
	_logConfig    string
	_indexP       string
	_index        table.Kind
}

func clientErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func randomKey(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func loadConfig(path string, index table.Kind) (*Config, error) {
	var json string
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		json = string(data)
	}
	if json != "" && !gjson.Valid(json) {
		return nil, fmt.Errorf("invalid config file: %s", path)
	}

	config := &Config{
		path:          path,
		_serverID:     gjson.Get(json, ServerID).String(),
		_requirePassP: gjson.Get(json, RequirePass).String(),
		_keepAliveP:   gjson.Get(json, KeepAlive).String(),
		_logConfigP:   gjson.Get(json, LogConfig).Raw,
		_indexP:       gjson.Get(json, Index).String(),
		_index:        index,
	}
	if config._serverID == "" {
		config._serverID = randomKey(16)
	}

	// load properties
	if err := config.setProperty(RequirePass, config._requirePassP, true); err != nil {
		return nil, err
	}
	if err := config.setProperty(KeepAlive, config._keepAliveP, true); err != nil {
		return nil, err
	}
	if err := config.setProperty(LogConfig, config._logConfigP, true); err != nil {
		return nil, err
	}
	if err := config.setProperty(Index, config._indexP, true); err != nil {
		return nil, err
	}
	if err := config.write(false); err != nil {
		return nil, err
	}
	return config, nil
}

// write saves the config file. With writeProperties the live property
// values replace the ones last loaded from disk.
func (config *Config) write(writeProperties bool) error {
	config.mu.Lock()
	defer config.mu.Unlock()

	if writeProperties {
		config._requirePassP = config._requirePass
		if config._keepAlive == defaultKeepAlive {
			config._keepAliveP = ""
		} else {
			config._keepAliveP = strconv.FormatInt(config._keepAlive, 10)
		}
		config._logConfigP = config._logConfig
		config._indexP = config._index.String()
	}

	json := `{}`
	json, _ = sjson.Set(json, ServerID, config._serverID)
	if config._requirePassP != "" {
		json, _ = sjson.Set(json, RequirePass, config._requirePassP)
	}
	if config._keepAliveP != "" {
		json, _ = sjson.Set(json, KeepAlive, config._keepAlive)
	}
	if config._logConfigP != "" && gjson.Valid(config._logConfigP) {
		json, _ = sjson.SetRaw(json, LogConfig, config._logConfigP)
	}
	if config._indexP != "" {
		json, _ = sjson.Set(json, Index, config._indexP)
	}
	data := pretty.PrettyOptions([]byte(json), &pretty.Options{
		Width: 80, Prefix: "", Indent: "\t", SortKeys: true,
	})
	return os.WriteFile(config.path, data, 0600)
}

func (config *Config) setProperty(name, value string, fromLoad bool) error {
	config.mu.Lock()
	defer config.mu.Unlock()
	var invalid bool
	switch name {
	default:
		return clientErrorf("Unsupported CONFIG parameter: %s", name)
	case RequirePass:
		config._requirePass = value
	case KeepAlive:
		if value == "" {
			config._keepAlive = defaultKeepAlive
		} else {
			keepalive, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				invalid = true
			} else {
				config._keepAlive = int64(keepalive)
			}
		}
	case LogConfig:
		if value != "" && !gjson.Valid(value) {
			invalid = true
		} else {
			config._logConfig = value
		}
	case Index:
		if value == "" {
			if !fromLoad {
				invalid = true
			}
		} else if kind, err := table.ParseKind(value); err != nil {
			invalid = true
		} else {
			config._index = kind
		}
	}
	if invalid {
		return clientErrorf("Invalid argument '%s' for CONFIG SET '%s'", value, name)
	}
	return nil
}

func (config *Config) getProperties(pattern string) map[string]interface{} {
	m := make(map[string]interface{})
	for _, name := range validProperties {
		if match.Match(name, pattern) {
			m[name] = config.getProperty(name)
		}
	}
	return m
}

func (config *Config) getProperty(name string) string {
	config.mu.RLock()
	defer config.mu.RUnlock()
	switch name {
	default:
		return ""
	case RequirePass:
		return config._requirePass
	case KeepAlive:
		return strconv.FormatInt(config._keepAlive, 10)
	case LogConfig:
		return config._logConfig
	case Index:
		return config._index.String()
	}
}

func (config *Config) serverID() string {
	config.mu.RLock()
	defer config.mu.RUnlock()
	return config._serverID
}

func (config *Config) requirePass() string {
	config.mu.RLock()
	defer config.mu.RUnlock()
	return config._requirePass
}

func (config *Config) keepAlive() int64 {
	config.mu.RLock()
	defer config.mu.RUnlock()
	return config._keepAlive
}

func (config *Config) logConfig() string {
	config.mu.RLock()
	defer config.mu.RUnlock()
	return config._logConfig
}

func (config *Config) index() table.Kind {
	config.mu.RLock()
	defer config.mu.RUnlock()
	return config._index
}

// CONFIG GET pattern | SET name [value] | REWRITE
func (s *Server) cmdConfig(msg *Message) (resp.Value, error) {
	if len(msg.Args) == 1 {
		return NOMessage, errInvalidNumberOfArguments
	}
	switch strings.ToLower(msg.Args[1]) {
	case "get":
		return s.cmdConfigGet(msg)
	case "set":
		return s.cmdConfigSet(msg)
	case "rewrite":
		return s.cmdConfigRewrite(msg)
	}
	return NOMessage, errInvalidArgument(msg.Args[1])
}

func (s *Server) cmdConfigGet(msg *Message) (res resp.Value, err error) {
	start := time.Now()
	vs := msg.Args[2:]
	var ok bool
	var name string
	if vs, name, ok = tokenval(vs); !ok {
		return NOMessage, errInvalidNumberOfArguments
	}
	if len(vs) != 0 {
		return NOMessage, errInvalidNumberOfArguments
	}
	m := s.config.getProperties(name)
	switch msg.OutputType {
	case JSON:
		js := `{"ok":true,"properties":{}}`
		for _, key := range sortedKeys(m) {
			js, _ = sjson.Set(js, "properties."+key, m[key])
		}
		res = jsonReply(js, start)
	case RESP:
		res = resp.ArrayValue(respValuesSimpleMap(m))
	}
	return res, nil
}

func (s *Server) cmdConfigSet(msg *Message) (res resp.Value, err error) {
	start := time.Now()
	vs := msg.Args[2:]
	var ok bool
	var name string
	if vs, name, ok = tokenval(vs); !ok {
		return NOMessage, errInvalidNumberOfArguments
	}
	var value string
	if vs, value, ok = tokenval(vs); !ok {
		if strings.ToLower(name) != RequirePass {
			return NOMessage, errInvalidNumberOfArguments
		}
	}
	if len(vs) != 0 {
		return NOMessage, errInvalidNumberOfArguments
	}
	if err := s.config.setProperty(strings.ToLower(name), value, false); err != nil {
		return NOMessage, err
	}
	return OKMessage(msg, start), nil
}

func (s *Server) cmdConfigRewrite(msg *Message) (res resp.Value, err error) {
	start := time.Now()
	if len(msg.Args) != 2 {
		return NOMessage, errInvalidNumberOfArguments
	}
	if err := s.config.write(true); err != nil {
		return NOMessage, err
	}
	return OKMessage(msg, start), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func respValuesSimpleMap(m map[string]interface{}) []resp.Value {
	var vals []resp.Value
	for _, key := range sortedKeys(m) {
		vals = append(vals, resp.StringValue(key))
		vals = append(vals, resp.StringValue(fmt.Sprintf("%v", m[key])))
	}
	return vals
}
