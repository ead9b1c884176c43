package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

var mu sync.Mutex
var wr io.Writer
var tty bool
var logger *zap.SugaredLogger

// LogJSON routes every message through the zap logger instead of the plain
// text writer.
var LogJSON = false

// Level is the log level
// 0: silent  - do not log
// 1: normal  - info, errors and fatal
// 2: verbose - adds warnings and command traces
// 3: very verbose - adds debug
var Level = 1

type tag struct {
	name  string
	color string
	level int
}

var (
	tagInfo  = tag{"INFO", "\x1b[36m", 1}
	tagError = tag{"ERRO", "\x1b[1m\x1b[31m", 1}
	tagFatal = tag{"FATA", "\x1b[31m", 1}
	tagWarn  = tag{"WARN", "\x1b[33m", 2}
	tagCmd   = tag{"CMND", "\x1b[1m\x1b[30m", 2}
	tagDebug = tag{"DEBU", "\x1b[35m", 3}
)

// SetOutput sets the output of the logger
func SetOutput(w io.Writer) {
	f, ok := w.(*os.File)
	tty = ok && term.IsTerminal(int(f.Fd()))
	wr = w
}

// Output returns the output writer
func Output() io.Writer {
	return wr
}

// Build a zap logger from the default production config, or from a JSON
// encoded zap.Config when c is not empty.
func Build(c string) error {
	var zcfg zap.Config
	if c == "" {
		zcfg = zap.NewProductionConfig()
	} else if err := json.Unmarshal([]byte(c), &zcfg); err != nil {
		return err
	}
	// filtering happens on Level, so let zap see everything
	zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	// the caller would always be this file
	zcfg.DisableCaller = true
	core, err := zcfg.Build()
	if err != nil {
		return err
	}
	defer core.Sync()
	logger = core.Sugar()
	return nil
}

// Set a zap logger
func Set(sl *zap.SugaredLogger) {
	logger = sl
}

// Get a zap logger
func Get() *zap.SugaredLogger {
	return logger
}

func init() {
	SetOutput(os.Stderr)
}

func write(t tag, formatted bool, format string, args ...interface{}) {
	if Level < t.level {
		return
	}
	var msg string
	if formatted {
		msg = fmt.Sprintf(format, args...)
	} else {
		msg = fmt.Sprint(args...)
	}
	if LogJSON && logger != nil {
		switch t {
		case tagError:
			logger.Error(msg)
		case tagFatal:
			logger.Fatal(msg)
		case tagWarn:
			logger.Warn(msg)
		case tagDebug:
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
		return
	}
	s := []byte(time.Now().Format("2006/01/02 15:04:05"))
	s = append(s, ' ')
	if tty {
		s = append(s, t.color...)
	}
	s = append(s, '[')
	s = append(s, t.name...)
	s = append(s, ']')
	if tty {
		s = append(s, "\x1b[0m"...)
	}
	s = append(s, ' ')
	s = append(s, msg...)
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s = append(s, '\n')
	}
	mu.Lock()
	wr.Write(s)
	mu.Unlock()
}

var emptyFormat string

// Infof ...
func Infof(format string, args ...interface{}) {
	write(tagInfo, true, format, args...)
}

// Info ...
func Info(args ...interface{}) {
	write(tagInfo, false, emptyFormat, args...)
}

// Cmdf traces a client command. Shown at verbose level.
func Cmdf(format string, args ...interface{}) {
	write(tagCmd, true, format, args...)
}

// Errorf ...
func Errorf(format string, args ...interface{}) {
	write(tagError, true, format, args...)
}

// Error ...
func Error(args ...interface{}) {
	write(tagError, false, emptyFormat, args...)
}

// Warnf ...
func Warnf(format string, args ...interface{}) {
	write(tagWarn, true, format, args...)
}

// Warn ...
func Warn(args ...interface{}) {
	write(tagWarn, false, emptyFormat, args...)
}

// Debugf ...
func Debugf(format string, args ...interface{}) {
	write(tagDebug, true, format, args...)
}

// Debug ...
func Debug(args ...interface{}) {
	write(tagDebug, false, emptyFormat, args...)
}

// Printf ...
func Printf(format string, args ...interface{}) {
	Infof(format, args...)
}

// Print ...
func Print(args ...interface{}) {
	Info(args...)
}

// Fatalf ...
func Fatalf(format string, args ...interface{}) {
	write(tagFatal, true, format, args...)
	os.Exit(1)
}

// Fatal ...
func Fatal(args ...interface{}) {
	write(tagFatal, false, emptyFormat, args...)
	os.Exit(1)
}
