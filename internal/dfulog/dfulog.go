// Package dfulog provides the session-scoped leveled logging sink used by
// the DFU engine. Unlike the original C implementation's process-wide
// error_level global, a Logger is constructed once per update() call and
// threaded through explicitly, so concurrent sessions never race on a
// shared level.
package dfulog

import (
	"encoding/hex"
	"io"

	"github.com/sirupsen/logrus"
)

// Level mirrors the four verbosity levels of the original tool. The CLI's
// -l flag is 1-indexed (1=Silent..4=Debug); Level itself is 0-indexed so it
// lines up with logrus's own level ordering. The shift between the two is
// applied only at the CLI flag boundary, in cmd/nrf-update.
type Level int

const (
	Silent Level = iota
	Error
	Info
	Debug
)

// Logger is the sink the DFU engine writes to; build one with New or
// Discard. Its methods are safe on a nil *Logger, which logs nothing.
type Logger struct {
	level Level
	log   *logrus.Logger
}

// New builds a Logger at the given level, writing to w.
func New(level Level, w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case level <= Silent:
		l.SetLevel(logrus.PanicLevel + 1) // effectively silences the logger
	case level == Error:
		l.SetLevel(logrus.ErrorLevel)
	case level == Info:
		l.SetLevel(logrus.InfoLevel)
	default:
		l.SetLevel(logrus.DebugLevel)
	}
	return &Logger{level: level, log: l}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{level: Silent, log: l}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.log.Errorf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.log.Infof(format, args...)
}

// Frame logs a hex dump of a transmitted or received SLIP frame at Debug
// level, matching the original's per-byte DEBUG trace.
func (l *Logger) Frame(direction string, data []byte) {
	if l == nil || l.level < Debug {
		return
	}
	l.log.Debugf("%s %s", direction, hex.EncodeToString(data))
}

// Level reports the level this Logger was constructed with.
func (l *Logger) Level() Level {
	if l == nil {
		return Silent
	}
	return l.level
}
