package utils

import (
	"fmt"
	"log"
	"os"
)

// LogLevel controls the verbosity of a Logger.
type LogLevel uint8

const (
	LogLevelNothing LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// Logger is held by value by every component that logs, mirroring the
// teacher's instance-based logger rather than a package-global one: a
// connection embeds its own Logger so that multiple connections in the same
// process can run at different verbosities.
type Logger interface {
	Debug() bool
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type defaultLogger struct {
	level LogLevel
}

// DefaultLogger logs to the standard library's log package, gated by
// QUIC_SENTPACKET_LOG_LEVEL (1 = error, 2 = debug; unset or any other value
// disables logging). No constructor in this module takes or stores a
// Logger.
var DefaultLogger Logger = newDefaultLogger()

func newDefaultLogger() *defaultLogger {
	l := &defaultLogger{}
	switch os.Getenv("QUIC_SENTPACKET_LOG_LEVEL") {
	case "1":
		l.level = LogLevelError
	case "2":
		l.level = LogLevelDebug
	}
	return l
}

func (l *defaultLogger) Debug() bool { return l.level >= LogLevelDebug }

func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}
