package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "CRITICAL"}

func (l LogLevel) String() string {
	if l < TRACE || l > CRITICAL {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a CLI level name to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch s {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "critical":
		return CRITICAL
	default:
		return INFO
	}
}

// Logger is a minimal leveled logger writing timestamped lines to a
// sink, optionally mirrored to stdout. Safe for concurrent use.
type Logger struct {
	mu         sync.Mutex
	minLevel   LogLevel
	sink       io.Writer
	closer     io.Closer
	alsoStdout bool
}

// NewFileLogger appends to the given file and optionally mirrors every
// line to stdout.
func NewFileLogger(path string, minLevel LogLevel, alsoStdout bool) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Logger{minLevel: minLevel, sink: f, closer: f, alsoStdout: alsoStdout}, nil
}

// NewWriterLogger logs to an arbitrary writer (tests, stderr).
func NewWriterLogger(w io.Writer, minLevel LogLevel) *Logger {
	return &Logger{minLevel: minLevel, sink: w}
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) SetMinLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.minLevel {
		return
	}

	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format(time.RFC3339Nano), level, fmt.Sprintf(msg, args...))

	if l.sink != nil {
		_, _ = io.WriteString(l.sink, line)
	}
	if l.alsoStdout {
		_, _ = os.Stdout.WriteString(line)
	}
}

func (l *Logger) Trace(msg string, args ...any)    { l.log(TRACE, msg, args...) }
func (l *Logger) Debug(msg string, args ...any)    { l.log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...any)     { l.log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)     { l.log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...any)    { l.log(ERROR, msg, args...) }
func (l *Logger) Critical(msg string, args ...any) { l.log(CRITICAL, msg, args...) }
