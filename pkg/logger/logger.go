// Package logger is the component-scoped logger used across dokbot.
//
// Every call names the component that emits it ("media", "extractor", ...)
// and may carry a map of structured fields:
//
//	logger.InfoCF("media", "Strategy succeeded", map[string]any{"strategy": "url"})
package logger

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps a case-insensitive level name to a LogLevel.
func ParseLevel(s string) (LogLevel, bool) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, true
		}
	}
	if strings.EqualFold(s, "warning") {
		return WARN, true
	}
	return INFO, false
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	mu       sync.RWMutex
	level    = new(slog.LevelVar)
	current  = INFO
	out      io.Writer = os.Stderr
	useJSON  bool
	instance = newSlog()
)

func newSlog() *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if useJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// SetLevel changes the minimum level that is written.
func SetLevel(l LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	current = l
	level.Set(l.slogLevel())
}

// GetLevel returns the current minimum level.
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	instance = newSlog()
}

// SetFormat switches between "text" (default) and "json" output.
func SetFormat(format string) {
	mu.Lock()
	defer mu.Unlock()
	useJSON = format == "json"
	instance = newSlog()
}

func logMessage(l LogLevel, component, message string, fields map[string]any) {
	mu.RLock()
	lg := instance
	mu.RUnlock()

	sl := l.slogLevel()
	if !lg.Enabled(context.Background(), sl) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+1)
	if component != "" {
		attrs = append(attrs, slog.String("component", component))
	}
	// sorted so lines are stable between runs
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	lg.LogAttrs(context.Background(), sl, message, attrs...)
}

func Debug(message string) { logMessage(DEBUG, "", message, nil) }
func Info(message string)  { logMessage(INFO, "", message, nil) }
func Warn(message string)  { logMessage(WARN, "", message, nil) }
func Error(message string) { logMessage(ERROR, "", message, nil) }

func DebugC(component, message string) { logMessage(DEBUG, component, message, nil) }
func InfoC(component, message string)  { logMessage(INFO, component, message, nil) }
func WarnC(component, message string)  { logMessage(WARN, component, message, nil) }
func ErrorC(component, message string) { logMessage(ERROR, component, message, nil) }

func DebugCF(component, message string, fields map[string]any) {
	logMessage(DEBUG, component, message, fields)
}

func InfoCF(component, message string, fields map[string]any) {
	logMessage(INFO, component, message, fields)
}

func WarnCF(component, message string, fields map[string]any) {
	logMessage(WARN, component, message, fields)
}

func ErrorCF(component, message string, fields map[string]any) {
	logMessage(ERROR, component, message, fields)
}
