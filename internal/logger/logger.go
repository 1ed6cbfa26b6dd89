// Package logger provides the process-wide logger for docchat.
// Messages are written through phuslu/log in console or JSON format.
// Debug messages appear only in verbose mode (--verbose).
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/phuslu/log"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu        sync.RWMutex
	verbose   bool
	output    io.Writer = os.Stderr
	format              = FormatConsole
	baseLevel           = log.InfoLevel
	current   log.Logger
)

func init() {
	rebuild()
}

// syncWriter serialises writes from concurrent log calls.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// rebuild recreates the underlying logger (caller must hold lock).
func rebuild() {
	level := baseLevel
	if verbose {
		level = log.DebugLevel
	}

	w := &syncWriter{w: output}
	var writer log.Writer
	if format == FormatJSON {
		writer = &log.IOWriter{Writer: w}
	} else {
		writer = &log.ConsoleWriter{Writer: w, EndWithMessage: true}
	}

	current = log.Logger{
		Level:      level,
		TimeFormat: "15:04:05",
		Writer:     writer,
	}
	if format == FormatJSON {
		current.TimeFormat = ""
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetFormat selects console or JSON output. Unknown values select console.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	if f != FormatJSON {
		f = FormatConsole
	}
	format = f
	rebuild()
}

// SetLevel sets the minimum level logged outside verbose mode.
// Accepts "debug", "info", "warn" or "error".
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	baseLevel = log.ParseLevel(name)
	rebuild()
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	current.Debug().Msgf(format, args...)
}

// Section logs a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	current.Debug().Msgf("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	current.Info().Msgf(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	current.Warn().Msgf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	current.Error().Msgf(format, args...)
}

// Event logs msg at info level with structured key/value pairs.
func Event(msg string, keysAndValues ...any) {
	mu.RLock()
	defer mu.RUnlock()
	current.Info().KeysAndValues(keysAndValues...).Msg(msg)
}
