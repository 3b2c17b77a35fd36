// Package logging provides the leveled, structured logger used across
// inquest.
//
// Get a named logger and log with printf-style formatting:
//
//	logger := logging.GetLogger("analysis")
//	logger.Info("engine ready")
//	logger.Debug("selected %d strategies", n)
//
// Structured fields are available where output should stay searchable:
//
//	logger.InfoWithFields("analysis completed",
//	    logging.F("analysisId", id),
//	    logging.F("durationMs", ms),
//	)
//
// WithField and WithFields return child loggers carrying persistent fields.
// Logger values are immutable and safe for concurrent use.
//
// Levels are DEBUG, INFO, WARN, ERROR and FATAL. The default level and
// per-package overrides are configured once at startup:
//
//	logging.Initialize("info", map[string]string{"analysis.*": "debug"})
//
// Package patterns support a trailing ".*" wildcard; the most specific
// matching pattern wins. DEBUG, INFO and WARN messages go to stdout, ERROR
// and FATAL to stderr. Fatal terminates the process with exit code 1.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Field is a single structured logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger writes leveled log lines under a component name. Child loggers
// created with WithField/WithFields share the name and accumulate fields.
type Logger struct {
	name   string
	fields []Field
}

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	// exitFunc is called by Fatal. Overridable for tests.
	exitFunc = os.Exit
)

// Initialize sets the default level and optional per-package overrides.
// It may be called again to reconfigure (tests do this). An invalid level
// string is an error; package overrides validate each value.
func Initialize(level string, packageLevels ...map[string]string) error {
	parsed, err := ParseLevel(level)
	if err != nil {
		return err
	}
	setDefaultLevel(parsed)
	if len(packageLevels) > 0 && packageLevels[0] != nil {
		return SetPackageLevels(packageLevels[0])
	}
	return nil
}

// GetLogger returns a logger for the given component name. Levels are
// resolved at log time, so loggers obtained before Initialize pick up the
// configured levels automatically.
func GetLogger(name string) *Logger {
	return &Logger{name: name}
}

// SetOutput redirects both output streams. Intended for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	errOut = w
}

// WithField returns a child logger with one additional persistent field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(F(key, value))
}

// WithFields returns a child logger with additional persistent fields.
func (l *Logger) WithFields(fields ...Field) *Logger {
	child := &Logger{name: l.name}
	child.fields = append(child.fields, l.fields...)
	child.fields = append(child.fields, fields...)
	return child
}

// Debug logs a formatted message at DEBUG level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(DEBUG, format, args...)
}

// Info logs a formatted message at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(INFO, format, args...)
}

// Warn logs a formatted message at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(WARN, format, args...)
}

// Error logs a formatted message at ERROR level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(ERROR, format, args...)
}

// Fatal logs a formatted message at FATAL level and exits with code 1.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.logf(FATAL, format, args...)
	exitFunc(1)
}

// DebugWithFields logs a message with structured fields at DEBUG level.
func (l *Logger) DebugWithFields(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields)
}

// InfoWithFields logs a message with structured fields at INFO level.
func (l *Logger) InfoWithFields(msg string, fields ...Field) {
	l.log(INFO, msg, fields)
}

// WarnWithFields logs a message with structured fields at WARN level.
func (l *Logger) WarnWithFields(msg string, fields ...Field) {
	l.log(WARN, msg, fields)
}

// ErrorWithFields logs a message with structured fields at ERROR level.
func (l *Logger) ErrorWithFields(msg string, fields ...Field) {
	l.log(ERROR, msg, fields)
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	l.write(level, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) log(level Level, msg string, fields []Field) {
	if !l.enabled(level) {
		return
	}
	l.write(level, msg, fields)
}

func (l *Logger) enabled(level Level) bool {
	return level >= effectiveLevel(l.name)
}

// write renders one log line: [timestamp] [LEVEL] name: msg | k=v k=v.
// Persistent fields print before call-site fields, in the order added.
func (l *Logger) write(level Level, msg string, fields []Field) {
	line := fmt.Sprintf("[%s] [%s] %s: %s", timestamp(), level, l.name, msg)
	if len(l.fields) > 0 || len(fields) > 0 {
		line += " |"
		for _, f := range l.fields {
			line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
		}
		for _, f := range fields {
			line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
		}
	}

	mu.RLock()
	w := out
	if level >= ERROR {
		w = errOut
	}
	mu.RUnlock()
	fmt.Fprintln(w, line)
}

// timestamp returns the RFC3339 log timestamp. The LOG_TIMESTAMP
// environment variable overrides it for deterministic test output.
func timestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
