package app

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
)

var levelNames = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LookupLogLevel parses a level name case-insensitively.
func LookupLogLevel(s string) (LogLevel, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// ParseLogLevel parses a level name, falling back to info.
func ParseLogLevel(s string) LogLevel {
	if l, ok := LookupLogLevel(s); ok {
		return l
	}
	return LogLevelInfo
}

// DefaultRepeatWindow is how long an identical message is suppressed
// after it was written. Draw failures repeat every frame; one line per
// window is enough to diagnose them.
const DefaultRepeatWindow = 5 * time.Second

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to all log messages.
	Prefix string
	// RepeatWindow suppresses identical lines written within the window.
	// Zero disables suppression.
	RepeatWindow time.Duration
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:        LogLevelInfo,
		Output:       os.Stderr,
		Prefix:       "gridstorm",
		RepeatWindow: DefaultRepeatWindow,
	}
}

// sink is the state shared by a logger and every logger derived from it,
// so SetLevel on the root reaches the grid and provider loggers too.
type sink struct {
	mu       sync.Mutex
	level    LogLevel
	output   io.Writer
	prefix   string
	disabled bool
	window   time.Duration
	now      func() time.Time
	recent   map[string]*repeat
}

type repeat struct {
	last       time.Time
	suppressed int
}

type field struct {
	key   string
	value any
}

// Logger writes leveled, timestamped lines with optional fields.
// Messages are printf-style.
type Logger struct {
	sink   *sink
	fields []field
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{sink: &sink{
		level:  cfg.Level,
		output: cfg.Output,
		prefix: cfg.Prefix,
		window: cfg.RepeatWindow,
		now:    time.Now,
		recent: make(map[string]*repeat),
	}}
}

// WithField returns a logger that appends key=value to every line.
// The derived logger shares level, output and enablement with l.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a logger with all of fields added. Fields print in key
// order; a key already present is replaced.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	out := slices.Clone(l.fields)
	for k, v := range fields {
		i := slices.IndexFunc(out, func(f field) bool { return f.key == k })
		if i >= 0 {
			out[i].value = v
			continue
		}
		out = append(out, field{key: k, value: v})
	}
	slices.SortFunc(out, func(a, b field) int { return strings.Compare(a.key, b.key) })
	return &Logger{sink: l.sink, fields: out}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum log level for l and every logger derived from it.
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current minimum level.
func (l *Logger) Level() LogLevel {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Disable disables all logging.
func (l *Logger) Disable() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.disabled = true
}

// Enable enables logging.
func (l *Logger) Enable() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.disabled = false
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LogLevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LogLevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LogLevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LogLevelError, msg, args...)
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled || level < s.level || s.output == nil {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	if s.prefix != "" {
		b.WriteString(s.prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	if len(l.fields) > 0 {
		b.WriteString(" {")
		for i, f := range l.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", f.key, f.value)
		}
		b.WriteString("}")
	}
	body := b.String()

	now := s.now()
	if s.window > 0 {
		// Keyed on the first line only so stack traces don't defeat it.
		key, _, _ := strings.Cut(body, "\n")
		if r, ok := s.recent[key]; ok && now.Sub(r.last) < s.window {
			r.suppressed++
			return
		} else if ok && r.suppressed > 0 {
			body += fmt.Sprintf(" (repeated %d times)", r.suppressed)
		}
		s.recent[key] = &repeat{last: now}
		if len(s.recent) > 1024 {
			s.pruneLocked(now)
		}
	}

	line := now.Format("2006-01-02T15:04:05.000") + " " + body + "\n"
	_, _ = io.WriteString(s.output, line)
}

// pruneLocked drops suppression entries whose window has passed.
func (s *sink) pruneLocked(now time.Time) {
	for k, r := range s.recent {
		if now.Sub(r.last) >= s.window {
			delete(s.recent, k)
		}
	}
}

// NullLogger is a logger that discards all output.
var NullLogger = &Logger{sink: &sink{disabled: true, now: time.Now}}

var (
	appLogger     *Logger
	appLoggerOnce sync.Once
	appLoggerMu   sync.Mutex
)

// GetLogger returns the process-wide logger, creating a default one on
// first use.
func GetLogger() *Logger {
	appLoggerOnce.Do(func() {
		appLoggerMu.Lock()
		defer appLoggerMu.Unlock()
		if appLogger == nil {
			appLogger = NewLogger(DefaultLoggerConfig())
		}
	})
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	return appLogger
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *Logger) {
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	appLogger = l
}

// OpenLogger creates a logger from the logging section of the config.
// An empty file logs to stderr. The returned close function releases the
// log file and is never nil.
func OpenLogger(level, file string) (*Logger, func() error, error) {
	cfg := DefaultLoggerConfig()
	cfg.Level = ParseLogLevel(level)
	if file == "" {
		return NewLogger(cfg), func() error { return nil }, nil
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	cfg.Output = f
	return NewLogger(cfg), f.Close, nil
}

// Logger returns the application's logger instance.
func (app *Application) Logger() *Logger {
	if app.logger == nil {
		return GetLogger()
	}
	return app.logger
}
