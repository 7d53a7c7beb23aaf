package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// MarshalJSON writes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Component names one subsystem of the decipher engine.
type Component string

const (
	ComponentApp         Component = "app"
	ComponentEngine      Component = "engine"
	ComponentLocator     Component = "locator"
	ComponentExtractor   Component = "extractor"
	ComponentInterpreter Component = "interpreter"
	ComponentCache       Component = "cache"
	ComponentAuxMap      Component = "auxmap"
	ComponentOracle      Component = "oracle"
	ComponentSource      Component = "source"
)

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Fields carries structured key/value data for an entry.
type Fields map[string]interface{}

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration. Only the app component
// is enabled; engine internals are opt-in.
func DefaultConfig() *Config {
	return &Config{
		Level:  INFO,
		Format: FormatText,
		Output: os.Stderr,
		Components: map[Component]bool{
			ComponentApp:         true,
			ComponentEngine:      false,
			ComponentLocator:     false,
			ComponentExtractor:   false,
			ComponentInterpreter: false,
			ComponentCache:       false,
			ComponentAuxMap:      false,
			ComponentOracle:      false,
			ComponentSource:      false,
		},
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Component Component `json:"component"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Caller    string    `json:"caller,omitempty"`
}

// Logger provides structured logging functionality
type Logger struct {
	config *Config
	mu     sync.RWMutex
	out    sync.Mutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	return &Logger{config: config}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Format = format
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
}

func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

func (l *Logger) DisableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = false
}

// Enabled reports whether an entry at level for component would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.config.Level && l.config.Components[component]
}

// callerSkip is the number of frames between runtime.Caller and the
// ComponentLogger method invoked by user code.
const callerSkip = 3

func (l *Logger) log(level Level, component Component, message string, fields Fields) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level < l.config.Level || !l.config.Components[component] {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}
	if l.config.ShowCaller {
		if _, file, line, ok := runtime.Caller(callerSkip); ok {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	var output string
	switch l.config.Format {
	case FormatJSON:
		output = formatJSON(entry)
	case FormatColor:
		output = l.formatColor(entry)
	default:
		output = l.formatText(entry)
	}

	l.out.Lock()
	fmt.Fprintln(l.config.Output, output)
	l.out.Unlock()
}

func (l *Logger) formatText(entry Entry) string {
	var parts []string
	if l.config.Timestamp {
		parts = append(parts, entry.Timestamp.Format("2006-01-02 15:04:05"))
	}
	parts = append(parts, "["+entry.Level.String()+"]", "["+string(entry.Component)+"]", entry.Message)
	if entry.Caller != "" {
		parts = append(parts, "("+entry.Caller+")")
	}
	for _, k := range sortedKeys(entry.Fields) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
	}
	return strings.Join(parts, " ")
}

func formatJSON(entry Entry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"message":%q,"error":%q}`, entry.Level, entry.Message, err.Error())
	}
	return string(data)
}

func (l *Logger) formatColor(entry Entry) string {
	var parts []string
	if l.config.Timestamp {
		parts = append(parts, "\033[90m"+entry.Timestamp.Format("2006-01-02 15:04:05")+"\033[0m")
	}
	parts = append(parts, levelColor(entry.Level)+"["+entry.Level.String()+"]\033[0m")
	parts = append(parts, "\033[36m["+string(entry.Component)+"]\033[0m", entry.Message)
	if entry.Caller != "" {
		parts = append(parts, "\033[90m("+entry.Caller+")\033[0m")
	}
	for _, k := range sortedKeys(entry.Fields) {
		parts = append(parts, fmt.Sprintf("\033[33m%s\033[0m=\033[32m%v\033[0m", k, entry.Fields[k]))
	}
	return strings.Join(parts, " ")
}

func levelColor(level Level) string {
	switch level {
	case TRACE:
		return "\033[37m"
	case DEBUG:
		return "\033[94m"
	case INFO:
		return "\033[92m"
	case WARN:
		return "\033[93m"
	case ERROR:
		return "\033[91m"
	default:
		return "\033[0m"
	}
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
}

func (cl *ComponentLogger) Trace(message string, fields ...Fields) { cl.log(TRACE, message, fields...) }
func (cl *ComponentLogger) Debug(message string, fields ...Fields) { cl.log(DEBUG, message, fields...) }
func (cl *ComponentLogger) Info(message string, fields ...Fields)  { cl.log(INFO, message, fields...) }
func (cl *ComponentLogger) Warn(message string, fields ...Fields)  { cl.log(WARN, message, fields...) }
func (cl *ComponentLogger) Error(message string, fields ...Fields) { cl.log(ERROR, message, fields...) }

// Enabled reports whether level is written for this component. Callers use it
// to skip building expensive fields.
func (cl *ComponentLogger) Enabled(level Level) bool {
	return cl.logger.Enabled(level, cl.component)
}

func (cl *ComponentLogger) log(level Level, message string, fields ...Fields) {
	var merged Fields
	switch len(fields) {
	case 0:
	case 1:
		merged = fields[0]
	default:
		merged = make(Fields)
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.logger.log(level, cl.component, message, merged)
}

var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger bound to the current global logger.
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
