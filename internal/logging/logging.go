// Package logging provides structured JSON logging for the GroupMapper
// service. Every entry is a single JSON object per line, suitable for log
// aggregation. Store failures are logged with operation context (entity and
// id); validation failures are caller errors and are not logged here.
package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

// Log severity levels.
const (
	LogLevelDebug    LogLevel = "DEBUG"
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
)

// LogEntry is the JSON structure written for every log line.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Entity    string         `json:"entity,omitempty"`    // "group" or "mapping" when the entry concerns one
	EntityID  int            `json:"entity_id,omitempty"` // id of that entity, when known
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes structured JSON log entries.
type Logger struct {
	output *log.Logger
}

// NewLogger creates a logger writing to stdout.
func NewLogger() *Logger {
	return &Logger{
		output: log.New(os.Stdout, "", 0),
	}
}

// SetOutput redirects the logger, primarily for tests capturing output.
func (l *Logger) SetOutput(out *log.Logger) {
	l.output = out
}

func (l *Logger) write(entry LogEntry) {
	entry.Timestamp = time.Now().UTC()

	data, err := json.Marshal(entry)
	if err != nil {
		// Fall back to plain text rather than dropping the entry.
		l.output.Printf(`{"level":"ERROR","message":"failed to marshal log entry: %v"}`, err)
		return
	}
	l.output.Println(string(data))
}

// Debug logs a debug-level message.
func (l *Logger) Debug(message string) {
	l.write(LogEntry{Level: LogLevelDebug, Message: message})
}

// Info logs an informational message.
func (l *Logger) Info(message string) {
	l.write(LogEntry{Level: LogLevelInfo, Message: message})
}

// Warn logs a warning message.
func (l *Logger) Warn(message string) {
	l.write(LogEntry{Level: LogLevelWarning, Message: message})
}

// Error logs an error-level message. err may be nil.
func (l *Logger) Error(message string, err error) {
	entry := LogEntry{Level: LogLevelError, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// Critical logs a critical failure. err may be nil.
func (l *Logger) Critical(message string, err error) {
	entry := LogEntry{Level: LogLevelCritical, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// Operation logs a successful engine operation against a specific entity.
func (l *Logger) Operation(message, entity string, entityID int) {
	l.write(LogEntry{
		Level:    LogLevelInfo,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	})
}

// StoreFailure logs a persistence failure with the entity context callers
// need for diagnosis. Used for store errors only, not validation failures.
func (l *Logger) StoreFailure(message, entity string, entityID int, err error) {
	entry := LogEntry{
		Level:    LogLevelError,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// Request logs one HTTP request with its outcome.
func (l *Logger) Request(requestID, method, path string, status int, latencyMS int64, ip string) {
	l.write(LogEntry{
		Level:   LogLevelInfo,
		Message: "http request",
		Fields: map[string]any{
			"request_id": requestID,
			"method":     method,
			"path":       path,
			"status":     status,
			"latency_ms": latencyMS,
			"ip":         ip,
		},
	})
}
