// Package logging provides tests for the structured JSON logger.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"
)

// TestLogger_JSONFormat tests that logs are output in valid JSON format.
func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetOutput(log.New(&buf, "", 0))

	logger.Info("Test message")

	// Should be valid JSON
	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Errorf("Log output is not valid JSON: %v", err)
	}

	if entry.Message != "Test message" {
		t.Errorf("Expected message 'Test message', got %q", entry.Message)
	}

	if entry.Level != LogLevelInfo {
		t.Errorf("Expected level INFO, got %q", entry.Level)
	}

	if entry.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

// TestLogger_Levels tests different log levels.
func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func(*Logger, string)
		expected LogLevel
	}{
		{"Debug", func(l *Logger, m string) { l.Debug(m) }, LogLevelDebug},
		{"Info", func(l *Logger, m string) { l.Info(m) }, LogLevelInfo},
		{"Warn", func(l *Logger, m string) { l.Warn(m) }, LogLevelWarning},
		{"Error", func(l *Logger, m string) { l.Error(m, nil) }, LogLevelError},
		{"Critical", func(l *Logger, m string) { l.Critical(m, nil) }, LogLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger()
			logger.SetOutput(log.New(&buf, "", 0))

			tt.logFunc(logger, "test message")

			var entry LogEntry
			json.Unmarshal(buf.Bytes(), &entry)

			if entry.Level != tt.expected {
				t.Errorf("Expected level %q, got %q", tt.expected, entry.Level)
			}
		})
	}
}

// TestLogger_Operation tests entity-scoped operation logging.
func TestLogger_Operation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetOutput(log.New(&buf, "", 0))

	logger.Operation("created group \"Engineering\"", "group", 42)

	var entry LogEntry
	json.Unmarshal(buf.Bytes(), &entry)

	if entry.Level != LogLevelInfo {
		t.Errorf("Expected INFO level, got %q", entry.Level)
	}
	if entry.Entity != "group" {
		t.Errorf("Expected entity 'group', got %q", entry.Entity)
	}
	if entry.EntityID != 42 {
		t.Errorf("Expected entity_id 42, got %d", entry.EntityID)
	}
}

// TestLogger_StoreFailure tests persistence failure logging with entity
// context and the underlying error.
func TestLogger_StoreFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetOutput(log.New(&buf, "", 0))

	logger.StoreFailure("mapping insert failed", "mapping", 7, errors.New("connection refused"))

	var entry LogEntry
	json.Unmarshal(buf.Bytes(), &entry)

	if entry.Level != LogLevelError {
		t.Errorf("Expected ERROR level, got %q", entry.Level)
	}
	if entry.Entity != "mapping" {
		t.Errorf("Expected entity 'mapping', got %q", entry.Entity)
	}
	if entry.EntityID != 7 {
		t.Errorf("Expected entity_id 7, got %d", entry.EntityID)
	}
	if entry.Error != "connection refused" {
		t.Errorf("Expected error message, got %q", entry.Error)
	}
}

// TestLogger_Request tests HTTP request logging.
func TestLogger_Request(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetOutput(log.New(&buf, "", 0))

	logger.Request("req-123", "POST", "/api/groups", 201, 12, "192.168.1.100")

	var entry LogEntry
	json.Unmarshal(buf.Bytes(), &entry)

	if entry.Fields["request_id"] != "req-123" {
		t.Errorf("Expected request_id req-123, got %v", entry.Fields["request_id"])
	}
	if entry.Fields["method"] != "POST" {
		t.Errorf("Expected method POST, got %v", entry.Fields["method"])
	}
	if entry.Fields["path"] != "/api/groups" {
		t.Errorf("Expected path /api/groups, got %v", entry.Fields["path"])
	}
	// JSON unmarshals numbers as float64
	if entry.Fields["status"] != float64(201) {
		t.Errorf("Expected status 201, got %v", entry.Fields["status"])
	}
	if entry.Fields["latency_ms"] != float64(12) {
		t.Errorf("Expected latency 12ms, got %v", entry.Fields["latency_ms"])
	}
}

// TestLogger_ErrorWithException tests error logging with an underlying error.
func TestLogger_ErrorWithException(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetOutput(log.New(&buf, "", 0))

	logger.Error("Failed to connect", errors.New("database connection failed"))

	var entry LogEntry
	json.Unmarshal(buf.Bytes(), &entry)

	if entry.Error != "database connection failed" {
		t.Errorf("Expected error message, got %q", entry.Error)
	}
}

// BenchmarkLogger_Info benchmarks info logging performance.
func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLogger()
	logger.SetOutput(log.New(&bytes.Buffer{}, "", 0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("Benchmark test message")
	}
}
