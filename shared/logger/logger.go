// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
)

// Logger writes one JSON object per line, tagged with the principal the
// entry was produced for.
type Logger struct {
	Component  string
	InstanceID string
	Container  string

	mu  sync.Mutex
	out *log.Logger
}

// LogEntry is the serialized form of a single log line
type LogEntry struct {
	Timestamp   string                 `json:"timestamp"`
	Level       LogLevel               `json:"level"`
	Component   string                 `json:"component"`
	InstanceID  string                 `json:"instance_id"`
	Container   string                 `json:"container"`
	PrincipalID string                 `json:"principal_id,omitempty"`
	RequestID   string                 `json:"request_id,omitempty"`
	Message     string                 `json:"message"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
}

// New creates a new Logger for the specified component
func New(component string) *Logger {
	instanceID := os.Getenv("INSTANCE_ID")
	if instanceID == "" {
		instanceID = "unknown"
	}

	container, err := os.Hostname()
	if err != nil {
		container = "unknown"
	}

	return &Logger{
		Component:  component,
		InstanceID: instanceID,
		Container:  container,
		out:        log.New(os.Stdout, "", 0),
	}
}

// SetOutput redirects log lines, mostly for tests
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = log.New(w, "", 0)
}

// Log creates a structured log entry and writes it out
func (l *Logger) Log(level LogLevel, principalID, requestID, message string, fields map[string]interface{}) {
	entry := LogEntry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Level:       level,
		Component:   l.Component,
		InstanceID:  l.InstanceID,
		Container:   l.Container,
		PrincipalID: principalID,
		RequestID:   requestID,
		Message:     message,
		Fields:      fields,
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		log.Printf("ERROR: Failed to marshal log entry: %v", err)
		return
	}

	l.mu.Lock()
	out := l.out
	l.mu.Unlock()
	if out == nil {
		out = log.New(os.Stdout, "", 0)
	}
	out.Println(string(jsonBytes))
}

// Info logs an informational message
func (l *Logger) Info(principalID, requestID, message string, fields map[string]interface{}) {
	l.Log(INFO, principalID, requestID, message, fields)
}

// Error logs an error message
func (l *Logger) Error(principalID, requestID, message string, fields map[string]interface{}) {
	l.Log(ERROR, principalID, requestID, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(principalID, requestID, message string, fields map[string]interface{}) {
	l.Log(WARN, principalID, requestID, message, fields)
}

// Debug logs a debug message
func (l *Logger) Debug(principalID, requestID, message string, fields map[string]interface{}) {
	l.Log(DEBUG, principalID, requestID, message, fields)
}

// InfoWithDuration logs an info message with a duration_ms field
func (l *Logger) InfoWithDuration(principalID, requestID, message string, durationMS float64, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["duration_ms"] = durationMS
	l.Info(principalID, requestID, message, fields)
}

// ErrorWithCode logs an error with an HTTP status code and the error text
func (l *Logger) ErrorWithCode(principalID, requestID, message string, statusCode int, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["status_code"] = statusCode
	if err != nil {
		fields["error"] = err.Error()
	}
	l.Error(principalID, requestID, message, fields)
}
