package logging

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the structured logger used across the bridge
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" or "error" to a Level; anything
// else is LevelInfo
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// DefaultLogger writes one JSON object per entry through the standard log package
type DefaultLogger struct {
	minLevel Level
}

// NewDefaultLogger creates a logger that emits every level
func NewDefaultLogger() Logger {
	return &DefaultLogger{minLevel: LevelDebug}
}

// NewLeveledLogger creates a logger that drops entries below minLevel
func NewLeveledLogger(minLevel Level) Logger {
	return &DefaultLogger{minLevel: minLevel}
}

// logEntry represents a structured log entry
type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
}

// fieldsToMap converts the variadic fields slice to a map
// Expected format: key1, value1, key2, value2, ...
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			if key, ok := fields[i].(string); ok {
				result[key] = fields[i+1]
			} else {
				// If key is not a string, use index as key
				result[fmt.Sprintf("field_%d", i/2)] = fields[i]
				if i+1 < len(fields) {
					result[fmt.Sprintf("field_%d_value", i/2)] = fields[i+1]
				}
			}
		} else {
			// Odd number of fields, add the last one with an index key
			result[fmt.Sprintf("field_%d", i/2)] = fields[i]
		}
	}

	return result
}

// logStructured logs a message with structured JSON format
func (l *DefaultLogger) logStructured(level, msg string, fields []interface{}) {
	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
		Fields:    fieldsToMap(fields),
	}

	// Try to marshal to JSON
	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		// Fallback to safe string representation
		fallbackFields := fmt.Sprintf("%v", fields)
		fallbackEntry := logEntry{
			Timestamp: entry.Timestamp,
			Level:     level,
			Message:   msg,
			Fields: map[string]interface{}{
				"original_fields": fallbackFields,
				"marshal_error":   err.Error(),
			},
		}

		if jsonBytes, err = json.Marshal(fallbackEntry); err != nil {
			// Last resort - simple text log
			log.Printf("[%s] %s %s", level, msg, fallbackFields)
			return
		}
	}

	log.Println(string(jsonBytes))
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	if l.minLevel <= LevelDebug {
		l.logStructured("DEBUG", msg, fields)
	}
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	if l.minLevel <= LevelInfo {
		l.logStructured("INFO", msg, fields)
	}
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	if l.minLevel <= LevelWarn {
		l.logStructured("WARN", msg, fields)
	}
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logStructured("ERROR", msg, fields)
}

// CodedError is implemented by the bridge and store error types
// (declared here to avoid importing the errors package)
type CodedError interface {
	Error() string
	GetCode() string
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs an operation failure, expanding coded errors into fields
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		fields := []interface{}{
			"operation", operation,
			"error_code", coded.GetCode(),
			"timestamp", coded.GetTimestamp(),
		}
		for k, v := range coded.GetContext() {
			fields = append(fields, k, v)
		}
		for k, v := range context {
			fields = append(fields, k, v)
		}

		logger.Error(fmt.Sprintf("Operation failed: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation and how long it took
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Debug(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
