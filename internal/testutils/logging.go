// Package testutils holds helpers shared by package tests.
package testutils

import "sync"

// TestingT is the part of testing.T the helpers report through
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap turns alternating key/value logger fields into a map,
// reporting odd-length slices and non-string keys through t
func FieldsToMap(t TestingT, fields []any) map[string]any {
	fieldsMap := make(map[string]any)

	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}

		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}

		fieldsMap[key] = fields[i+1]
	}

	return fieldsMap
}

// LogEntry is one call captured by RecordingLogger
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
}

// RecordingLogger captures log calls in memory. The zero value is ready to
// use and safe for concurrent callers.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *RecordingLogger) Debug(msg string, fields ...any) { l.record("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...any)  { l.record("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...any)  { l.record("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...any) { l.record("error", msg, fields) }

func (l *RecordingLogger) record(level, msg string, fields []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}

// Entries returns the captured calls at level, or all of them when level is ""
func (l *RecordingLogger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
