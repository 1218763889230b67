package testutils

import (
	"fmt"
	"sync"
	"testing"
)

type capturingT struct {
	messages []string
}

func (c *capturingT) Errorf(format string, args ...any) {
	c.messages = append(c.messages, fmt.Sprintf(format, args...))
}

func TestFieldsToMap(t *testing.T) {
	tests := []struct {
		name       string
		fields     []any
		expected   map[string]any
		complaints int
	}{
		{
			name:     "empty fields",
			fields:   []any{},
			expected: map[string]any{},
		},
		{
			name:     "mixed types",
			fields:   []any{"package", "com.spotify.music", "listed", 12, "granted", true},
			expected: map[string]any{"package": "com.spotify.music", "listed": 12, "granted": true},
		},
		{
			name:       "missing value",
			fields:     []any{"op", "ListInstalledApps", "duration_ms"},
			expected:   map[string]any{"op": "ListInstalledApps"},
			complaints: 1,
		},
		{
			name:       "non-string key",
			fields:     []any{42, "value", "tag", "GET_APPS_ERROR"},
			expected:   map[string]any{"tag": "GET_APPS_ERROR"},
			complaints: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := &capturingT{}
			result := FieldsToMap(ct, tt.fields)

			if len(result) != len(tt.expected) {
				t.Errorf("Expected map length %d, got %d", len(tt.expected), len(result))
			}
			for key, want := range tt.expected {
				if got, ok := result[key]; !ok || got != want {
					t.Errorf("Key %q: expected %v, got %v", key, want, got)
				}
			}
			if len(ct.messages) != tt.complaints {
				t.Errorf("Expected %d complaints, got %v", tt.complaints, ct.messages)
			}
		})
	}
}

func TestRecordingLogger_FiltersByLevel(t *testing.T) {
	var logger RecordingLogger
	logger.Info("connected", "path", ":memory:")
	logger.Warn("settings unavailable")
	logger.Error("query failed", "op", "List")

	if got := len(logger.Entries("")); got != 3 {
		t.Fatalf("Expected 3 entries, got %d", got)
	}
	warns := logger.Entries("warn")
	if len(warns) != 1 || warns[0].Message != "settings unavailable" {
		t.Errorf("Unexpected warn entries: %+v", warns)
	}
	errs := logger.Entries("error")
	if len(errs) != 1 || FieldsToMap(t, errs[0].Fields)["op"] != "List" {
		t.Errorf("Unexpected error entries: %+v", errs)
	}
}

func TestRecordingLogger_ConcurrentUse(t *testing.T) {
	var logger RecordingLogger
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Debug("tick")
		}()
	}
	wg.Wait()

	if got := len(logger.Entries("debug")); got != 20 {
		t.Errorf("Expected 20 entries, got %d", got)
	}
}
