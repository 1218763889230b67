package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tag identifies which bridge operation failed. Tags are part of the
// contract with the application shell and must not change.
type Tag string

const (
	TagPermissionCheck Tag = "PERMISSION_CHECK_ERROR"
	TagGetApps         Tag = "GET_APPS_ERROR"
	TagCheckApp        Tag = "CHECK_APP_ERROR"
	TagGetCurrentApp   Tag = "GET_CURRENT_APP_ERROR"
)

// BridgeError is the tagged failure handed back to the shell
type BridgeError struct {
	Tag       Tag               `json:"code"`
	Message   string            `json:"message"`
	Op        string            `json:"-"`
	Err       error             `json:"-"`
	Context   map[string]string `json:"-"`
	Timestamp time.Time         `json:"-"`
}

// NewBridgeError wraps a platform failure. The message is the cause's text.
func NewBridgeError(tag Tag, op string, err error) *BridgeError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &BridgeError{
		Tag:       tag,
		Message:   msg,
		Op:        op,
		Err:       err,
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewBridgeErrorWithContext wraps a platform failure and attaches context
func NewBridgeErrorWithContext(tag Tag, op string, err error, context map[string]string) *BridgeError {
	bridgeErr := NewBridgeError(tag, op, err)
	for k, v := range context {
		bridgeErr.Context[k] = v
	}
	return bridgeErr
}

func (e *BridgeError) Error() string {
	if e == nil {
		return "bridge error"
	}

	parts := []string{}
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	parts = append(parts, sortedContext(e.Context)...)

	msg := fmt.Sprintf("%s: %s", e.Tag, e.Message)
	if len(parts) > 0 {
		msg += fmt.Sprintf(" [%s]", strings.Join(parts, " "))
	}
	return msg
}

func (e *BridgeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another BridgeError by tag, or the wrapped error
func (e *BridgeError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*BridgeError); ok {
		return e.Tag == t.Tag
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// GetCode returns the tag (for logging interface compatibility)
func (e *BridgeError) GetCode() string {
	if e == nil {
		return ""
	}
	return string(e.Tag)
}

// GetContext returns the error context (for logging interface compatibility)
func (e *BridgeError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *BridgeError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// TagOf returns the tag of the first BridgeError in err's chain
func TagOf(err error) (Tag, bool) {
	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) {
		return bridgeErr.Tag, true
	}
	return "", false
}
