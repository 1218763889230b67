package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ClassifyError classifies database errors into store error codes
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}

	if code := classifySQLiteError(err); code != ErrCodeUnknown {
		return code
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, sql.ErrConnDone):
		return ErrCodeConnection
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint"):
		return ErrCodeDuplicate
	case strings.Contains(errStr, "not null constraint"), strings.Contains(errStr, "check constraint"):
		return ErrCodeConstraint
	case strings.Contains(errStr, "database is locked"):
		return ErrCodeBusy
	case strings.Contains(errStr, "database disk image is malformed"):
		return ErrCodeCorruption
	case strings.Contains(errStr, "no such table"), strings.Contains(errStr, "no such column"):
		return ErrCodeSchema
	case strings.Contains(errStr, "permission denied"):
		return ErrCodePermission
	case strings.Contains(errStr, "no space left"), strings.Contains(errStr, "disk full"):
		return ErrCodeDiskSpace
	case strings.Contains(errStr, "database is closed"):
		return ErrCodeConnection
	default:
		return ErrCodeUnknown
	}
}

// WrapDatabaseError wraps a database error with store error context
func WrapDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(op, err, ClassifyError(err))
}

// WrapDatabaseErrorWithContext wraps a database error and attaches context
func WrapDatabaseErrorWithContext(op string, err error, contextMap map[string]string) error {
	if err == nil {
		return nil
	}
	return NewStoreErrorWithContext(op, err, ClassifyError(err), contextMap)
}

// HandleValidationError creates a standardized validation error
func HandleValidationError(op string, field string, value string, reason string) error {
	contextMap := map[string]string{
		"field":  field,
		"value":  value,
		"reason": reason,
	}
	return NewStoreErrorWithContext(op, errors.New("validation failed"), ErrCodeValidation, contextMap)
}

// HandleConnectionError creates a standardized connection error
func HandleConnectionError(op string, details string) error {
	contextMap := map[string]string{
		"details": details,
	}
	return NewStoreErrorWithContext(op, errors.New("connection error"), ErrCodeConnection, contextMap)
}
