package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeNotFound, "NOT_FOUND"},
		{ErrCodeDuplicate, "DUPLICATE"},
		{ErrCodeConstraint, "CONSTRAINT"},
		{ErrCodeConnection, "CONNECTION"},
		{ErrCodeTimeout, "TIMEOUT"},
		{ErrCodeValidation, "VALIDATION"},
		{ErrCodeBusy, "BUSY"},
		{ErrCodeSchema, "SCHEMA"},
		{ErrCodeUnknown, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.code.String(); got != tt.expected {
				t.Errorf("ErrorCode.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStoreError_Error(t *testing.T) {
	err := NewStoreErrorWithContext("replace", errors.New("boom"), ErrCodeValidation, map[string]string{
		"table": "blocked_apps",
		"field": "package_name",
	})

	got := err.Error()
	for _, want := range []string{"boom", "op=replace", "code=VALIDATION"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}

	// context keys are rendered in sorted order
	if strings.Index(got, "field=") > strings.Index(got, "table=") {
		t.Errorf("Error() = %q, context not sorted", got)
	}
}

func TestStoreError_NilSafe(t *testing.T) {
	var err *StoreError
	if err.Error() != "store error" {
		t.Errorf("nil Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("nil Unwrap() should return nil")
	}
	if err.GetCode() != "UNKNOWN" {
		t.Errorf("nil GetCode() = %q", err.GetCode())
	}
	if len(err.GetContext()) != 0 {
		t.Error("nil GetContext() should be empty")
	}
}

func TestStoreError_Is(t *testing.T) {
	base := errors.New("underlying")
	err := NewStoreError("list", base, ErrCodeConnection)

	if !errors.Is(err, &StoreError{Code: ErrCodeConnection}) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, &StoreError{Code: ErrCodeNotFound}) {
		t.Error("errors.Is should not match a different code")
	}
	if !errors.Is(err, base) {
		t.Error("errors.Is should match the wrapped error")
	}
}

func TestNewStoreErrorWithContext_ClonesContext(t *testing.T) {
	ctx := map[string]string{"k": "v"}
	err := NewStoreErrorWithContext("op", nil, ErrCodeInternal, ctx)
	ctx["k"] = "changed"

	if err.Context["k"] != "v" {
		t.Errorf("context was not cloned, got %q", err.Context["k"])
	}
}

func TestClassificationHelpers(t *testing.T) {
	err := HandleValidationError("add", "package_name", "", "empty")
	if !IsValidation(err) {
		t.Error("IsValidation() = false, want true")
	}
	if IsNotFound(err) || IsConnection(err) || IsDuplicate(err) || IsSchema(err) {
		t.Error("validation error matched another classification")
	}

	if !IsConnection(HandleConnectionError("list", "not connected")) {
		t.Error("IsConnection() = false, want true")
	}
	if IsConnection(errors.New("plain")) {
		t.Error("plain errors should not classify")
	}
}
