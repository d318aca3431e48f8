package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := New(ErrCategoryValidation, CodePlanEmpty, "No valid fields to update")
	expected := "[VALIDATION:PLAN_EMPTY] No valid fields to update"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCategoryDatabase, CodeQueryFailed, "Error updating store", cause)
	expected := "[DATABASE:QUERY_FAILED] Error updating store: connection refused"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
	if err.Details != "connection refused" {
		t.Errorf("details = %q, want cause message", err.Details)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewDatabaseError("failed", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestError_Is(t *testing.T) {
	err1 := NewNotFoundError("Store")
	err2 := NewNotFoundError("Product")
	err3 := NewValidationError(CodePlanEmpty, "empty")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}
}

func TestGetCategoryAndCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewConflictError(CodeDuplicateID, "Product ID already exists"))
	if GetCategory(err) != ErrCategoryConflict {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryConflict)
	}
	if GetCode(err) != CodeDuplicateID {
		t.Errorf("got %q, want %q", GetCode(err), CodeDuplicateID)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("plain error should return empty category")
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("plain error should return empty code")
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err    error
		client bool
	}{
		{NewValidationError(CodeRequiredField, "Region is required"), true},
		{NewNotFoundError("Store"), true},
		{NewConflictError(CodeDuplicateID, "dup"), true},
		{NewTooLargeError(1 << 20), true},
		{NewDatabaseError("boom", fmt.Errorf("x")), false},
		{NewUnavailableError("Database not connected"), false},
		{NewInternalError("boom", nil), false},
		{fmt.Errorf("plain"), false},
	}

	for _, tt := range tests {
		if IsClientError(tt.err) != tt.client {
			t.Errorf("%v: client=%v, want %v", tt.err, IsClientError(tt.err), tt.client)
		}
	}
}

func TestWithFields(t *testing.T) {
	err := NewValidationError(CodeValidationFailed, "bad payload")
	detailed := err.WithFields([]FieldIssue{{Field: "RRP_AUD", Reason: "NotANumber", Message: "RRP AUD must be a number"}})

	if len(detailed.Fields) != 1 || detailed.Fields[0].Field != "RRP_AUD" {
		t.Error("WithFields should set fields")
	}
	if err.Fields != nil {
		t.Error("WithFields should not modify original")
	}
}
