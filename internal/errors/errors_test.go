package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := New("TEST_001", "test error")

	if err.Code != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
}

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "underlying error") {
		t.Errorf("expected error string to contain cause, got %s", errStr)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	if err.Unwrap() != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestErrorsIs(t *testing.T) {
	wrapped := Wrap(ErrCollaboratorUnavailable, "TRIAGE_002", "analysis failed")

	if !stderrors.Is(wrapped, ErrCollaboratorUnavailable) {
		t.Error("expected errors.Is to match wrapped sentinel")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if IsAppError(stdErr) {
		t.Error("expected IsAppError to return false for standard error")
	}
}

func TestGetCode(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if GetCode(appErr) != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", GetCode(appErr))
	}
	if GetCode(stdErr) != "UNKNOWN" {
		t.Errorf("expected code UNKNOWN for standard error, got %s", GetCode(stdErr))
	}
}

func TestPredefinedErrors(t *testing.T) {
	if ErrInvalidTimeFormat.Code != "TIME_001" {
		t.Errorf("unexpected code for ErrInvalidTimeFormat")
	}
	if ErrClassificationContract.Code != "TRIAGE_001" {
		t.Errorf("unexpected code for ErrClassificationContract")
	}
	if ErrCollaboratorUnavailable.Code != "LLM_002" {
		t.Errorf("unexpected code for ErrCollaboratorUnavailable")
	}
	if ErrUnauthorized.Code != "AUTH_001" {
		t.Errorf("unexpected code for ErrUnauthorized")
	}
}
