package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidGeometry, "margin %d out of range", 42)

	if err.Code != ErrCodeInvalidGeometry {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidGeometry)
	}
	if err.Message != "margin 42 out of range" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Error("New should not set Cause")
	}

	want := "INVALID_GEOMETRY: margin 42 out of range"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeStore, cause, "write measure for %q", "p1")

	if err.Cause != cause {
		t.Error("Wrap should preserve cause")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}

	want := "STORE_ERROR: write measure for \"p1\": disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeGeometryTooSmall, "page cannot hold a single line")

	if !Is(err, ErrCodeGeometryTooSmall) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeInternal) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("Is should not match non-structured errors")
	}

	// Wrapped in a plain fmt chain
	wrapped := fmt.Errorf("layout: %w", err)
	if !Is(wrapped, ErrCodeGeometryTooSmall) {
		t.Error("Is should unwrap fmt.Errorf chains")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeCacheNoGeneration, "get outside generation")); got != ErrCodeCacheNoGeneration {
		t.Errorf("GetCode = %q", got)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode for plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidDocument, "duplicate block id: \"p1\"")
	if got := UserMessage(err); got != "duplicate block id: \"p1\"" {
		t.Errorf("UserMessage = %q", got)
	}

	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage for plain error = %q", got)
	}
}
