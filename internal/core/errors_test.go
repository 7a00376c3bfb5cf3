package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := (&DomainError{
		Category: ErrCatValidation,
		Code:     "CODE",
		Message:  "message",
	}).WithCause(cause)

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be unwrapped")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match cause")
	}

	match := &DomainError{Category: ErrCatValidation, Code: "CODE"}
	if !errors.Is(err, match) {
		t.Fatalf("expected errors.Is to match category and code")
	}
}

func TestDomainError_ErrorString(t *testing.T) {
	err := ErrValidation(CodeMissingTitle, "assertion has no title")
	if got, want := err.Error(), "[validation] MISSING_TITLE: assertion has no title"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	err.WithCause(errors.New("boom"))
	if got, want := err.Error(), "[validation] MISSING_TITLE: assertion has no title (boom)"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := &DomainError{Category: ErrCatIO, Code: "X", Message: "msg"}
	err.WithDetail("k", "v")
	if err.Details == nil || err.Details["k"] != "v" {
		t.Fatalf("expected details to be set")
	}
}

func TestErrorFactories(t *testing.T) {
	if ErrValidation("C", "m").Retryable {
		t.Fatalf("validation should not be retryable")
	}
	if !ErrIO("C", "m").Retryable {
		t.Fatalf("io should be retryable by the caller")
	}
	if ErrState("C", "m").Retryable {
		t.Fatalf("state should not be retryable")
	}
	nf := ErrNotFound("project root", "/tmp/x")
	if nf.Category != ErrCatNotFound || nf.Code != CodeNotFound {
		t.Fatalf("unexpected not found error: %+v", nf)
	}
}

func TestCategoryHelpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrIO(CodeReadFailed, "read"))

	if GetCategory(wrapped) != ErrCatIO {
		t.Fatalf("GetCategory() = %s, want io", GetCategory(wrapped))
	}
	if !IsCategory(wrapped, ErrCatIO) {
		t.Fatalf("expected IsCategory to match io")
	}
	if !IsRetryable(wrapped) {
		t.Fatalf("expected wrapped io error to be retryable")
	}
	if GetCategory(errors.New("plain")) != ErrCatInternal {
		t.Fatalf("plain errors should default to internal")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors should not be retryable")
	}
}
