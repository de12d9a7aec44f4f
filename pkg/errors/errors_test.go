package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeOverAllocation, http.StatusConflict},
		{CodeTransition, http.StatusUnprocessableEntity},
		{CodeAssignmentState, http.StatusUnprocessableEntity},
		{CodeExpired, http.StatusGone},
		{CodeResolved, http.StatusConflict},
		{CodeForbidden, http.StatusForbidden},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row missing")
	err := Wrap(CodeNotFound, cause, "assignment not found")
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if err.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughChain(t *testing.T) {
	inner := New(CodeOverAllocation, "requested quantity 5 exceeds remaining 3")
	wrapped := fmt.Errorf("assign: %w", inner)
	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error in chain")
	}
	if typed.Code() != CodeOverAllocation {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestHasCode(t *testing.T) {
	err := New(CodeResolved, "already decided")
	if !HasCode(err, CodeResolved) {
		t.Fatal("expected HasCode to match")
	}
	if HasCode(err, CodeExpired) {
		t.Fatal("HasCode matched wrong code")
	}
	if HasCode(errors.New("plain"), CodeResolved) {
		t.Fatal("plain errors carry no code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeOverAllocation, "over allocation").
		WithDetails(map[string]any{"requested": 5, "remaining": 3})
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["requested"] != 5 || details["remaining"] != 3 {
		t.Fatalf("unexpected details %v", details)
	}
}
