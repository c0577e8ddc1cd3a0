package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeHelpers(t *testing.T) {
	base := NewError(CodeNotFound, "progress.toggle_leaf", "leaf not found", nil)
	wrapped := fmt.Errorf("handler: %w", base)

	if !IsCode(wrapped, CodeNotFound) {
		t.Fatalf("IsCode: want not_found got=%q", CodeOf(wrapped))
	}
	if got := base.Error(); got != "progress.toggle_leaf: leaf not found (not_found)" {
		t.Fatalf("Error(): got=%q", got)
	}
	if IsTransient(wrapped) {
		t.Fatalf("not_found must not be transient")
	}
	if !IsTransient(Wrap(CodeConflict, "op", errors.New("lost race"))) {
		t.Fatalf("conflict must be transient")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

func TestContracts(t *testing.T) {
	for _, c := range []Contract{ProgressAggregateContract, FavoriteAggregateContract} {
		if !c.RequiresAggregateOwnedTx() {
			t.Fatalf("%s: expected aggregate-owned tx", c.Name)
		}
	}
}

func TestErrorRendering(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeRetryable, Op: "progress.toggle_leaf", Message: "toggle attempts exhausted"}, "progress.toggle_leaf: toggle attempts exhausted (retryable)"},
		{&Error{Code: CodePreconditionFailed, Op: "favorite.list"}, "favorite.list (precondition_failed)"},
		{&Error{Code: CodeValidation, Message: " unknown favorite kind "}, "unknown favorite kind (validation)"},
		{&Error{Code: CodeInternal}, "internal"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
	}
	if IsCode(errors.New("plain"), "") {
		t.Fatalf("an empty code matches nothing")
	}
}
