package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestConstructors_CodesAndStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    *StashError
		code   ErrorCode
		status int
	}{
		{"invalid request", NewInvalidRequest("bad"), ErrInvalidRequest, 400},
		{"not found", NewNotFound("x"), ErrNotFound, 404},
		{"file not found", NewFileNotFound("/tmp/x"), ErrFileNotFound, 404},
		{"conflict", NewConflict("dup"), ErrConflict, 409},
		{"corrupt entry", NewCorruptEntry("row1", fmt.Errorf("bad json")), ErrCorruptEntry, 422},
		{"cancelled", NewCancelled("compose"), ErrCancelled, 499},
		{"persistence", NewPersistence(fmt.Errorf("disk full")), ErrPersistence, 500},
		{"internal", NewInternal(fmt.Errorf("boom")), ErrInternal, 500},
		{"counter increment", NewCounterIncrement("t1", fmt.Errorf("db gone")), ErrCounterIncrement, 502},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("Code = %q, want %q", tc.err.Code, tc.code)
			}
			if tc.err.Status != tc.status {
				t.Errorf("Status = %d, want %d", tc.err.Status, tc.status)
			}
			if tc.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("abc")
	if !Is(err, ErrNotFound) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrConflict) {
		t.Error("Is should not match a different code")
	}
	if Is(nil, ErrNotFound) {
		t.Error("Is(nil) should be false")
	}
	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is should be false for non-StashError")
	}
}

func TestIs_WrappedIsNotMatched(t *testing.T) {
	// Is matches the concrete type only; ops return StashErrors unwrapped.
	wrapped := fmt.Errorf("context: %w", NewConflict("dup"))
	if Is(wrapped, ErrConflict) {
		t.Error("Is matches unwrapped StashErrors only")
	}
}

func TestErrorString(t *testing.T) {
	err := NewInvalidRequest("tweak_ids is required")
	var asErr *StashError
	if !stderrors.As(err, &asErr) {
		t.Fatal("StashError should satisfy errors.As against itself")
	}
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

func TestNewCorruptEntry_Details(t *testing.T) {
	err := NewCorruptEntry("row42", fmt.Errorf("unexpected end of JSON input"))
	if err.Details == nil {
		t.Fatal("corrupt entry should carry details")
	}
}
