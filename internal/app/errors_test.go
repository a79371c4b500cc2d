package app

import (
	"errors"
	"strings"
	"testing"
)

func TestOperationError(t *testing.T) {
	base := errors.New("boom")
	err := NewOperationError("undo", "circle-1", base).WithContext("restore")

	if got := err.Error(); got != "undo circle-1 (restore): boom" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, base) {
		t.Error("should unwrap to the cause")
	}

	var nilErr *OperationError
	if nilErr.WithContext("x") != nil || nilErr.Error() != "" || nilErr.Unwrap() != nil {
		t.Error("nil receiver should be safe")
	}
}

func TestComponentError(t *testing.T) {
	tests := []struct {
		err  *ComponentError
		want string
	}{
		{NewComponentError("history", "baseline", ErrClosed), "history: baseline: editor closed"},
		{NewComponentError("history", "baseline", nil), "history: baseline"},
		{NewComponentError("watcher", "", ErrClosed), "watcher: editor closed"},
		{NewComponentError("watcher", "", nil), "watcher"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if !errors.Is(tests[0].err, ErrClosed) {
		t.Error("should unwrap to the cause")
	}
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	if list.AsError() != nil {
		t.Error("empty list should be nil")
	}

	list.Add(nil)
	list.Add(ErrNotBarcode)
	if list.Len() != 1 || list.Error() != ErrNotBarcode.Error() {
		t.Errorf("single error list = %q", list.Error())
	}

	list.Add(ErrNotText)
	err := list.AsError()
	if !strings.HasPrefix(err.Error(), "2 errors") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrNotText) {
		t.Error("list should match its members")
	}
	errs := list.Errors()
	errs[0] = nil
	if list.Errors()[0] == nil {
		t.Error("Errors should return a copy")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "x") != nil {
		t.Error("nil stays nil")
	}
	err := WrapError(ErrClosed, "step %d", 3)
	if err.Error() != "step 3: editor closed" || !errors.Is(err, ErrClosed) {
		t.Errorf("WrapError = %v", err)
	}
}
