package ioerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUnwrapsChain(t *testing.T) {
	base := New("inner.op", InvalidIndex, nil)
	wrapped := fmt.Errorf("outer: %w", base)
	if !Is(wrapped, InvalidIndex) {
		t.Fatal("expected Is to find InvalidIndex through fmt.Errorf wrapping")
	}
	if Is(wrapped, ReadOnlyError) {
		t.Fatal("expected Is to not match a different kind")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("plain"), InvalidIndex) {
		t.Fatal("expected false for a plain error")
	}
	if Is(nil, InvalidIndex) {
		t.Fatal("expected false for nil")
	}
}

func TestKindOfUnwraps(t *testing.T) {
	base := New("inner.op", ReadOnlyError, nil)
	wrapped := fmt.Errorf("outer: %w", base)
	if got := KindOf(wrapped); got != ReadOnlyError {
		t.Fatalf("KindOf = %v, want ReadOnlyError", got)
	}
	if got := KindOf(errors.New("plain")); got != NoImplFound {
		t.Fatalf("KindOf(plain) = %v, want NoImplFound", got)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("underlying")
	e := New("pkg.Op", HardwareError, cause)
	got := e.Error()
	want := "pkg.Op: HardwareError: underlying"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(e) != cause {
		t.Fatal("Unwrap did not return the wrapped cause")
	}
}
