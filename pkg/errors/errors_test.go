package errors

import (
	stderrors "errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidScene, "item %q has no geometry", "box1")
	want := `INVALID_SCENE: item "box1" has no geometry`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("underlying")
	err := Wrap(ErrCodeInternal, cause, "while solving")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause with errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeNotRegistered, "constraint unknown")

	if !Is(err, ErrCodeNotRegistered) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeInternal) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("Is should not match plain errors")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeJuggle, "oscillation")
	outer := Wrap(ErrCodeInternal, inner, "update cycle failed")

	// errors.As finds the outermost *Error first.
	if GetCode(outer) != ErrCodeInternal {
		t.Errorf("GetCode = %q, want %q", GetCode(outer), ErrCodeInternal)
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeItemNotFound, "x")); got != ErrCodeItemNotFound {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeItemNotFound)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode for plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad width")
	if got := UserMessage(err); got != "bad width" {
		t.Errorf("UserMessage = %q, want %q", got, "bad width")
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage for plain error = %q, want %q", got, "plain")
	}
}
