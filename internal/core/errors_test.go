package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("locate: %w", &Error{Kind: KindUnreachable, Op: "request", Camera: "GP1", Err: cause})

	if got := KindOf(err); got != KindUnreachable {
		t.Errorf("expected %s, got %q", KindUnreachable, got)
	}
	if !IsKind(err, KindUnreachable) {
		t.Error("IsKind should match wrapped kind")
	}
	if IsKind(err, KindTimeout) {
		t.Error("IsKind should not match a different kind")
	}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	if KindOf(cause) != "" {
		t.Error("plain errors have no kind")
	}
	if IsKind(nil, KindTimeout) {
		t.Error("nil error has no kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindRadioTimeout, Op: "gatt write", Camera: "GP2", Err: errors.New("deadline")}
	want := "GP2: gatt write: radio_timeout: deadline"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestControlURL(t *testing.T) {
	got := ControlURL("10.5.5.9", PathLocate)
	want := "http://10.5.5.9/gp/gpControl/command/system/locate?p=0"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
