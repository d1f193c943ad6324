package merrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := ErrInvalid.Because("bad password for %q", "steve")

	if !errors.Is(err, ErrInvalid) {
		t.Error("a Because variant must match its sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("kinds must not cross match")
	}
	if err.Error() != `bad password for "steve"` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrappedCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrNetwork.With(cause)

	if !errors.Is(err, ErrNetwork) {
		t.Error("a With variant must match its sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("the cause must stay reachable through Unwrap")
	}
}

func TestFmtWrapping(t *testing.T) {
	err := fmt.Errorf("adding player: %w", ErrDuplicate)
	if !errors.Is(err, ErrDuplicate) {
		t.Error("%%w wrapping must keep the kind matchable")
	}
}
