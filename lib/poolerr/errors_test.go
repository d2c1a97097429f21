package poolerr

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapNilIsNil(t *testing.T) {
	if Wrap("acquire", nil) != nil {
		t.Fatal("Wrap(op, nil) should return nil")
	}
}

func TestWrapUnwrapsToSentinel(t *testing.T) {
	err := Wrap("release", ErrMisusedRelease)
	if !errors.Is(err, ErrMisusedRelease) {
		t.Fatal("errors.Is should see through Wrap to the sentinel")
	}
}

func TestErrorMessageNamesOp(t *testing.T) {
	err := Wrap("acquire", ErrPoolFull)
	msg := err.Error()
	if !strings.Contains(msg, "acquire") {
		t.Fatalf("expected the message to name the op, got %q", msg)
	}
	if !errors.Is(err, ErrPoolFull) {
		t.Fatal("expected wrapped error to match ErrPoolFull")
	}
}

func TestDistinctSentinelsAreDistinct(t *testing.T) {
	a := Wrap("acquire", ErrConnectFailure)
	b := Wrap("acquire", ErrCancelled)
	if errors.Is(a, ErrCancelled) {
		t.Fatal("ErrConnectFailure should not match ErrCancelled")
	}
	if errors.Is(b, ErrConnectFailure) {
		t.Fatal("ErrCancelled should not match ErrConnectFailure")
	}
}
