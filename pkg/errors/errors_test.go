package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(KindNotFound, "sound not found")
	wrapped := fmt.Errorf("deleting sound 7: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("expected KindNotFound through wrapping, got %v", got)
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Fatal("IsKind must look through fmt.Errorf wrapping")
	}

	double := fmt.Errorf("refreshing catalog: %w", wrapped)
	if !IsKind(double, KindNotFound) {
		t.Fatal("IsKind must look through nested wrapping")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(errors.New("plain failure")); got != KindAdminCall {
		t.Fatalf("unclassified errors default to KindAdminCall, got %v", got)
	}
}

func TestFaultUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	f := Wrap(KindTransport, "dialing backend", cause)

	if !errors.Is(f, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if f.Error() != "dialing backend: connection refused" {
		t.Fatalf("unexpected message: %q", f.Error())
	}
}
