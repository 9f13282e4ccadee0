package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestBuildErrorMessage(t *testing.T) {
	err := &BuildError{
		Op:      "registry.register",
		Kind:    ErrNotFound,
		Path:    "images/missing.png",
		Section: "hero",
		Err:     errors.New("stat failed"),
	}

	msg := err.Error()
	for _, want := range []string{"registry.register", "not_found", "images/missing.png", "hero", "stat failed"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := &BuildError{Op: "typeface.pack", Kind: ErrMissingAxis, Path: "fonts/f.woff2"}
	wrapped := fmt.Errorf("build failed: %w", inner)

	if !IsKind(wrapped, ErrMissingAxis) {
		t.Error("IsKind should see through fmt.Errorf wrapping")
	}
	if IsKind(wrapped, ErrNotFound) {
		t.Error("IsKind matched the wrong kind")
	}
	if KindOf(wrapped) != ErrMissingAxis {
		t.Errorf("KindOf = %v, want missing_axis", KindOf(wrapped))
	}
}

func TestKindOfForeignError(t *testing.T) {
	if KindOf(errors.New("plain")) != ErrInternal {
		t.Error("foreign errors classify as internal")
	}
}
