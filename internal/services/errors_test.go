package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"tolk/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "translate", "llm", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"translate", "llm", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("io"), false},
		{"transient", services.Wrap(services.ErrTransient, "translate", "send", "503", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "translate", "send", "deadline", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "translate", "send", "400", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "translate", "send", "401", nil), false},
		{"wrapped transient", fmt.Errorf("chunk 3: %w", services.Wrap(services.ErrTransient, "", "", "", nil)), true},
	}
	for _, tc := range cases {
		if got := services.IsRetryable(tc.err); got != tc.want {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.name, got, tc.want)
		}
	}
	if kind := services.FailureKind(services.Wrap(services.ErrTransient, "", "", "", nil)); kind != "transient" {
		t.Fatalf("expected transient kind, got %q", kind)
	}
	if kind := services.FailureKind(errors.New("x")); kind != "permanent" {
		t.Fatalf("expected permanent kind, got %q", kind)
	}
}
