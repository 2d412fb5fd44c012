package executor

import (
	"strings"
	"testing"
)

func TestFriendlyErrorBlockedImport(t *testing.T) {
	for _, raw := range []string{
		"ImportError: cv2",
		"ModuleNotFoundError: No module named 'requests'",
	} {
		got := friendlyError(raw)
		if !strings.Contains(got, raw) {
			t.Errorf("friendlyError(%q) = %q, should echo the raw message", raw, got)
		}
		if !strings.Contains(got, "import cv2") || !strings.Contains(got, "numpy") {
			t.Errorf("friendlyError(%q) = %q, should name the two allowed imports", raw, got)
		}
	}
}

func TestFriendlyErrorCategories(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"SyntaxError: invalid syntax", "Syntax error"},
		{"NameError: name 'x' is not defined", "Name not found"},
		{"TypeError: unsupported operand", "Type error"},
		{"AttributeError: module 'cv2' has no attribute 'imreed'", "Attribute error"},
	}
	for _, c := range cases {
		got := friendlyError(c.raw)
		if !strings.Contains(got, c.want) {
			t.Errorf("friendlyError(%q) = %q, want mention of %q", c.raw, got, c.want)
		}
		if !strings.Contains(got, c.raw) {
			t.Errorf("friendlyError(%q) = %q, should echo the raw message", c.raw, got)
		}
	}
}

func TestFriendlyErrorFirstMatchWins(t *testing.T) {
	// An import failure whose message also mentions a type error must be
	// treated as an import failure.
	got := friendlyError("ImportError: TypeError lookalike")
	if !strings.Contains(got, "Import blocked") {
		t.Errorf("got %q, want the import category", got)
	}
	if strings.Contains(got, "Type error:") {
		t.Errorf("got %q, only one category may apply", got)
	}
}

func TestFriendlyErrorGenericFallback(t *testing.T) {
	got := friendlyError("ZeroDivisionError: division by zero")
	if !strings.Contains(got, "Error: ZeroDivisionError: division by zero") {
		t.Errorf("got %q, want the generic wrap", got)
	}
}
