package redactor

import (
	"bytes"
	"testing"
)

func TestRedact(t *testing.T) {
	r := New("123456:AAE-token", "password456")

	input := "POST https://api.telegram.org/bot123456:AAE-token/sendMessage password456"
	expected := "POST https://api.telegram.org/bot[REDACTED]/sendMessage [REDACTED]"

	if got := r.Redact(input); got != expected {
		t.Errorf("Redact() = %q, want %q", got, expected)
	}
}

func TestRedact_IgnoresShortValues(t *testing.T) {
	r := New("42", "")
	if got := r.Redact("chat 42"); got != "chat 42" {
		t.Errorf("short value should not be masked, got %q", got)
	}
}

func TestAdd(t *testing.T) {
	r := New()
	r.Add("late-secret")
	if got := r.Redact("x late-secret"); got != "x [REDACTED]" {
		t.Errorf("Redact() = %q", got)
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, New("hidden-value"))

	input := "This is hidden-value content."
	n, err := w.Write([]byte(input))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(input) {
		t.Errorf("Write returned %d, want %d", n, len(input))
	}
	if buf.String() != "This is [REDACTED] content." {
		t.Errorf("Buffer = %q", buf.String())
	}
}
