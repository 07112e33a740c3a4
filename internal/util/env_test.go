package util

import "testing"

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_ENV_STRING", "value")

	if got := GetEnvString("TEST_ENV_STRING", "fallback"); got != "value" {
		t.Fatalf("got %q, want value", got)
	}
	if got := GetEnvString("TEST_ENV_STRING_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("got %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "42")
	t.Setenv("TEST_ENV_INT_BAD", "not a number")

	if got := GetEnvInt("TEST_ENV_INT", 7); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if got := GetEnvInt("TEST_ENV_INT_BAD", 7); got != 7 {
		t.Fatalf("unparsable value: got %d, want default 7", got)
	}
	if got := GetEnvInt("TEST_ENV_INT_MISSING", 7); got != 7 {
		t.Fatalf("missing key: got %d, want default 7", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_ENV_BOOL_TRUE", "true")
	t.Setenv("TEST_ENV_BOOL_FALSE", "false")
	t.Setenv("TEST_ENV_BOOL_BAD", "yes")

	if !GetEnvBool("TEST_ENV_BOOL_TRUE", false) {
		t.Fatal("true value not parsed")
	}
	if GetEnvBool("TEST_ENV_BOOL_FALSE", true) {
		t.Fatal("false value not parsed")
	}
	if !GetEnvBool("TEST_ENV_BOOL_BAD", true) {
		t.Fatal("unparsable value must fall back to default")
	}
	if GetEnvBool("TEST_ENV_BOOL_MISSING", false) {
		t.Fatal("missing key must fall back to default")
	}
}
