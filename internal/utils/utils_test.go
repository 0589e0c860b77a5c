package utils

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("UTA_TEST_VALUE", "")
	if got := GetEnv("UTA_TEST_VALUE", "def"); got != "def" {
		t.Errorf("expected default, got %q", got)
	}
	t.Setenv("UTA_TEST_VALUE", "set")
	if got := GetEnv("UTA_TEST_VALUE", "def"); got != "set" {
		t.Errorf("expected 'set', got %q", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", time.Minute},
		{"valid", "90s", 90 * time.Second},
		{"invalid", "soon", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("UTA_TEST_DURATION", tt.value)
			if got := GetEnvDuration("UTA_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("GetEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("UTA_TEST_INT", "42")
	if got := GetEnvInt64("UTA_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	t.Setenv("UTA_TEST_INT", "forty")
	if got := GetEnvInt64("UTA_TEST_INT", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
}

func TestLoadEnv_Missing(t *testing.T) {
	t.Setenv("UTA_TEST_REQUIRED", "")
	if _, err := LoadEnv([]string{"UTA_TEST_REQUIRED"}); err == nil {
		t.Fatal("expected error for missing variable")
	}
	t.Setenv("UTA_TEST_REQUIRED", "x")
	env, err := LoadEnv([]string{"UTA_TEST_REQUIRED"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env["UTA_TEST_REQUIRED"] != "x" {
		t.Errorf("expected 'x', got %q", env["UTA_TEST_REQUIRED"])
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello - World", "Hello - World"},
		{"AC/DC - Back In Black", "AC_DC - Back In Black"},
		{"What? - Who: \"Me\"", "What_ - Who_ 'Me'"},
		{"  ..  ", "untitled"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := SafeFileName(tt.in); got != tt.want {
			t.Errorf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
