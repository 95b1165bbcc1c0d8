package utils

import (
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"marie@example.com",
		"first.last+tag@sub.example.co",
		"  UPPER@EXAMPLE.COM  ",
	}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false", e)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@.com",
		"a@" + strings.Repeat("x", 250) + ".com",
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true", e)
		}
	}
}

func TestIsValidCode(t *testing.T) {
	valid := []string{
		"abc123def456",
		"0123456789abcdef",
		strings.Repeat("a", 32),
	}
	for _, c := range valid {
		if !IsValidCode(c) {
			t.Errorf("IsValidCode(%q) = false", c)
		}
	}

	invalid := []string{
		"",
		"abc123",                // too short
		strings.Repeat("a", 33), // too long
		"ABC123DEF456",          // uppercase
		"ghijklmnopqr",          // non-hex letters
		"abc123def45 ",          // whitespace
	}
	for _, c := range invalid {
		if IsValidCode(c) {
			t.Errorf("IsValidCode(%q) = true", c)
		}
	}
}

func TestIsValidName(t *testing.T) {
	if !IsValidName("Jo") || !IsValidName(strings.Repeat("é", 100)) {
		t.Error("boundary-length names rejected")
	}
	if IsValidName("J") || IsValidName(strings.Repeat("a", 101)) || IsValidName("   ") {
		t.Error("out-of-range names accepted")
	}
}

func TestSanitizeMessage(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"  padded  ", "padded"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{"line1\nline2", "line1\nline2"},
		{"tab\there", "tabhere"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeMessage(tc.in, 100); got != tc.want {
			t.Errorf("SanitizeMessage(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("x", 50)
	if got := SanitizeMessage(long, 10); got != strings.Repeat("x", 10) {
		t.Errorf("truncation: got %d runes", len(got))
	}
}
