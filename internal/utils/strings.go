package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCode normalizes invitation codes (lowercase and trim)
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// IsValidEmail performs RFC-5322-ish email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" || len(normalized) > 254 {
		return false
	}
	return emailRe.MatchString(normalized)
}

// IsValidName accepts names between 2 and 100 characters
func IsValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	n := len([]rune(trimmed))
	return n >= 2 && n <= 100
}

var codeRe = regexp.MustCompile(`^[a-f0-9]{12,32}$`)

// IsValidCode validates the lowercase-hex invitation code format
func IsValidCode(code string) bool {
	return codeRe.MatchString(code)
}

// SanitizeMessage strips angle brackets and control characters, trims
// whitespace and caps the result at maxLength runes.
func SanitizeMessage(s string, maxLength int) string {
	var b strings.Builder
	for _, r := range s {
		if r == '<' || r == '>' {
			continue
		}
		if r != '\n' && (unicode.IsControl(r) || r == unicode.ReplacementChar) {
			continue
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	runes := []rune(out)
	if len(runes) > maxLength {
		out = strings.TrimSpace(string(runes[:maxLength]))
	}
	return out
}
