package conversation

import (
	"crypto/sha256"
	"fmt"
	"regexp"
)

var (
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	digitsRunRe = regexp.MustCompile(`\+?\d[\d\s\-()]{5,}\d`)
)

// HashPhone returns the hex-encoded SHA-256 of a phone number, for logs.
func HashPhone(phone string) string {
	h := sha256.Sum256([]byte(phone))
	return fmt.Sprintf("%x", h)[:16]
}

// ScrubPII replaces emails with [EMAIL] and long digit runs with [PHONE]
// before text leaves for a third-party model.
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = digitsRunRe.ReplaceAllString(text, "[PHONE]")
	return text
}
