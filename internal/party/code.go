package party

import (
	"crypto/rand"
	"strings"
)

// Join codes are short human-shareable strings stored as a group search
// attribute. The alphabet drops characters that read ambiguously (I, O, 0, 1).
const (
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCode returns a random join code. Uniqueness is not checked against
// the directory; two concurrently created parties can collide and join
// resolves a collision by taking the first search match.
func GenerateCode() (string, error) {
	b := make([]byte, CodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// NormalizeCode uppercases and trims a user-entered join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a normalized code has the right length and
// alphabet. Invalid codes fail fast without a directory round-trip.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
