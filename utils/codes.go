package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeGuestCode → uppercase, surrounding whitespace removed. Codes are
// matched by strict equality after this, never fuzzily.
func NormalizeGuestCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeDisplayName canonicalizes a human-entered name for duplicate
// detection: lowercase, NFD decomposition with combining marks stripped
// ("María" and "Maria" collide), internal whitespace collapsed.
func NormalizeDisplayName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	decomposed := norm.NFD.String(lowered)

	var sb strings.Builder
	sb.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}

// GenerateSecureToken สร้าง token แบบ hex (length = bytes)
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
