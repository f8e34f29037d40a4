package sharetoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes yields a 64 character hex token.
const tokenBytes = 32

// New returns an unguessable token used in shareable order links.
func New() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsWellFormed reports whether the value looks like a token this package
// produced. It does not prove the token exists.
func IsWellFormed(value string) bool {
	if len(value) != tokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
