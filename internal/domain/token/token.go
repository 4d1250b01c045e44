// Package token generates opaque interview-token values.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// valueBytes is the entropy per token. 16 bytes = 128 bits, the minimum for
// an unguessable single-use credential.
const valueBytes = 16

// NewValue returns a URL-safe token value with 128 bits of entropy from the
// platform CSPRNG. Values carry no information about the candidate, the
// issuing time, or any other record field.
func NewValue() (string, error) {
	buf := make([]byte, valueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
