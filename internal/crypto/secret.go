package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// GenerateSecret returns n random bytes encoded as URL-safe base64.
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("length must be positive")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
