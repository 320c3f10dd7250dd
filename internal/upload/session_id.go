package upload

import (
	"crypto/rand"
	"fmt"
)

const sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSessionID returns a random alphanumeric id of the given length.
// Bytes at or above the largest multiple of the alphabet size are discarded
// so every symbol is equally likely.
func GenerateSessionID(length int) (string, error) {
	const limit = 256 - 256%len(sessionIDAlphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, sessionIDAlphabet[int(b)%len(sessionIDAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
