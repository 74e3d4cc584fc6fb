package ledger

import (
	"fmt"
	"io"
)

const (
	idAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idTokenLength = 5
	idMaxAttempts = 20

	// bytes at or above this value are rejected to keep the draw unbiased
	idByteCeiling = 256 - 256%len(idAlphabet)
)

// GenerateID returns "<prefix>-XXXXX" drawn from entropy, retrying while
// exists reports a collision.
func GenerateID(entropy io.Reader, prefix string, exists func(string) bool) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}
	for i := 0; i < idMaxAttempts; i++ {
		token, err := randomToken(entropy, idTokenLength)
		if err != nil {
			return "", err
		}
		id := prefix + "-" + token
		if exists == nil || !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("unable to generate unique id")
}

func randomToken(entropy io.Reader, length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(entropy, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= idByteCeiling {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
