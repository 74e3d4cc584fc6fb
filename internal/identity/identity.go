// Package identity turns caller wallet identities into storage keys.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"morphire/internal/models"
)

const (
	// MinLength is the shortest identity accepted at the boundary.
	MinLength = 10

	keyLength = 16
)

// StorageKey locates one identity's document. It is never the identity itself.
type StorageKey string

func (k StorageKey) String() string { return string(k) }

// FileName is the on-disk name used by the file document backend.
func (k StorageKey) FileName() string {
	return "morphire-" + string(k) + ".json"
}

// DeriveKey returns the first 16 hex characters of SHA-256(identity).
// Surrounding whitespace is ignored, as in Validate.
func DeriveKey(identity string) StorageKey {
	sum := sha256.Sum256([]byte(strings.TrimSpace(identity)))
	return StorageKey(hex.EncodeToString(sum[:])[:keyLength])
}

// Validate rejects identities too short to be a wallet address.
func Validate(identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return models.Invalid("identity", "is required")
	}
	if len(identity) < MinLength {
		return models.Invalid("identity", "must be at least %d characters", MinLength)
	}
	return nil
}

// Short renders identity as "abcdef...wxyz" for display and logs.
func Short(identity string) string {
	if len(identity) <= MinLength {
		return identity
	}
	return identity[:6] + "..." + identity[len(identity)-4:]
}
