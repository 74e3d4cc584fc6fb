// Package auth implements the optional access passphrase gate.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPassphraseLength = 8

// ValidatePassphrase checks minimal passphrase requirements.
func ValidatePassphrase(passphrase string) error {
	if len(passphrase) < minPassphraseLength {
		return fmt.Errorf("passphrase must be at least %d characters", minPassphraseLength)
	}
	return nil
}

// HashPassphrase hashes one plaintext passphrase for the access.passphrase_hash setting.
func HashPassphrase(passphrase string) (string, error) {
	if err := ValidatePassphrase(passphrase); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassphrase verifies a plaintext passphrase against a bcrypt hash.
func VerifyPassphrase(passphraseHash, candidate string) bool {
	if strings.TrimSpace(passphraseHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passphraseHash), []byte(candidate)) == nil
}

// Gate admits requests carrying the configured passphrase. A gate with no
// hash admits everything.
type Gate struct {
	hash string
}

func NewGate(passphraseHash string) (*Gate, error) {
	passphraseHash = strings.TrimSpace(passphraseHash)
	if passphraseHash != "" {
		if _, err := bcrypt.Cost([]byte(passphraseHash)); err != nil {
			return nil, fmt.Errorf("access passphrase hash is not a bcrypt hash: %w", err)
		}
	}
	return &Gate{hash: passphraseHash}, nil
}

// Enabled reports whether a passphrase is required.
func (g *Gate) Enabled() bool {
	return g != nil && g.hash != ""
}

// Admit reports whether candidate opens the gate.
func (g *Gate) Admit(candidate string) bool {
	if !g.Enabled() {
		return true
	}
	return VerifyPassphrase(g.hash, candidate)
}
