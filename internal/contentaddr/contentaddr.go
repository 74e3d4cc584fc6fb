// Package contentaddr maps deliverable payloads to content identifiers.
//
// Two backends implement Store: Simulated hashes bytes locally and Delegated
// pins them with an external service, falling back to Simulated on any
// failure. Callers receive an already-selected Store and never branch on
// which backend is active.
package contentaddr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"
)

const (
	ModeSimulated = "simulated"
	ModeDelegated = "pinata"

	simulatedPrefix    = "Qm"
	simulatedHexLength = 44
)

// Store returns the content identifier for data.
type Store interface {
	Store(ctx context.Context, data []byte, filename string) (string, error)
}

// Options selects and configures a backend.
type Options struct {
	APIKey   string
	Secret   string
	Endpoint string
	Timeout  time.Duration
}

// Delegates reports whether opts carry the full credential pair.
func (o Options) Delegates() bool {
	return strings.TrimSpace(o.APIKey) != "" && strings.TrimSpace(o.Secret) != ""
}

// SimulatedCID returns "Qm" followed by the first 44 hex characters of
// SHA-256(data). Identical bytes always yield the identical id.
func SimulatedCID(data []byte) string {
	sum := sha256.Sum256(data)
	return simulatedPrefix + hex.EncodeToString(sum[:])[:simulatedHexLength]
}

// IsSimulatedCID reports whether id has the simulated format.
func IsSimulatedCID(id string) bool {
	if len(id) != len(simulatedPrefix)+simulatedHexLength || !strings.HasPrefix(id, simulatedPrefix) {
		return false
	}
	_, err := hex.DecodeString(id[len(simulatedPrefix):])
	return err == nil
}

// New returns the Delegated backend when opts carry both credentials and the
// Simulated backend otherwise. The returned string names the active mode.
func New(opts Options, simulated *Simulated, logger *slog.Logger) (Store, string) {
	if simulated == nil {
		simulated = NewSimulated(nil, logger)
	}
	if !opts.Delegates() {
		return simulated, ModeSimulated
	}
	return NewDelegated(opts, simulated, logger), ModeDelegated
}
