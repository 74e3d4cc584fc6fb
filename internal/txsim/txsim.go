// Package txsim produces simulated on-chain settlement references.
package txsim

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	referencePrefix = "5x"
	referenceMarker = "...MorphireSim"
	digestChars     = 40
	entropyBytes    = 8
)

// Simulator generates settlement references that are unique per call but
// not verifiable against any real ledger.
type Simulator struct {
	entropy io.Reader
	now     func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithEntropy replaces crypto/rand as the random source.
func WithEntropy(r io.Reader) Option {
	return func(s *Simulator) { s.entropy = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{entropy: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reference returns "5x" + 40 hex chars + "...MorphireSim".
func (s *Simulator) Reference() (string, error) {
	random := make([]byte, entropyBytes)
	if _, err := io.ReadFull(s.entropy, random); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}

	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(s.now().UnixNano()))

	h := sha256.New()
	h.Write(stamp[:])
	h.Write(random)
	digest := hex.EncodeToString(h.Sum(nil))
	return referencePrefix + digest[:digestChars] + referenceMarker, nil
}

// IsSimulated reports whether ref was produced by a Simulator.
func IsSimulated(ref string) bool {
	return strings.HasPrefix(ref, referencePrefix) && strings.HasSuffix(ref, referenceMarker) &&
		len(ref) == len(referencePrefix)+digestChars+len(referenceMarker)
}
