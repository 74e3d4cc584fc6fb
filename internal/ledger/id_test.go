package ledger

import (
	"bytes"
	"crypto/rand"
	"regexp"
	"testing"
)

var idPattern = regexp.MustCompile(`^MF-[A-Z0-9]{5}$`)

func TestGenerateID(t *testing.T) {
	t.Run("valid prefix", func(t *testing.T) {
		id, err := GenerateID(rand.Reader, "MF", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !idPattern.MatchString(id) {
			t.Fatalf("unexpected id %q", id)
		}
	})

	t.Run("empty prefix", func(t *testing.T) {
		if _, err := GenerateID(rand.Reader, "", nil); err == nil {
			t.Fatal("expected error for empty prefix")
		}
	})

	t.Run("retries on collision", func(t *testing.T) {
		calls := 0
		exists := func(id string) bool {
			calls++
			return calls < 3
		}
		id, err := GenerateID(rand.Reader, "MF", exists)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id == "" || calls != 3 {
			t.Fatalf("expected 3 attempts, got %d (id %q)", calls, id)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		if _, err := GenerateID(rand.Reader, "MF", func(string) bool { return true }); err == nil {
			t.Fatal("expected error after max attempts")
		}
	})

	t.Run("deterministic entropy", func(t *testing.T) {
		id, err := GenerateID(bytes.NewReader([]byte{0, 1, 2, 26, 35}), "JOB", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "JOB-ABC09" {
			t.Fatalf("expected JOB-ABC09, got %q", id)
		}
	})

	t.Run("skips biased bytes", func(t *testing.T) {
		id, err := GenerateID(bytes.NewReader([]byte{255, 254, 253, 252, 0, 0, 0, 0, 0, 0}), "MF", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "MF-AAAAA" {
			t.Fatalf("expected MF-AAAAA, got %q", id)
		}
	})

	t.Run("exhausted entropy", func(t *testing.T) {
		if _, err := GenerateID(bytes.NewReader([]byte{1}), "MF", nil); err == nil {
			t.Fatal("expected error for exhausted entropy")
		}
	})
}
