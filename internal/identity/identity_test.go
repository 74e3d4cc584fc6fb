package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"
)

var keyPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestDeriveKeyDeterministic(t *testing.T) {
	identities := []string{
		"SoL1234567890abcdef",
		"0123456789",
		"wallet-with-unicode-ß-and-more",
	}
	for _, id := range identities {
		first := DeriveKey(id)
		for i := 0; i < 5; i++ {
			if got := DeriveKey(id); got != first {
				t.Fatalf("key for %q changed: %s != %s", id, got, first)
			}
		}
		if !keyPattern.MatchString(first.String()) {
			t.Fatalf("unexpected key format %q", first)
		}
	}
}

func TestDeriveKeyMatchesTruncatedSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("SoLabcdefghijk"))
	want := hex.EncodeToString(sum[:])[:16]
	if got := DeriveKey("SoLabcdefghijk"); got.String() != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestDeriveKeyIgnoresSurroundingSpace(t *testing.T) {
	want := DeriveKey("SoLabcdefghijk")
	for _, raw := range []string{" SoLabcdefghijk", "SoLabcdefghijk\n", "\tSoLabcdefghijk  "} {
		if got := DeriveKey(raw); got != want {
			t.Fatalf("DeriveKey(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestDeriveKeyDistinct(t *testing.T) {
	seen := map[StorageKey]string{}
	for i := 0; i < 1000; i++ {
		id := "SoLwallet-" + string(rune('a'+i%26)) + hex.EncodeToString([]byte{byte(i >> 8), byte(i)})
		key := DeriveKey(id)
		if prev, ok := seen[key]; ok && prev != id {
			t.Fatalf("collision between %q and %q", prev, id)
		}
		seen[key] = id
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace", raw: "          ", wantErr: true},
		{name: "too short", raw: "SoL12345", wantErr: true},
		{name: "exactly minimum", raw: "SoL1234567"},
		{name: "long", raw: "SoLabcdefghijklmnopqrstuvwxyz0123456789ABCD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.raw)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFileNameAndShort(t *testing.T) {
	key := StorageKey("0123456789abcdef")
	if key.FileName() != "morphire-0123456789abcdef.json" {
		t.Fatalf("unexpected file name %q", key.FileName())
	}
	if got := Short("SoLabcdefghijklmnop"); got != "SoLabc...mnop" {
		t.Fatalf("unexpected short form %q", got)
	}
}
