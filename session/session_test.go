package session

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Minute)}

	if s.Expired(now) {
		t.Fatal("expected session to be valid before its expiry")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("expected session to be expired after its expiry")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := generateSecureToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := generateSecureToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}

	raw, err := base64.URLEncoding.DecodeString(a)
	if err != nil {
		t.Fatalf("token is not url-safe base64: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 random bytes, got %d", len(raw))
	}
}

func TestHashToken(t *testing.T) {
	token, err := generateSecureToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	digest := hashToken(token)
	if digest == token {
		t.Fatal("expected the digest to differ from the token")
	}
	if len(digest) != 64 {
		t.Fatalf("expected a hex sha256 digest, got %d chars", len(digest))
	}
	if hashToken(token) != digest {
		t.Fatal("expected hashing to be deterministic")
	}
}
