package signer

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"proctord/internal/session"
)

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i * 7)
	}
	return ed25519.NewKeyFromSeed(seed)
}

func testEvents() []session.Event {
	return []session.Event{
		session.KeyEvent(100, "a", nil),
		session.CommandEvent(200, "ls", 0),
	}
}

func TestSignAndVerify(t *testing.T) {
	key := testKey(t)
	events := testEvents()
	sig, err := SignEvents(key, events)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := Verify(sig, events); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	key := testKey(t)
	events := testEvents()
	sig, err := SignEvents(key, events)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := append([]session.Event{}, events...)
	tampered[1].ExitCode = 1
	if err := Verify(sig, tampered); err == nil {
		t.Error("tampered events verified")
	}
}

func TestLoadPrivateKeyRawSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed")
	seed := make([]byte, ed25519.SeedSize)
	if err := os.WriteFile(path, seed, 0o600); err != nil {
		t.Fatal(err)
	}
	key, err := LoadPrivateKey(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(key) != ed25519.PrivateKeySize {
		t.Errorf("key size = %d", len(key))
	}
}

func TestLoadPrivateKeyRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk")
	if err := os.WriteFile(path, []byte("not a key at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrivateKey(path); err == nil {
		t.Error("garbage key accepted")
	}
}
