// Package signer handles Ed25519 signing of session evidence: flushed
// event batches and completed session logs are signed so a reviewer
// can verify the stream was not edited after capture.
package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"proctord/internal/session"
)

// Errors
var (
	ErrBadKey       = errors.New("signer: not a usable signing key")
	ErrKeyEncrypted = errors.New("signer: key is passphrase-protected")
)

// LoadPrivateKey reads the session signing key. A bare key file is
// taken by length (32-byte seed or 64-byte private key); anything
// else must be an unencrypted OpenSSH PEM wrapping an Ed25519 key.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("signer: read key: %w", err)
	}
	switch len(keyData) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(keyData), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(keyData), nil
	}
	if block, _ := pem.Decode(keyData); block == nil {
		return nil, fmt.Errorf("%w: neither raw bytes nor PEM", ErrBadKey)
	}
	parsed, err := ssh.ParseRawPrivateKey(keyData)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, ErrKeyEncrypted
		}
		return nil, fmt.Errorf("signer: parse key: %w", err)
	}
	switch k := parsed.(type) {
	case ed25519.PrivateKey:
		return k, nil
	case *ed25519.PrivateKey:
		return *k, nil
	}
	return nil, fmt.Errorf("%w: want Ed25519, got %T", ErrBadKey, parsed)
}

// Signature couples a digest with its detached signature, both
// base64 for transport.
type Signature struct {
	Digest    string `json:"digest"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// SignEvents signs the canonical JSON encoding of an event batch.
func SignEvents(key ed25519.PrivateKey, events []session.Event) (*Signature, error) {
	data, err := session.EncodeEvents(events)
	if err != nil {
		return nil, fmt.Errorf("signer: encode events: %w", err)
	}
	digest := sha256.Sum256(data)
	sig := ed25519.Sign(key, digest[:])
	pub := key.Public().(ed25519.PublicKey)
	return &Signature{
		Digest:    base64.StdEncoding.EncodeToString(digest[:]),
		Signature: base64.StdEncoding.EncodeToString(sig),
		PublicKey: base64.StdEncoding.EncodeToString(pub),
	}, nil
}

// Verify checks a detached signature over an event batch.
func Verify(sig *Signature, events []session.Event) error {
	data, err := session.EncodeEvents(events)
	if err != nil {
		return fmt.Errorf("signer: encode events: %w", err)
	}
	digest := sha256.Sum256(data)
	wantDigest, err := base64.StdEncoding.DecodeString(sig.Digest)
	if err != nil {
		return fmt.Errorf("signer: decode digest: %w", err)
	}
	if string(wantDigest) != string(digest[:]) {
		return errors.New("signer: digest mismatch (events modified)")
	}
	pub, err := base64.StdEncoding.DecodeString(sig.PublicKey)
	if err != nil {
		return fmt.Errorf("signer: decode public key: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return fmt.Errorf("signer: decode signature: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], raw) {
		return errors.New("signer: signature invalid")
	}
	return nil
}
