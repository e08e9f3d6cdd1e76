// Package keys provides the agent's long-lived signature identity.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/germtb/sgmagent/internal/hexbytes"
)

// SignatureScheme identifies the signature algorithm backing a key pair.
// The agent pins MLS_128_DHKEMX25519_CHACHA20POLY1305_SHA256_ED25519, which
// fixes this to Ed25519; the field is kept named rather than hardcoded so
// the ciphersuite choice stays visible at the point of use.
const SignatureScheme = "ed25519"

// SignatureKeyPair is the agent's own signing identity. Private is never
// rotated in place; a rotation means generating a fresh pair and changing
// pid, exactly like a reset.
type SignatureKeyPair struct {
	Private hexbytes.HexBytes `json:"private"`
	Public  hexbytes.HexBytes `json:"public"`
	Scheme  string            `json:"signature_scheme"`
}

// Generate creates a fresh Ed25519 signature key pair.
func Generate() (SignatureKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SignatureKeyPair{}, fmt.Errorf("generate signature key pair: %w", err)
	}
	return SignatureKeyPair{
		Private: hexbytes.HexBytes(priv),
		Public:  hexbytes.HexBytes(pub),
		Scheme:  SignatureScheme,
	}, nil
}

// FromPrivateKey rebuilds a SignatureKeyPair from a raw Ed25519 private
// key, recovering the public half from it (used by internal/backup when
// importing a previously exported identity).
func FromPrivateKey(priv ed25519.PrivateKey) (SignatureKeyPair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return SignatureKeyPair{}, fmt.Errorf("import signature key pair: wrong private key size %d", len(priv))
	}
	pub := priv.Public().(ed25519.PublicKey)
	return SignatureKeyPair{
		Private: hexbytes.HexBytes(priv),
		Public:  hexbytes.HexBytes(pub),
		Scheme:  SignatureScheme,
	}, nil
}

// PrivateKey returns the raw Ed25519 private key.
func (k SignatureKeyPair) PrivateKey() ed25519.PrivateKey {
	return ed25519.PrivateKey(k.Private)
}

// PublicKey returns the raw Ed25519 public key.
func (k SignatureKeyPair) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(k.Public)
}

// Sign signs payload with the private key.
func (k SignatureKeyPair) Sign(payload []byte) []byte {
	return ed25519.Sign(k.PrivateKey(), payload)
}

// Verify checks a signature produced by the matching private key.
func (k SignatureKeyPair) Verify(payload, signature []byte) bool {
	return ed25519.Verify(k.PublicKey(), payload, signature)
}

// ShortFingerprint returns the first 3 hex characters of the public key,
// used to disambiguate pids and transformed group ids (spec.md §4.5).
func (k SignatureKeyPair) ShortFingerprint() string {
	enc := k.Public.String()
	if len(enc) < 3 {
		return enc
	}
	return enc[:3]
}
