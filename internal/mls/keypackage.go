package mls

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/germtb/sgmagent/internal/hexbytes"
	"github.com/germtb/sgmagent/internal/keys"
)

// KeyPackage is a signed, publishable bundle advertising a member's
// credential and a fresh init key other members can encrypt Welcomes to.
type KeyPackage struct {
	CredentialWithKey CredentialWithKey `json:"credential_with_key"`
	InitPub           hexbytes.HexBytes `json:"init_pub"`
	Capabilities      Capabilities      `json:"capabilities"`
	LastResort        bool              `json:"last_resort"`
	Ciphersuite       Ciphersuite       `json:"ciphersuite"`
	ProtocolVersion   ProtocolVersion   `json:"protocol_version"`
	Signature         hexbytes.HexBytes `json:"signature"`
}

// signedFields mirrors KeyPackage without the Signature field, so signing
// and verification operate over the same deterministic byte string.
type signedFields struct {
	CredentialWithKey CredentialWithKey
	InitPub           hexbytes.HexBytes
	Capabilities      Capabilities
	LastResort        bool
	Ciphersuite       Ciphersuite
	ProtocolVersion   ProtocolVersion
}

func (kp KeyPackage) signingBytes() ([]byte, error) {
	data, err := json.Marshal(signedFields{
		CredentialWithKey: kp.CredentialWithKey,
		InitPub:           kp.InitPub,
		Capabilities:      kp.Capabilities,
		LastResort:        kp.LastResort,
		Ciphersuite:       kp.Ciphersuite,
		ProtocolVersion:   kp.ProtocolVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal key package signing fields: %w", err)
	}
	return data, nil
}

// GenerateInitKey generates a fresh X25519 init key pair for a leaf node.
func GenerateInitKey() (priv, pub hexbytes.HexBytes, err error) {
	initPriv := make([]byte, 32)
	if _, err := rand.Read(initPriv); err != nil {
		return nil, nil, fmt.Errorf("generate init key: %w", err)
	}
	initPub, err := curve25519.X25519(initPriv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("derive init public key: %w", err)
	}
	return hexbytes.HexBytes(initPriv), hexbytes.HexBytes(initPub), nil
}

// BuildKeyPackage advertises pid with a fresh init key, signed by signer.
// It returns the key package and the matching init private key, which the
// caller must retain to decrypt any Welcome later addressed to it.
func BuildKeyPackage(pid string, signer keys.SignatureKeyPair, cs Ciphersuite, pv ProtocolVersion) (KeyPackage, hexbytes.HexBytes, error) {
	initPriv, initPub, err := GenerateInitKey()
	if err != nil {
		return KeyPackage{}, nil, err
	}

	kp := KeyPackage{
		CredentialWithKey: CredentialWithKey{
			Credential:   NewBasicCredential(pid),
			SignatureKey: hexbytes.HexBytes(signer.PublicKey()),
		},
		InitPub:         initPub,
		Capabilities:    DefaultCapabilities(),
		LastResort:      true,
		Ciphersuite:     cs,
		ProtocolVersion: pv,
	}
	signingBytes, err := kp.signingBytes()
	if err != nil {
		return KeyPackage{}, nil, err
	}
	kp.Signature = signer.Sign(signingBytes)
	return kp, initPriv, nil
}

// Validate checks the key package's signature and that it is pinned to
// the ciphersuite and protocol version the caller expects (spec.md §4.4
// Phase A step 3).
func (kp KeyPackage) Validate(wantCiphersuite Ciphersuite, wantProtocolVersion ProtocolVersion) error {
	if kp.Ciphersuite != wantCiphersuite {
		return fmt.Errorf("mls: key package ciphersuite %q does not match %q", kp.Ciphersuite, wantCiphersuite)
	}
	if kp.ProtocolVersion != wantProtocolVersion {
		return fmt.Errorf("mls: key package protocol version %q does not match %q", kp.ProtocolVersion, wantProtocolVersion)
	}
	if len(kp.CredentialWithKey.SignatureKey) != ed25519.PublicKeySize {
		return fmt.Errorf("mls: key package signature key has wrong length")
	}
	signingBytes, err := kp.signingBytes()
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(kp.CredentialWithKey.SignatureKey), signingBytes, kp.Signature) {
		return fmt.Errorf("mls: key package signature invalid")
	}
	return nil
}

// Pid returns the pid the key package advertises.
func (kp KeyPackage) Pid() string {
	return kp.CredentialWithKey.Credential.Pid()
}
