// Package mls is a self-contained implementation providing MLS-like
// semantics (credentials, key packages, epoch advancement, exporter
// secrets, member add/remove/update) using Ed25519 + X25519 + HKDF. It can
// be replaced with a forked emersion/go-mls once that library exposes the
// required methods (Epoch, ExportSecret, Marshal/Unmarshal, Remove).
package mls

import (
	"strings"

	"github.com/germtb/sgmagent/internal/hexbytes"
)

// Ciphersuite names the MLS ciphersuite an agent is pinned to.
type Ciphersuite string

// CiphersuiteMLS128DHKEMX25519ChaCha20Poly1305SHA256Ed25519 is the only
// ciphersuite this agent speaks; it fixes the signature scheme to Ed25519.
const CiphersuiteMLS128DHKEMX25519ChaCha20Poly1305SHA256Ed25519 Ciphersuite = "MLS_128_DHKEMX25519_CHACHA20POLY1305_SHA256_ED25519"

// ProtocolVersion names the MLS wire protocol version.
type ProtocolVersion string

// ProtocolVersionMLS10 is the only protocol version this agent speaks.
const ProtocolVersionMLS10 ProtocolVersion = "mls10"

// CredentialType names the shape of a Credential.
type CredentialType string

// CredentialTypeBasic is the only credential type this agent issues: a
// pid with no external identity proof.
const CredentialTypeBasic CredentialType = "basic"

// Credential identifies a member by pid with no external proof of identity.
type Credential struct {
	Type     CredentialType    `json:"type"`
	Identity hexbytes.HexBytes `json:"identity"`
}

// NewBasicCredential builds a Credential carrying pid as its identity.
func NewBasicCredential(pid string) Credential {
	return Credential{Type: CredentialTypeBasic, Identity: hexbytes.HexBytes(pid)}
}

// Pid returns the credential's identity interpreted as a UTF-8 pid,
// lossily if the bytes are not valid UTF-8.
func (c Credential) Pid() string {
	return strings.ToValidUTF8(string(c.Identity), "�")
}

// CredentialWithKey binds a Credential to the signature public key that
// backs it.
type CredentialWithKey struct {
	Credential   Credential        `json:"credential"`
	SignatureKey hexbytes.HexBytes `json:"signature_key"`
}

// ExtensionType names a leaf-node extension a member may advertise.
type ExtensionType string

// ExtensionTypeLastResort marks a key package as the fallback used when no
// better key package is available (spec.md §4.1 advertise semantics).
const ExtensionTypeLastResort ExtensionType = "last_resort"

// Capabilities lists the extensions and credential types a member supports.
type Capabilities struct {
	Extensions  []ExtensionType  `json:"extensions"`
	Credentials []CredentialType `json:"credentials"`
}

// DefaultCapabilities returns the capability set every agent advertises.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		Extensions:  []ExtensionType{ExtensionTypeLastResort},
		Credentials: []CredentialType{CredentialTypeBasic},
	}
}
