// Package backup exports and imports an agent's Ed25519 signature
// identity as a passphrase-encrypted PEM block, letting an operator move
// an agent between hosts without hand-copying the hex-encoded key pair
// out of the state document (spec.md §7 does not cover this; grounded on
// the teacher's internal/crypto/signing.go PKCS8 pattern and on
// original_source/.../keys.rs's raw key byte layout).
package backup

import (
	"fmt"

	"github.com/germtb/sgmagent/internal/crypto"
	"github.com/germtb/sgmagent/internal/keys"
)

// ExportIdentity encodes kp's private key as a PEM block, encrypted with
// passphrase if non-empty.
func ExportIdentity(kp keys.SignatureKeyPair, passphrase []byte) (string, error) {
	pemText, err := crypto.PrivateKeyToPEM(kp.PrivateKey(), passphrase)
	if err != nil {
		return "", fmt.Errorf("backup: export identity: %w", err)
	}
	return pemText, nil
}

// ImportIdentity decodes a PEM block previously produced by
// ExportIdentity back into a SignatureKeyPair. If passphrase is nil, the
// SGMAGENT_PASSPHRASE environment variable is tried, matching
// crypto.LoadPrivateKey's fallback.
func ImportIdentity(pemText string, passphrase []byte) (keys.SignatureKeyPair, error) {
	priv, err := crypto.LoadPrivateKey(pemText, passphrase)
	if err != nil {
		return keys.SignatureKeyPair{}, fmt.Errorf("backup: import identity: %w", err)
	}
	return keys.FromPrivateKey(priv)
}
