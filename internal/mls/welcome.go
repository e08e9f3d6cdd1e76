package mls

import (
	"encoding/json"
	"fmt"

	"github.com/germtb/sgmagent/internal/crypto"
)

// JoinFromWelcome decrypts a Welcome message with the recipient's own init
// private key and builds the Group it describes (spec.md §4.4 Phase B).
// A decryption failure here is exactly "the welcome is not intended for
// us" (spec.md §4.4 Phase B step 3) and is returned wrapped with a
// "welcome not intended for us" prefix; a wrong message kind or an
// undecodable plaintext produces a differently worded error.
func JoinFromWelcome(msg Message, ownInitPriv []byte) (*Group, error) {
	if err := msg.ExpectKind(MessageKindWelcome); err != nil {
		return nil, fmt.Errorf("mls: join from welcome: %w", err)
	}
	plaintext, err := crypto.DecryptWelcome(ownInitPriv, msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("mls: welcome not intended for us: %w", err)
	}
	var wd welcomeDocument
	if err := json.Unmarshal(plaintext, &wd); err != nil {
		return nil, fmt.Errorf("mls: unmarshal welcome: %w", err)
	}
	return &Group{
		doc: groupDocument{
			GroupID:         wd.GroupID,
			Epoch:           wd.Epoch,
			EpochSecret:     wd.EpochSecret,
			Members:         wd.Members,
			OwnLeafIndex:    wd.LeafIndex,
			Ciphersuite:     wd.Ciphersuite,
			ProtocolVersion: wd.ProtocolVersion,
		},
	}, nil
}
