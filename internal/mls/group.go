package mls

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/germtb/sgmagent/internal/crypto"
	"github.com/germtb/sgmagent/internal/hexbytes"
)

// evictedSubstring and useAfterEvictionSubstring are the sentinel error
// substrings the sync loop matches against (spec.md §4.4, §9). They are
// kept as substrings rather than typed errors because the ingestion
// contract itself is specified in terms of substring matching.
const (
	evictedSubstring          = "evict"
	useAfterEvictionSubstring = "UseAfterEviction"
)

// Member is one roster entry, exposed read-only from Group.Members.
type Member struct {
	LeafIndex         int               `json:"leaf_index"`
	CredentialWithKey CredentialWithKey `json:"credential_with_key"`
	InitPub           hexbytes.HexBytes `json:"init_pub"`
	Active            bool              `json:"active"`
}

// Pid returns the member's pid.
func (m Member) Pid() string {
	return m.CredentialWithKey.Credential.Pid()
}

// groupDocument is the serializable state of a group: both the local
// record and the wire form of a Commit.
type groupDocument struct {
	GroupID         string          `json:"group_id"`
	Epoch           uint64          `json:"epoch"`
	EpochSecret     hexbytes.HexBytes `json:"epoch_secret"`
	Members         []Member        `json:"members"`
	OwnLeafIndex    int             `json:"own_leaf_index"`
	Ciphersuite     Ciphersuite     `json:"ciphersuite"`
	ProtocolVersion ProtocolVersion `json:"protocol_version"`
}

// welcomeDocument is the plaintext carried inside a Welcome, before
// per-recipient ECIES encryption.
type welcomeDocument struct {
	GroupID         string          `json:"group_id"`
	Epoch           uint64          `json:"epoch"`
	EpochSecret     hexbytes.HexBytes `json:"epoch_secret"`
	Members         []Member        `json:"members"`
	LeafIndex       int             `json:"leaf_index"`
	Ciphersuite     Ciphersuite     `json:"ciphersuite"`
	ProtocolVersion ProtocolVersion `json:"protocol_version"`
}

// Group is one MLS group's full state: roster, epoch, and current epoch
// secret. A Group is loaded from the agent's Store at the start of an
// operation and saved back at the end; it is never held across
// invocations (spec.md §9).
type Group struct {
	doc groupDocument
}

// NewGroup creates a new group with the caller as its sole member at leaf
// index 0 (spec.md §4.5 create-group).
func NewGroup(gid string, creator CredentialWithKey, creatorInitPub hexbytes.HexBytes, cs Ciphersuite, pv ProtocolVersion) (*Group, error) {
	epochSecret := make([]byte, 32)
	if _, err := rand.Read(epochSecret); err != nil {
		return nil, fmt.Errorf("mls: generate initial epoch secret: %w", err)
	}
	return &Group{
		doc: groupDocument{
			GroupID:     gid,
			Epoch:       0,
			EpochSecret: epochSecret,
			Members: []Member{{
				LeafIndex:         0,
				CredentialWithKey: creator,
				InitPub:           creatorInitPub,
				Active:            true,
			}},
			OwnLeafIndex:    0,
			Ciphersuite:     cs,
			ProtocolVersion: pv,
		},
	}, nil
}

// Load reads a group's document out of store. ok is false if gid is not
// present.
func Load(store Store, gid string) (g *Group, ok bool, err error) {
	raw, present := store.Get(groupStoreKey(gid))
	if !present {
		return nil, false, nil
	}
	var doc groupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("mls: unmarshal group %q: %w", gid, err)
	}
	return &Group{doc: doc}, true, nil
}

// Save writes the group's document back into store.
func (g *Group) Save(store Store) error {
	data, err := json.Marshal(g.doc)
	if err != nil {
		return fmt.Errorf("mls: marshal group %q: %w", g.doc.GroupID, err)
	}
	store.Set(groupStoreKey(g.doc.GroupID), data)
	return nil
}

// Delete removes the group's document from store.
func (g *Group) Delete(store Store) {
	store.Delete(groupStoreKey(g.doc.GroupID))
}

// GroupID returns the group's transformed id.
func (g *Group) GroupID() string { return g.doc.GroupID }

// Epoch returns the current epoch number.
func (g *Group) Epoch() uint64 { return g.doc.Epoch }

// OwnLeafIndex returns the caller's leaf index in this group.
func (g *Group) OwnLeafIndex() int { return g.doc.OwnLeafIndex }

// Members returns every currently active member.
func (g *Group) Members() []Member {
	out := make([]Member, 0, len(g.doc.Members))
	for _, m := range g.doc.Members {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// ownActive reports whether the caller's own leaf is still active in the
// roster, i.e. whether the caller has not been evicted.
func (g *Group) ownActive() bool {
	return g.doc.OwnLeafIndex >= 0 &&
		g.doc.OwnLeafIndex < len(g.doc.Members) &&
		g.doc.Members[g.doc.OwnLeafIndex].Active
}

// advanceEpoch derives the next epoch secret via HKDF-SHA256 keyed on the
// current secret, salted with the big-endian old epoch number, exactly as
// the chain this package is modeled on (internal/mls/group.go,
// internal/mls/epoch.go in the teacher repo).
func (g *Group) advanceEpoch() error {
	epochBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(epochBytes, g.doc.Epoch)
	r := hkdf.New(sha256.New, g.doc.EpochSecret, epochBytes, []byte("sgmagent-epoch-advance"))
	newSecret := make([]byte, 32)
	if _, err := io.ReadFull(r, newSecret); err != nil {
		return fmt.Errorf("mls: advance epoch: %w", err)
	}
	g.doc.EpochSecret = newSecret
	g.doc.Epoch++
	return nil
}

// AddMembersWithoutSelfUpdate adds each key package as a new leaf,
// advances the epoch once, and produces one Welcome per new member,
// individually ECIES-encrypted to that member's InitPub (spec.md §4.5
// group add). The caller's own leaf does not rotate its init key, hence
// "without self update".
func (g *Group) AddMembersWithoutSelfUpdate(keyPackages []KeyPackage) (commit Message, welcomes []Message, err error) {
	if len(keyPackages) == 0 {
		return Message{}, nil, fmt.Errorf("mls: add requires at least one key package")
	}

	newLeafIndexes := make([]int, 0, len(keyPackages))
	for _, kp := range keyPackages {
		if err := kp.Validate(g.doc.Ciphersuite, g.doc.ProtocolVersion); err != nil {
			return Message{}, nil, fmt.Errorf("mls: add member: %w", err)
		}
		leafIndex := len(g.doc.Members)
		g.doc.Members = append(g.doc.Members, Member{
			LeafIndex:         leafIndex,
			CredentialWithKey: kp.CredentialWithKey,
			InitPub:           kp.InitPub,
			Active:            true,
		})
		newLeafIndexes = append(newLeafIndexes, leafIndex)
	}

	if err := g.advanceEpoch(); err != nil {
		return Message{}, nil, err
	}

	commitPayload, err := json.Marshal(g.doc)
	if err != nil {
		return Message{}, nil, fmt.Errorf("mls: marshal commit: %w", err)
	}
	commit = Message{Kind: MessageKindCommit, Payload: commitPayload}

	welcomes = make([]Message, 0, len(newLeafIndexes))
	for i, leafIndex := range newLeafIndexes {
		kp := keyPackages[i]
		wd := welcomeDocument{
			GroupID:         g.doc.GroupID,
			Epoch:           g.doc.Epoch,
			EpochSecret:     g.doc.EpochSecret,
			Members:         g.doc.Members,
			LeafIndex:       leafIndex,
			Ciphersuite:     g.doc.Ciphersuite,
			ProtocolVersion: g.doc.ProtocolVersion,
		}
		plaintext, err := json.Marshal(wd)
		if err != nil {
			return Message{}, nil, fmt.Errorf("mls: marshal welcome: %w", err)
		}
		ciphertext, err := crypto.EncryptWelcome(kp.InitPub, plaintext)
		if err != nil {
			return Message{}, nil, fmt.Errorf("mls: encrypt welcome for %q: %w", kp.Pid(), err)
		}
		welcomes = append(welcomes, Message{Kind: MessageKindWelcome, Payload: ciphertext})
	}

	return commit, welcomes, nil
}

// RemoveMembers marks each leaf index inactive and advances the epoch
// once. A pure removal never produces a Welcome; the return value keeps
// the optional-welcome shape of the operation this is grounded on
// (original_source/.../main.rs's GroupCommands::Remove) for symmetry with
// Add and Update.
func (g *Group) RemoveMembers(leafIndexes []int) (commit Message, welcome *Message, err error) {
	if len(leafIndexes) == 0 {
		return Message{}, nil, fmt.Errorf("mls: remove requires at least one leaf index")
	}
	for _, idx := range leafIndexes {
		if idx < 0 || idx >= len(g.doc.Members) || !g.doc.Members[idx].Active {
			return Message{}, nil, fmt.Errorf("mls: leaf index %d is not an active member", idx)
		}
		if idx == g.doc.OwnLeafIndex {
			return Message{}, nil, fmt.Errorf("mls: cannot remove own leaf index %d", idx)
		}
	}
	for _, idx := range leafIndexes {
		g.doc.Members[idx].Active = false
	}

	if err := g.advanceEpoch(); err != nil {
		return Message{}, nil, err
	}

	commitPayload, err := json.Marshal(g.doc)
	if err != nil {
		return Message{}, nil, fmt.Errorf("mls: marshal commit: %w", err)
	}
	return Message{Kind: MessageKindCommit, Payload: commitPayload}, nil, nil
}

// SelfUpdate rotates the caller's own leaf init key without touching the
// agent's long-lived signature identity (spec.md §3 invariant) and
// advances the epoch. The new init private key is scoped to this one
// group's roster entry, distinct from the agent's globally-advertised
// key package; callers that have no use for it may discard it.
func (g *Group) SelfUpdate() (commit Message, newInitPriv hexbytes.HexBytes, err error) {
	initPriv, initPub, err := GenerateInitKey()
	if err != nil {
		return Message{}, nil, err
	}
	g.doc.Members[g.doc.OwnLeafIndex].InitPub = initPub

	if err := g.advanceEpoch(); err != nil {
		return Message{}, nil, err
	}

	commitPayload, err := json.Marshal(g.doc)
	if err != nil {
		return Message{}, nil, fmt.Errorf("mls: marshal commit: %w", err)
	}
	return Message{Kind: MessageKindCommit, Payload: commitPayload}, initPriv, nil
}

// ProcessCommit merges a commit received from another member. It rejects
// commits that are not exactly one epoch ahead, and returns an error
// whose message contains "UseAfterEviction" if the caller's own leaf is
// absent or inactive in the new roster (spec.md §4.4 Phase C step 4).
func (g *Group) ProcessCommit(msg Message) error {
	if err := msg.ExpectKind(MessageKindCommit); err != nil {
		return fmt.Errorf("mls: process commit: %w", err)
	}
	var newDoc groupDocument
	if err := json.Unmarshal(msg.Payload, &newDoc); err != nil {
		return fmt.Errorf("mls: unmarshal commit: %w", err)
	}
	if newDoc.Epoch != g.doc.Epoch+1 {
		return fmt.Errorf("mls: commit epoch %d is not one ahead of current epoch %d", newDoc.Epoch, g.doc.Epoch)
	}
	ownLeaf := g.doc.OwnLeafIndex
	if ownLeaf >= len(newDoc.Members) || !newDoc.Members[ownLeaf].Active {
		return fmt.Errorf("mls: %s: own leaf %d is no longer active in group %q", useAfterEvictionSubstring, ownLeaf, g.doc.GroupID)
	}
	newDoc.OwnLeafIndex = ownLeaf
	g.doc = newDoc
	return nil
}

// ExportSecret derives an application secret from the current epoch
// secret via HKDF-SHA256(epochSecret, salt=nil, info=label||context). It
// returns an error containing "evict" if the caller has been evicted
// (spec.md §4.4 Phase C step 2, §9).
func (g *Group) ExportSecret(label string, context []byte, length int) ([]byte, error) {
	if !g.ownActive() {
		return nil, fmt.Errorf("mls: cannot export secret, %s from group %q", evictedSubstring, g.doc.GroupID)
	}
	info := append([]byte(label), context...)
	r := hkdf.New(sha256.New, g.doc.EpochSecret, nil, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("mls: export secret: %w", err)
	}
	return out, nil
}

// CommitKey derives the rendezvous-store key this group's next commit
// must be published under: "cm" followed by the hex-encoded export of a
// fixed 32-byte "post_commit" secret under the current epoch (spec.md §9
// "content-derived commit chaining").
func (g *Group) CommitKey() (string, error) {
	secret, err := g.ExportSecret("post_commit", nil, 32)
	if err != nil {
		return "", err
	}
	return "cm" + hexbytes.HexBytes(secret).String(), nil
}
