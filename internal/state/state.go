// Package state owns the agent's persisted state document: identity,
// key-package directory, group-id set, rendezvous counters, and the MLS
// storage map (spec.md §3, §4.6).
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/germtb/sgmagent/internal/hexbytes"
	"github.com/germtb/sgmagent/internal/keys"
	"github.com/germtb/sgmagent/internal/mls"
)

// AgentState is the single self-describing JSON document an invocation
// loads at the start and saves at the end (spec.md §2, §3).
type AgentState struct {
	Pid               string              `json:"pid"`
	SignatureKeyPair  keys.SignatureKeyPair `json:"signature_key_pair"`
	Ciphersuite       mls.Ciphersuite     `json:"ciphersuite"`
	ProtocolVersion   mls.ProtocolVersion `json:"protocol_version"`
	InitKeyPriv       hexbytes.HexBytes   `json:"init_key_priv"`
	KeyPackages       map[string]mls.KeyPackage `json:"key_packages"`
	GroupIDs          []string            `json:"group_ids"`
	KeyPackageCounter uint64              `json:"key_package_counter"`
	WelcomeCounter    uint64              `json:"welcome_counter"`
	Store             mls.Store           `json:"store"`
}

// Reset builds a brand-new identity exactly as spec.md §3 "Lifecycle":
// a fresh signature key pair, and a pid transformed as "<pid>_<fp>" where
// fp is the first 3 hex characters of the new public key, disambiguating
// agents that are launched with the same human-chosen pid.
func Reset(pid string) (*AgentState, error) {
	kp, err := keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("state: reset: %w", err)
	}
	return &AgentState{
		Pid:               fmt.Sprintf("%s_%s", pid, kp.ShortFingerprint()),
		SignatureKeyPair:  kp,
		Ciphersuite:       mls.CiphersuiteMLS128DHKEMX25519ChaCha20Poly1305SHA256Ed25519,
		ProtocolVersion:   mls.ProtocolVersionMLS10,
		KeyPackages:       make(map[string]mls.KeyPackage),
		GroupIDs:          nil,
		KeyPackageCounter: 0,
		WelcomeCounter:    0,
		Store:             make(mls.Store),
	}, nil
}

// Load reads and decodes the state document at path.
func Load(path string) (*AgentState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("state: load %s: %w", path, err)
	}
	var s AgentState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", path, err)
	}
	if s.KeyPackages == nil {
		s.KeyPackages = make(map[string]mls.KeyPackage)
	}
	if s.Store == nil {
		s.Store = make(mls.Store)
	}
	return &s, nil
}

// Save writes the state document to path atomically: write to a temp file
// in the same directory, then rename over the target, so a concurrent
// reader never observes a partially written document (grounded on the
// teacher's file-write discipline in internal/storage/dir.go, generalized
// to an atomic replace since this document is rewritten on every
// invocation rather than written once).
func Save(path string, s *AgentState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sgmagent-state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("state: rename into place: %w", err)
	}
	return nil
}

// HasKeyPackage reports whether pid has a key package on file.
func (s *AgentState) HasKeyPackage(pid string) bool {
	_, ok := s.KeyPackages[pid]
	return ok
}

// SetKeyPackage records pid's latest key package, overwriting any prior
// one (spec.md §3 "Key-package directory").
func (s *AgentState) SetKeyPackage(pid string, kp mls.KeyPackage) {
	s.KeyPackages[pid] = kp
}

// KeyPackage returns pid's key package, if any.
func (s *AgentState) KeyPackage(pid string) (mls.KeyPackage, bool) {
	kp, ok := s.KeyPackages[pid]
	return kp, ok
}

// Pids returns every pid with a key package on file, sorted
// lexicographically for predictable CLI output.
func (s *AgentState) Pids() []string {
	out := make([]string, 0, len(s.KeyPackages))
	for pid := range s.KeyPackages {
		out = append(out, pid)
	}
	sort.Strings(out)
	return out
}

// AddGroupID adds gid to the group-id set if not already present.
func (s *AgentState) AddGroupID(gid string) {
	for _, existing := range s.GroupIDs {
		if existing == gid {
			return
		}
	}
	s.GroupIDs = append(s.GroupIDs, gid)
}

// RemoveGroupID removes gid from the group-id set.
func (s *AgentState) RemoveGroupID(gid string) {
	out := s.GroupIDs[:0]
	for _, existing := range s.GroupIDs {
		if existing != gid {
			out = append(out, existing)
		}
	}
	s.GroupIDs = out
}

// HasGroupID reports whether gid is a member of the group-id set.
func (s *AgentState) HasGroupID(gid string) bool {
	for _, existing := range s.GroupIDs {
		if existing == gid {
			return true
		}
	}
	return false
}
