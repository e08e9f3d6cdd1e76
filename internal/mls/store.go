package mls

import "github.com/germtb/sgmagent/internal/hexbytes"

// groupStoreKeyPrefix namespaces group documents within the flat storage
// map, matching the original provider's single key/value store shared by
// every group (original_source/.../provider.rs).
const groupStoreKeyPrefix = "group:"

func groupStoreKey(gid string) string {
	return groupStoreKeyPrefix + gid
}

// Store is the flat key/value map the agent's MLS state lives in. It is
// owned by AgentState and handed to the MLS core by the Provider, never
// held onto by a Group past a single Load/Save pair (spec.md §9 "MLS
// storage ownership").
type Store map[string]hexbytes.HexBytes

// Get returns the raw bytes stored under key.
func (s Store) Get(key string) ([]byte, bool) {
	v, ok := s[key]
	if !ok {
		return nil, false
	}
	return []byte(v), true
}

// Set stores raw bytes under key.
func (s Store) Set(key string, value []byte) {
	s[key] = hexbytes.HexBytes(value)
}

// Delete removes key from the store.
func (s Store) Delete(key string) {
	delete(s, key)
}
