// Package rendezvous implements the StorageAdapter contract agents use to
// publish and discover MLS messages: key packages and welcomes under
// monotonically-increasing indexed keys ("kp<N>", "wm<N>"), and commits
// under content-derived "cm<hex>" keys (spec.md §4.3).
package rendezvous

import (
	"errors"
	"strconv"
)

// ErrKeyExists is returned by PutChecked when key is already occupied.
// Key-package and welcome publishers retry under the next index exactly as
// original_source/.../main.rs does on "Key already exists"; commit
// publication does not retry and reports the error.
var ErrKeyExists = errors.New("rendezvous: key already exists")

// StorageAdapter is the shared rendezvous key/value contract both the
// file and DHT-gateway variants implement.
type StorageAdapter interface {
	// Get returns the value stored under key, or ok=false if absent.
	Get(key string) (value []byte, ok bool, err error)
	// Put writes value under key unconditionally, replacing whatever was
	// there (spec.md §4.3 "writes must be observable ... as
	// all-or-nothing").
	Put(key string, value []byte) error
	// PutChecked writes value under key only if key is currently absent,
	// returning ErrKeyExists otherwise. This is the store's sole
	// coordination primitive (spec.md §4.3).
	PutChecked(key string, value []byte) error
}

// KeyPackageKey returns the rendezvous key for the index-th key package.
func KeyPackageKey(index uint64) string {
	return keyWithIndex("kp", index)
}

// WelcomeMessageKey returns the rendezvous key for the index-th welcome.
func WelcomeMessageKey(index uint64) string {
	return keyWithIndex("wm", index)
}

func keyWithIndex(prefix string, index uint64) string {
	return prefix + strconv.FormatUint(index, 10)
}
