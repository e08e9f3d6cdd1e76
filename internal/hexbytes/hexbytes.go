// Package hexbytes provides a byte slice that marshals to JSON as a
// lowercase hex string, per the state document's "byte arrays encoded as
// hex" convention (spec.md §4.6, §6).
package hexbytes

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HexBytes is a []byte that round-trips through JSON as hex instead of
// the encoding/json default of base64.
type HexBytes []byte

// String returns the lowercase hex encoding.
func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

// MarshalJSON implements json.Marshaler.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal hex string: %w", err)
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode hex bytes: %w", err)
	}
	*h = decoded
	return nil
}

// FromHex decodes a hex string into a HexBytes value.
func FromHex(s string) (HexBytes, error) {
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex bytes: %w", err)
	}
	return HexBytes(decoded), nil
}
