package rendezvous

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/germtb/sgmagent/internal/crypto"
)

// DHTAdapter talks to an OpenDHT REST gateway over plain HTTP, exactly the
// protocol original_source/.../opendht.rs speaks to it (spec.md §4.3 DHT
// variant). The REST client itself is net/http: no complete example repo
// in the corpus demonstrates a third-party HTTP client doing simple
// get/post against an arbitrary gateway (see DESIGN.md).
type DHTAdapter struct {
	Host   string
	Port   uint16
	Client *http.Client
}

// NewDHTAdapter returns a DHTAdapter pointed at host:port.
func NewDHTAdapter(host string, port uint16) *DHTAdapter {
	return &DHTAdapter{
		Host:   host,
		Port:   port,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *DHTAdapter) url(key string) string {
	return fmt.Sprintf("http://%s:%d/key/%s", a.Host, a.Port, key)
}

// dhtValue is one entry of an OpenDHT value list, or the lone object a
// proxy may return directly; fields beyond "data" are ignored.
type dhtValue struct {
	Data string `json:"data"`
}

// Get fetches key. OpenDHT proxies may answer with a single JSON object
// or an array of them (a key can carry more than one value); the first
// entry carrying a usable "data" field wins (spec.md §4.3, §6, §8
// boundary case).
func (a *DHTAdapter) Get(key string) ([]byte, bool, error) {
	resp, err := a.Client.Get(a.url(key))
	if err != nil {
		return nil, false, fmt.Errorf("rendezvous: dht get %q: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("rendezvous: dht get %q: read body: %w", key, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("rendezvous: dht get %q: status %d", key, resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false, nil
	}

	b64, ok := firstDataField(body)
	if !ok {
		return nil, false, nil
	}
	data, err := crypto.B64Decode(b64, false)
	if err != nil {
		return nil, false, fmt.Errorf("rendezvous: dht get %q: decode data: %w", key, err)
	}
	return data, true, nil
}

// firstDataField scans a response body that may be a single JSON object
// or a JSON array of objects, returning the first non-empty "data" field.
func firstDataField(body []byte) (string, bool) {
	var single dhtValue
	if err := json.Unmarshal(body, &single); err == nil && single.Data != "" {
		return single.Data, true
	}
	var list []dhtValue
	if err := json.Unmarshal(body, &list); err == nil {
		for _, v := range list {
			if v.Data != "" {
				return v.Data, true
			}
		}
	}
	return "", false
}

type dhtPutRequest struct {
	Data      string `json:"data"`
	Permanent bool   `json:"permanent"`
}

// Put stores value under key, always marking it permanent; this agent
// does not implement rendezvous-store compaction (spec.md §8 non-goal,
// §9 open question).
func (a *DHTAdapter) Put(key string, value []byte) error {
	payload, err := json.Marshal(dhtPutRequest{
		Data:      crypto.B64Encode(value, false),
		Permanent: true,
	})
	if err != nil {
		return fmt.Errorf("rendezvous: dht put %q: marshal: %w", key, err)
	}
	resp, err := a.Client.Post(a.url(key), "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("rendezvous: dht put %q: %w", key, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rendezvous: dht put %q: status %d", key, resp.StatusCode)
	}
	return nil
}

// PutChecked is get-then-put, the same coordination primitive
// original_source/.../opendht.rs implements: if a value is already
// present, return ErrKeyExists without writing. Because the gateway gives
// no real compare-and-swap, a failed Put is re-checked once before being
// reported: if another writer's value is now present, the race is
// absorbed silently rather than surfaced as our own failure (spec.md
// §4.3 "write-race absorption rule").
func (a *DHTAdapter) PutChecked(key string, value []byte) error {
	if _, ok, err := a.Get(key); err != nil {
		return err
	} else if ok {
		return ErrKeyExists
	}
	if err := a.Put(key, value); err != nil {
		if _, ok, getErr := a.Get(key); getErr == nil && ok {
			return nil
		}
		return err
	}
	return nil
}
