package rendezvous

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/germtb/sgmagent/internal/crypto"
)

func newTestDHTServer(t *testing.T, store map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/key/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/key/")
		switch r.Method {
		case http.MethodGet:
			data, ok := store[key]
			if !ok {
				w.WriteHeader(http.StatusOK)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"data": data})
		case http.MethodPost:
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			var req dhtPutRequest
			if err := json.Unmarshal(body, &req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			store[key] = req.Data
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return httptest.NewServer(mux)
}

func testAdapter(t *testing.T, srv *httptest.Server) *DHTAdapter {
	t.Helper()
	host, portStr, err := splitHostPort(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return NewDHTAdapter(host, uint16(port))
}

func splitHostPort(url string) (host, port string, err error) {
	trimmed := strings.TrimPrefix(url, "http://")
	host, port, err = net.SplitHostPort(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("split test server host:port: %w", err)
	}
	return host, port, nil
}

func TestDHTAdapterGetMissing(t *testing.T) {
	srv := newTestDHTServer(t, map[string]string{})
	defer srv.Close()
	a := testAdapter(t, srv)

	_, ok, err := a.Get("kp0")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected missing key to report ok=false")
	}
}

func TestDHTAdapterPutGetRoundtrip(t *testing.T) {
	srv := newTestDHTServer(t, map[string]string{})
	defer srv.Close()
	a := testAdapter(t, srv)

	if err := a.Put("kp0", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	value, ok, err := a.Get("kp0")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(value) != "hello" {
		t.Errorf("value = %q, ok = %v, want %q, true", value, ok, "hello")
	}
}

func TestDHTAdapterPutCheckedRejectsCollision(t *testing.T) {
	store := map[string]string{"kp0": crypto.B64Encode([]byte("existing"), false)}
	srv := newTestDHTServer(t, store)
	defer srv.Close()
	a := testAdapter(t, srv)

	err := a.PutChecked("kp0", []byte("new"))
	if err != ErrKeyExists {
		t.Fatalf("err = %v, want ErrKeyExists", err)
	}
}

func TestDHTAdapterGetScansArrayForFirstDataField(t *testing.T) {
	body := []byte(`[{"id":"1"},{"data":"aGVsbG8="}]`)
	b64, ok := firstDataField(body)
	if !ok {
		t.Fatal("expected to find a data field in the array")
	}
	decoded, err := crypto.B64Decode(b64, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != "hello" {
		t.Errorf("decoded = %q, want %q", decoded, "hello")
	}
}
