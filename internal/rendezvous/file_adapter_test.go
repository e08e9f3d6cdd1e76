package rendezvous

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileAdapterPutGetRoundtrip(t *testing.T) {
	a := NewFileAdapter(t.TempDir())
	if err := a.Put("kp0", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	value, ok, err := a.Get("kp0")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(value) != "hello" {
		t.Errorf("value = %q, want %q", value, "hello")
	}
}

func TestFileAdapterGetMissingKey(t *testing.T) {
	a := NewFileAdapter(t.TempDir())
	_, ok, err := a.Get("kp0")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected missing key to report ok=false")
	}
}

func TestFileAdapterPutCheckedRejectsCollision(t *testing.T) {
	a := NewFileAdapter(t.TempDir())
	if err := a.PutChecked("kp0", []byte("first")); err != nil {
		t.Fatal(err)
	}
	err := a.PutChecked("kp0", []byte("second"))
	if err != ErrKeyExists {
		t.Fatalf("err = %v, want ErrKeyExists", err)
	}
	value, _, err := a.Get("kp0")
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != "first" {
		t.Errorf("value = %q, want unchanged %q", value, "first")
	}
}

func TestFileAdapterPutLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	a := NewFileAdapter(dir)
	if err := a.Put("kp0", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, ".sgmagent-put-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no leftover temp files, found %v", matches)
	}
}

func TestFileAdapterPutCreatesDirIfMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "rendezvous")
	a := NewFileAdapter(dir)
	if err := a.Put("kp0", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "kp0")); err != nil {
		t.Fatal(err)
	}
}
