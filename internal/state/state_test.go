package state

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestResetBuildsTransformedPid(t *testing.T) {
	s, err := Reset("agent")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(s.Pid, "agent_") {
		t.Errorf("pid = %q, want prefix %q", s.Pid, "agent_")
	}
	if len(s.Pid) != len("agent_")+3 {
		t.Errorf("pid = %q, want length %d", s.Pid, len("agent_")+3)
	}
	if len(s.GroupIDs) != 0 {
		t.Errorf("fresh state should have no groups, got %v", s.GroupIDs)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	s, err := Reset("agent")
	if err != nil {
		t.Fatal(err)
	}
	s.AddGroupID("room_abc")
	s.KeyPackageCounter = 3
	s.WelcomeCounter = 1

	if err := Save(path, s); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Pid != s.Pid {
		t.Errorf("pid = %q, want %q", loaded.Pid, s.Pid)
	}
	if !loaded.HasGroupID("room_abc") {
		t.Error("expected loaded state to have room_abc")
	}
	if loaded.KeyPackageCounter != 3 {
		t.Errorf("key package counter = %d, want 3", loaded.KeyPackageCounter)
	}
	if !loaded.SignatureKeyPair.PrivateKey().Equal(s.SignatureKeyPair.PrivateKey()) {
		t.Error("signature key pair did not round-trip")
	}
}

func TestAddAndRemoveGroupID(t *testing.T) {
	s, err := Reset("agent")
	if err != nil {
		t.Fatal(err)
	}
	s.AddGroupID("room_abc")
	s.AddGroupID("room_abc") // idempotent
	if len(s.GroupIDs) != 1 {
		t.Fatalf("len(GroupIDs) = %d, want 1", len(s.GroupIDs))
	}
	s.RemoveGroupID("room_abc")
	if s.HasGroupID("room_abc") {
		t.Error("expected room_abc to be removed")
	}
}

func TestSaveIsAtomicAgainstPartialReads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s, err := Reset("agent")
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(path, s); err != nil {
		t.Fatal(err)
	}
	entries, err := filepath.Glob(filepath.Join(dir, ".sgmagent-state-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover temp files, found %v", entries)
	}
}
