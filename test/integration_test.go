package test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var sgmagentBinary string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "sgmagent-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmp)

	sgmagentBinary = filepath.Join(tmp, "sgmagent")
	cmd := exec.Command("go", "build", "-buildvcs=false", "-o", sgmagentBinary, "./cmd/sgmagent")
	cmd.Dir = findProjectRoot()
	cmd.Env = append(os.Environ(), "GOMODCACHE=/tmp/gomod", "GOPATH=/tmp/gopath")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %s\n%s\n", err, out)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// agent is one sgmagent identity sharing a rendezvous directory with its
// peers, mirroring the teacher's per-user temp-repo fixtures.
type agent struct {
	t         *testing.T
	statePath string
	rdvDir    string
	pid       string
}

func newAgent(t *testing.T, rdvDir, pid string) *agent {
	t.Helper()
	a := &agent{
		t:         t,
		statePath: filepath.Join(t.TempDir(), "state.json"),
		rdvDir:    rdvDir,
		pid:       pid,
	}
	a.run("--reset", "--pid", pid, "me")
	return a
}

func (a *agent) run(args ...string) string {
	a.t.Helper()
	fullArgs := append([]string{
		"--state", a.statePath,
		"--adapter", "file",
		"--file-path", a.rdvDir,
	}, args...)
	cmd := exec.Command(sgmagentBinary, fullArgs...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		a.t.Fatalf("sgmagent %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func (a *agent) runExpectError(args ...string) string {
	a.t.Helper()
	fullArgs := append([]string{
		"--state", a.statePath,
		"--adapter", "file",
		"--file-path", a.rdvDir,
	}, args...)
	cmd := exec.Command(sgmagentBinary, fullArgs...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		a.t.Fatalf("sgmagent %s expected to fail but succeeded:\n%s", strings.Join(args, " "), out)
	}
	return string(out)
}

func (a *agent) me() string {
	a.t.Helper()
	return strings.TrimSpace(a.run("me"))
}

// TestTwoAgentGroupHandshake walks alice and bob through exactly the
// sequence spec.md §8 describes: advertise, create-group, add, and a
// round trip of each side observing the other's group membership.
func TestTwoAgentGroupHandshake(t *testing.T) {
	rdv := t.TempDir()
	alice := newAgent(t, rdv, "alice")
	bob := newAgent(t, rdv, "bob")

	alice.run("advertise")
	bob.run("advertise")

	bobPid := bob.me()

	alice.run("create-group", "--gid", "book-club")
	groups := strings.Fields(alice.run("groups"))
	if len(groups) != 1 {
		t.Fatalf("expected alice to have exactly one group, got %q", groups)
	}
	gid := groups[0]

	alice.run("group", "--gid", gid, "add", bobPid)

	// Bob syncs on any invocation; "groups" is side-effect free.
	bobGroups := strings.Fields(bob.run("groups"))
	if len(bobGroups) != 1 || bobGroups[0] != gid {
		t.Fatalf("expected bob to have joined %q, got %q", gid, bobGroups)
	}

	members := alice.run("group", "--gid", gid, "members")
	if !strings.Contains(members, bobPid) {
		t.Fatalf("expected alice's member list to contain bob's pid %q, got:\n%s", bobPid, members)
	}
}

// TestEvictedAgentLosesGroup checks that removing a member via the group
// leaf index causes that member's own next sync to drop the group
// entirely, per spec.md §8's eviction contract.
func TestEvictedAgentLosesGroup(t *testing.T) {
	rdv := t.TempDir()
	alice := newAgent(t, rdv, "alice")
	bob := newAgent(t, rdv, "bob")

	alice.run("advertise")
	bob.run("advertise")
	bobPid := bob.me()

	alice.run("create-group", "--gid", "quorum")
	gid := strings.TrimSpace(strings.Fields(alice.run("groups"))[0])
	alice.run("group", "--gid", gid, "add", bobPid)

	// bob must observe the add before he can be removed by index.
	bobGroups := strings.Fields(bob.run("groups"))
	if len(bobGroups) != 1 {
		t.Fatalf("expected bob to have joined %q first", gid)
	}

	alice.run("group", "--gid", gid, "remove", "1")

	// bob's next sync should detect eviction and drop the group.
	bobGroupsAfter := strings.Fields(bob.run("groups"))
	if len(bobGroupsAfter) != 0 {
		t.Fatalf("expected bob to have lost group %q after eviction, still has %q", gid, bobGroupsAfter)
	}
}

func TestGroupUpdateAdvancesEpoch(t *testing.T) {
	rdv := t.TempDir()
	alice := newAgent(t, rdv, "alice")
	alice.run("advertise")
	alice.run("create-group", "--gid", "solo")
	gid := strings.TrimSpace(strings.Fields(alice.run("groups"))[0])

	out := alice.run("group", "--gid", gid, "update")
	if !strings.Contains(out, "epoch 1") {
		t.Fatalf("expected update to advance to epoch 1, got %q", out)
	}
}

func TestIdentityExportImportRoundtrip(t *testing.T) {
	rdv := t.TempDir()
	alice := newAgent(t, rdv, "alice")
	alice.run("advertise")
	beforePid := alice.me()

	exportPath := filepath.Join(t.TempDir(), "identity.pem")
	alice.run("me", "export-identity", "--out", exportPath, "--passphrase", "correct horse battery staple")

	bob := newAgent(t, rdv, "bob")
	bob.run("me", "import-identity", "--in", exportPath, "--passphrase", "correct horse battery staple")
	beforeFingerprint := beforePid[strings.LastIndex(beforePid, "_")+1:]
	afterPid := bob.me()
	afterFingerprint := afterPid[strings.LastIndex(afterPid, "_")+1:]
	if afterFingerprint != beforeFingerprint {
		t.Fatalf("expected imported identity's fingerprint %q, got pid %q", beforeFingerprint, afterPid)
	}

	carol := newAgent(t, rdv, "carol")
	carol.runExpectError("me", "import-identity", "--in", exportPath, "--passphrase", "wrong passphrase")
}
