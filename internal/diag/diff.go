package diag

import (
	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

var patcher = dmp.New()

// StateDiff renders a human-readable inline diff (the full text, with
// insertions and deletions marked by ANSI colour codes) between the agent's
// state document as it was read at the start of an invocation and as it
// stands just before being saved, for logging under --verbose
// (grounded on the teacher's internal/delta/differ.go patch pipeline,
// repurposed from ciphertext deltas to an audit diff of the plaintext
// JSON document).
func StateDiff(before, after string) string {
	diffs := patcher.DiffMain(before, after, false)
	return patcher.DiffPrettyText(diffs)
}
