package cli

import (
	"encoding/json"

	"github.com/germtb/sgmagent/internal/state"
)

// stateDiffSnapshot renders st as the indented JSON text diag.StateDiff
// compares, matching the format state.Save writes to disk.
func stateDiffSnapshot(st *state.AgentState) (string, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

