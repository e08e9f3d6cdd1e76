package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rotate this agent's leaf init key within the group",
	RunE:  runUpdate,
}

func init() {
	groupCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	commitKey, err := currentGroup.CommitKey()
	if err != nil {
		return fmt.Errorf("cli: update: %w", err)
	}
	commit, _, err := currentGroup.SelfUpdate()
	if err != nil {
		return fmt.Errorf("cli: update: %w", err)
	}
	if err := publishCommit(commitKey, commit); err != nil {
		return err
	}
	if err := currentGroup.Save(sess.provider.Storage()); err != nil {
		return fmt.Errorf("cli: update: %w", err)
	}

	fmt.Printf("epoch %d\n", currentGroup.Epoch())
	return nil
}
