package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the group's active members as \"leaf-index pid\"",
	RunE:  runMembers,
}

func init() {
	groupCmd.AddCommand(membersCmd)
}

func runMembers(cmd *cobra.Command, args []string) error {
	for _, m := range currentGroup.Members() {
		fmt.Printf("%d %s\n", m.LeafIndex, m.Pid())
	}
	return nil
}
