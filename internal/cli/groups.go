package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List every group id this agent currently belongs to",
	RunE:  runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	for _, gid := range sess.provider.State().GroupIDs {
		fmt.Println(gid)
	}
	return nil
}
