package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List every pid this agent has an on-file key package for",
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	for _, pid := range sess.provider.State().Pids() {
		fmt.Println(pid)
	}
	return nil
}
