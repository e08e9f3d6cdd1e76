package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/mls"
)

var removeCmd = &cobra.Command{
	Use:   "remove [indexes...]",
	Short: "Remove members by leaf index, reading from stdin if none are given",
	RunE:  runRemove,
}

func init() {
	groupCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	rawIndexes := args
	if len(rawIndexes) == 0 {
		logrus.Debug("cli: reading leaf indexes to remove from stdin")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			rawIndexes = append(rawIndexes, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("cli: remove: read stdin: %w", err)
		}
	}

	indexes := make([]int, 0, len(rawIndexes))
	for _, raw := range rawIndexes {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("cli: remove: invalid leaf index %q: %w", raw, err)
		}
		indexes = append(indexes, idx)
	}

	commitKey, err := currentGroup.CommitKey()
	if err != nil {
		return fmt.Errorf("cli: remove: %w", err)
	}
	commit, welcome, err := currentGroup.RemoveMembers(indexes)
	if err != nil {
		return fmt.Errorf("cli: remove: %w", err)
	}
	if err := publishCommit(commitKey, commit); err != nil {
		return err
	}
	if welcome != nil {
		if err := publishWelcomes([]mls.Message{*welcome}); err != nil {
			return err
		}
	}
	if err := currentGroup.Save(sess.provider.Storage()); err != nil {
		return fmt.Errorf("cli: remove: %w", err)
	}

	fmt.Printf("epoch %d\n", currentGroup.Epoch())
	return nil
}
