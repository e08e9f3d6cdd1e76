package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/mls"
)

var addCmd = &cobra.Command{
	Use:   "add [pids...]",
	Short: "Add one or more agents by pid, reading from stdin if none are given",
	RunE:  runAdd,
}

func init() {
	groupCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	pids := args
	if len(pids) == 0 {
		logrus.Debug("cli: reading pids to add from stdin")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			pids = append(pids, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("cli: add: read stdin: %w", err)
		}
	}

	st := sess.provider.State()
	kps := make([]mls.KeyPackage, 0, len(pids))
	for _, pid := range pids {
		kp, ok := st.KeyPackage(pid)
		if !ok {
			return fmt.Errorf("cli: add: no key package on file for pid %q", pid)
		}
		kps = append(kps, kp)
	}

	commitKey, err := currentGroup.CommitKey()
	if err != nil {
		return fmt.Errorf("cli: add: %w", err)
	}
	commit, welcomes, err := currentGroup.AddMembersWithoutSelfUpdate(kps)
	if err != nil {
		return fmt.Errorf("cli: add: %w", err)
	}
	if err := publishCommit(commitKey, commit); err != nil {
		return err
	}
	if err := publishWelcomes(welcomes); err != nil {
		return err
	}
	if err := currentGroup.Save(sess.provider.Storage()); err != nil {
		return fmt.Errorf("cli: add: %w", err)
	}

	fmt.Printf("epoch %d\n", currentGroup.Epoch())
	return nil
}
