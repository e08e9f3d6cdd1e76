package cli

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/mls"
	"github.com/germtb/sgmagent/internal/rendezvous"
)

var groupCmd = &cobra.Command{
	Use:               "group",
	Short:             "Operate on a single group this agent belongs to, selected with --gid",
	PersistentPreRunE: loadGroup,
}

// flagGid selects the group every "group <verb>" subcommand acts on. A
// flag rather than a positional: cobra resolves subcommands by matching
// argv tokens against registered command names in order, so a bare
// positional GID ahead of the verb ("group GID add ...") would never
// match "add" as a subcommand of "group" and the whole invocation would
// be dispatched to groupCmd itself instead of the leaf command.
var flagGid string

// currentGroup is loaded once for every "group --gid=... <verb>"
// invocation and saved back to storage by each leaf subcommand after it
// finishes mutating the group, mirroring the single mlsgitGroup borrowed
// across an entire command body in the teacher's internal/cli/*.go files.
var currentGroup *mls.Group

func init() {
	groupCmd.PersistentFlags().StringVar(&flagGid, "gid", "", "group id to operate on (required)")
	groupCmd.MarkPersistentFlagRequired("gid")
	rootCmd.AddCommand(groupCmd)
}

func loadGroup(cmd *cobra.Command, args []string) error {
	// cobra runs only the nearest PersistentPreRunE, which for group
	// subcommands is this one, so the root's session setup runs here first.
	if err := loadSession(cmd, args); err != nil {
		return err
	}
	group, ok, err := sess.provider.LoadGroup(flagGid)
	if err != nil {
		return fmt.Errorf("cli: group %q: %w", flagGid, err)
	}
	if !ok {
		return fmt.Errorf("cli: group %q: not found", flagGid)
	}
	currentGroup = group
	return nil
}

// publishCommit publishes commit under key, the commit key derived from
// the group's state *before* the mutation that produced commit was
// applied (spec.md §9 "content-derived commit chaining"): since Group's
// Add/Remove/SelfUpdate methods advance the epoch in place before
// returning, every call site must capture CommitKey() first and pass it
// in here, exactly as original_source/.../main.rs calls commit_key
// before merge_pending_commit. There is no retry-on-collision: the key
// is content-derived, not an incrementing counter, so a collision means
// another member already raced this exact epoch transition.
func publishCommit(key string, commit mls.Message) error {
	logrus.WithField("key", key).Info("cli: publishing commit")
	if err := sess.adapter.PutChecked(key, commit.Marshal()); err != nil {
		return fmt.Errorf("cli: publish commit: %w", err)
	}
	return nil
}

// publishWelcomes publishes each welcome under the next free "wm<N>"
// slot (spec.md §4.5, grounded on original_source/.../main.rs's welcome
// publish retry loop). index is loop-local and never written back to
// st.WelcomeCounter: that counter only advances on ingestion (Phase B),
// not on publish. Writing it back here would let a collision with
// another agent's not-yet-ingested welcome jump this agent's counter
// past that slot, skipping it forever in this agent's own Phase B.
func publishWelcomes(welcomes []mls.Message) error {
	st := sess.provider.State()
	index := st.WelcomeCounter
	for _, welcome := range welcomes {
		for {
			key := rendezvous.WelcomeMessageKey(index)
			logrus.WithField("key", key).Info("cli: publishing welcome")
			err := sess.adapter.PutChecked(key, welcome.Marshal())
			if err == nil {
				index++
				break
			}
			if errors.Is(err, rendezvous.ErrKeyExists) {
				logrus.WithField("key", key).Warn("cli: welcome slot occupied, retrying at next index")
				index++
				continue
			}
			return fmt.Errorf("cli: publish welcome: %w", err)
		}
	}
	return nil
}
