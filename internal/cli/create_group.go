package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/mls"
)

var createGroupGid string

var createGroupCmd = &cobra.Command{
	Use:   "create-group",
	Short: "Create a new group with this agent as its sole member",
	RunE:  runCreateGroup,
}

func init() {
	createGroupCmd.Flags().StringVar(&createGroupGid, "gid", "group", "base group id; a fingerprint suffix is appended to disambiguate")
	rootCmd.AddCommand(createGroupCmd)
}

func runCreateGroup(cmd *cobra.Command, args []string) error {
	st := sess.provider.State()
	gid := fmt.Sprintf("%s_%s", createGroupGid, st.SignatureKeyPair.ShortFingerprint())
	if st.HasGroupID(gid) {
		return fmt.Errorf("cli: create-group: group %q already exists", gid)
	}

	cred := mls.CredentialWithKey{
		Credential:   mls.NewBasicCredential(st.Pid),
		SignatureKey: st.SignatureKeyPair.Public,
	}
	_, ownInitPub, err := mls.GenerateInitKey()
	if err != nil {
		return fmt.Errorf("cli: create-group: %w", err)
	}

	group, err := mls.NewGroup(gid, cred, ownInitPub, st.Ciphersuite, st.ProtocolVersion)
	if err != nil {
		return fmt.Errorf("cli: create-group: %w", err)
	}
	if err := group.Save(sess.provider.Storage()); err != nil {
		return fmt.Errorf("cli: create-group: %w", err)
	}
	st.AddGroupID(gid)

	fmt.Println(gid)
	return nil
}
