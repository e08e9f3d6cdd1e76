package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/backup"
	"github.com/germtb/sgmagent/internal/crypto"
)

var (
	identityOutPath    string
	identityInPath     string
	identityPassphrase string
)

var exportIdentityCmd = &cobra.Command{
	Use:   "export-identity",
	Short: "Export this agent's signature key pair as a passphrase-encrypted PEM block",
	RunE:  runExportIdentity,
}

var importIdentityCmd = &cobra.Command{
	Use:   "import-identity",
	Short: "Replace this agent's signature key pair with one from a PEM export",
	RunE:  runImportIdentity,
}

func init() {
	exportIdentityCmd.Flags().StringVar(&identityOutPath, "out", "", "file to write the PEM block to (default: stdout)")
	exportIdentityCmd.Flags().StringVar(&identityPassphrase, "passphrase", "", "passphrase to encrypt with (default: SGMAGENT_PASSPHRASE env var, or unencrypted)")
	importIdentityCmd.Flags().StringVar(&identityInPath, "in", "", "file to read the PEM block from (required)")
	importIdentityCmd.Flags().StringVar(&identityPassphrase, "passphrase", "", "passphrase to decrypt with (default: SGMAGENT_PASSPHRASE env var)")
	importIdentityCmd.MarkFlagRequired("in")

	meCmd.AddCommand(exportIdentityCmd, importIdentityCmd)
}

func runExportIdentity(cmd *cobra.Command, args []string) error {
	passphrase := identityPassphrase
	if passphrase == "" {
		passphrase = os.Getenv(crypto.PassphraseEnv)
	}
	pemText, err := backup.ExportIdentity(sess.provider.State().SignatureKeyPair, []byte(passphrase))
	if err != nil {
		return fmt.Errorf("cli: export-identity: %w", err)
	}
	if identityOutPath == "" {
		fmt.Print(pemText)
		return nil
	}
	if err := os.WriteFile(identityOutPath, []byte(pemText), 0o600); err != nil {
		return fmt.Errorf("cli: export-identity: write %s: %w", identityOutPath, err)
	}
	return nil
}

func runImportIdentity(cmd *cobra.Command, args []string) error {
	pemText, err := os.ReadFile(identityInPath)
	if err != nil {
		return fmt.Errorf("cli: import-identity: read %s: %w", identityInPath, err)
	}
	var passphrase []byte
	if identityPassphrase != "" {
		passphrase = []byte(identityPassphrase)
	}
	kp, err := backup.ImportIdentity(string(pemText), passphrase)
	if err != nil {
		return fmt.Errorf("cli: import-identity: %w", err)
	}
	st := sess.provider.State()
	st.SignatureKeyPair = kp
	st.Pid = fmt.Sprintf("%s_%s", flagPid, kp.ShortFingerprint())
	return nil
}
