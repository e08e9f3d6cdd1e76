package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/germtb/sgmagent/internal/hexbytes"
)

var (
	exportSecretLabel  string
	exportSecretLength int
)

var exportSecretCmd = &cobra.Command{
	Use:   "export-secret",
	Short: "Derive and print an application secret from the group's current epoch",
	RunE:  runExportSecret,
}

func init() {
	exportSecretCmd.Flags().StringVar(&exportSecretLabel, "label", "", "label for the exported secret (required)")
	exportSecretCmd.Flags().IntVar(&exportSecretLength, "length", 32, "length in bytes of the exported secret")
	exportSecretCmd.MarkFlagRequired("label")
	groupCmd.AddCommand(exportSecretCmd)
}

func runExportSecret(cmd *cobra.Command, args []string) error {
	secret, err := currentGroup.ExportSecret(exportSecretLabel, nil, exportSecretLength)
	if err != nil {
		return fmt.Errorf("cli: export-secret: %w", err)
	}
	fmt.Println(hexbytes.HexBytes(secret).String())
	return nil
}
