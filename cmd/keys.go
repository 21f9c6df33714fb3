package cmd

import (
	"github.com/spf13/cobra"
)

// KeysCmd manages the local identity.
var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage your identity key pair",
	Long: `Your identity is an RSA-2048 key pair. The public half is published so others
can grant you access; the private half stays on this device and in any backup
you export.`,
}

func init() {
	KeysCmd.AddCommand(keysInitCmd)
	KeysCmd.AddCommand(keysShowCmd)
	KeysCmd.AddCommand(keysExportCmd)
	KeysCmd.AddCommand(keysImportCmd)
	KeysCmd.AddCommand(keysRegenerateCmd)
}

// resetKeysCommandState resets the keys commands' global state for testing.
func resetKeysCommandState() {
	resetKeysExportState()
	resetKeysImportState()
	resetKeysRegenerateState()
}
