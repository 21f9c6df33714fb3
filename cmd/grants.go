package cmd

import (
	"github.com/spf13/cobra"
)

// GrantsCmd groups access request handling.
var GrantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "Request, approve and reject access to content",
	Long: `Viewers request access to an item. When the owner approves, the owner's copy
of the content key is unwrapped locally and re-wrapped to the viewer's public
key; only that new wrapped key is sent to the backend.`,
}

func init() {
	GrantsCmd.AddCommand(grantsListCmd)
	GrantsCmd.AddCommand(grantsRequestCmd)
	GrantsCmd.AddCommand(grantsApproveCmd)
	GrantsCmd.AddCommand(grantsRejectCmd)
}

// resetGrantsCommandState resets the grants commands' global state for testing.
func resetGrantsCommandState() {
	resetGrantsListState()
}
