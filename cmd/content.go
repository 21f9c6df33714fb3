package cmd

import (
	"github.com/spf13/cobra"
)

// ContentCmd groups commands that encrypt, share and open media.
var ContentCmd = &cobra.Command{
	Use:   "content",
	Short: "Encrypt, upload and view media",
	Long: `Every item is encrypted with ChaCha20-Poly1305 under its own random content
key before anything leaves this machine. The key is stored only in wrapped
form, once for you and once for each viewer you approve.`,
}

func init() {
	ContentCmd.AddCommand(contentSealCmd)
	ContentCmd.AddCommand(contentOpenCmd)
	ContentCmd.AddCommand(contentUploadCmd)
	ContentCmd.AddCommand(contentViewCmd)
	ContentCmd.AddCommand(contentListCmd)
}

// resetContentCommandState resets the content commands' global state for testing.
func resetContentCommandState() {
	resetContentOpenState()
	resetContentUploadState()
	resetContentViewState()
}
