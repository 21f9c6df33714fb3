package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sealreel/internal/ui"
	"github.com/PolarWolf314/sealreel/internal/workflows"
)

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List content you own or were granted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting content list command")

		env, err := openEnv()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to initialize: %v", err)
		}
		defer env.Close()

		items, err := workflows.ListContent(context.Background(), env)
		if err != nil {
			fmt.Println(formatError(err))
			return err
		}
		if len(items) == 0 {
			fmt.Println("No accessible content.")
			return nil
		}

		for _, item := range items {
			access := ui.Muted.Sprint("granted")
			if item.IsOwner {
				access = ui.Muted.Sprint("owner")
			}
			fmt.Printf("%-8s  %-40s  %s\n", string(item.ID), item.Title, access)
		}
		return nil
	},
}
