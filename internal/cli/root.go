package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "budgetbox",
		Short: "Offline-first monthly budget tracker",
		Long: `budgetbox tracks one budget per month: income plus five expense
categories. Edits are saved locally first and synced to the server in the
background whenever connectivity allows, so the tool stays fully usable
offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newSetCmd(),
		newShowCmd(),
		newSyncCmd(),
		newHistoryCmd(),
	)

	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
