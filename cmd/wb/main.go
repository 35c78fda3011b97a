package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wb",
		Short: "Waybill — feature migration ledger and board sync",
		Long:  "Waybill tracks a feature through numbered migrations, keeps each migration's tasks in a markdown ledger, projects them onto a Kanban board, and mirrors the board to GitHub Projects.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newFeatureCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newTasksCmd())
	cmd.AddCommand(newCompleteCmd())
	cmd.AddCommand(newCommitCmd())
	cmd.AddCommand(newBoardCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newDoctorCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wb %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
