package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage migrations",
	}
	cmd.AddCommand(newMigrateNewCmd())
	cmd.AddCommand(newMigrateListCmd())
	return cmd
}

func newMigrateNewCmd() *cobra.Command {
	var (
		configPath string
		expect     string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new migration",
		Long:  "Allocates the next sequential migration id, creates its directory with an empty task ledger, and makes it the feature's current migration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateNew(cmd, configPath, expect)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().StringVar(&expect, "expect", "", "expectation text for this migration")
	return cmd
}

func runMigrateNew(cmd *cobra.Command, configPath, expect string) error {
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}

	var expectation *models.Expectation
	if expect != "" {
		expectation = models.Plain(expect)
	}

	mig, err := w.mgr.Create(expectation)
	if err != nil {
		return err
	}

	if j := w.journal(); j != nil {
		_ = j.Record(w.feat.DisplayName(), mig.ID, "", models.JournalMigration, "created")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Migration %s created (%s)\n", mig.ID, mig.Folder)
	emitOutput(out, map[string]any{
		"success":     true,
		"migrationId": mig.ID,
		"folder":      mig.Folder,
	})
	return nil
}

func newMigrateListCmd() *cobra.Command {
	var (
		configPath  string
		pendingOnly bool
		upTo        string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrateList(cmd, configPath, pendingOnly, upTo)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "only show migrations that are not completed")
	cmd.Flags().StringVar(&upTo, "up-to", "", "only show migrations with ids at or below this id")
	return cmd
}

func runMigrateList(cmd *cobra.Command, configPath string, pendingOnly bool, upTo string) error {
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}

	migs := w.mgr.All()
	switch {
	case pendingOnly:
		migs = w.mgr.Pending()
	case upTo != "":
		migs = w.mgr.UpTo(upTo)
	}

	out := cmd.OutOrStdout()
	if len(migs) == 0 {
		fmt.Fprintln(out, "No migrations.")
		return nil
	}

	for _, m := range migs {
		marker := " "
		if m.ID == w.feat.CurrentMigration {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s  %-11s  %d/%d tasks\n", marker, m.ID, m.Status, m.TasksCompleted, m.TasksTotal)
	}
	return nil
}
