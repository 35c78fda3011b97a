package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
)

func newCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Manage the feature's commit history",
	}
	cmd.AddCommand(newCommitRecordCmd())
	return cmd
}

func newCommitRecordCmd() *cobra.Command {
	var (
		configPath  string
		migrationID string
	)

	cmd := &cobra.Command{
		Use:   "record <hash> <message>",
		Short: "Record a commit against a migration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommitRecord(cmd, configPath, migrationID, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().StringVarP(&migrationID, "migration", "m", "", "target migration id (default: current)")
	return cmd
}

func runCommitRecord(cmd *cobra.Command, configPath, migrationID, hash, message string) error {
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}
	mig, err := w.migrationOrCurrent(migrationID)
	if err != nil {
		return err
	}

	if err := w.mgr.RecordCommit(mig.ID, hash, message); err != nil {
		return err
	}

	if j := w.journal(); j != nil {
		_ = j.Record(w.feat.DisplayName(), mig.ID, "", models.JournalCommit, hash)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded commit %s on migration %s\n", hash, mig.ID)
	return nil
}
