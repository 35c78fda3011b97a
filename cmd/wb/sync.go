package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/config"
)

func newSyncCmd() *cobra.Command {
	var (
		configPath  string
		migrationID string
		pull        bool
		every       string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the board with the external tracker",
		Long:  "Pushes the local board to the configured tracker. The local ledger is the source of truth; remote state is only read with --pull and never written back into tasks.md. Pushes are idempotent: already-mapped tasks are moved, never recreated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, configPath, migrationID, pull, every)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().StringVarP(&migrationID, "migration", "m", "", "migration id (default: current)")
	cmd.Flags().BoolVar(&pull, "pull", false, "list remote board items instead of pushing")
	cmd.Flags().StringVar(&every, "every", "", "keep syncing on a cron schedule, e.g. \"*/15 * * * *\"")
	return cmd
}

func runSync(cmd *cobra.Command, configPath, migrationID string, pull bool, every string) error {
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if pull {
		eng, err := w.engine()
		if err != nil {
			return err
		}
		items, err := eng.Pull(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(out, "No items on the remote board.")
			return nil
		}
		for _, item := range items {
			fmt.Fprintf(out, "%-14s  %-40s  %s\n", item.Status, item.Title, item.SourceRef)
		}
		return nil
	}

	syncOnce := func() error {
		mig, err := w.migrationOrCurrent(migrationID)
		if err != nil {
			return err
		}
		return pushBoard(cmd.Context(), w, mig, out)
	}

	if every == "" {
		return syncOnce()
	}

	if _, err := cron.ParseStandard(every); err != nil {
		return fmt.Errorf("invalid --every schedule %q: %w", every, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	if _, err := c.AddFunc(every, func() {
		// Reload between runs so edits to tasks.md made while the loop is
		// running are picked up.
		fresh, err := openWorkspace(configPath)
		if err != nil {
			fmt.Fprintf(out, "Sync skipped: %v\n", err)
			return
		}
		mig, err := fresh.migrationOrCurrent(migrationID)
		if err != nil {
			fmt.Fprintf(out, "Sync skipped: %v\n", err)
			return
		}
		if err := pushBoard(ctx, fresh, mig, out); err != nil {
			fmt.Fprintf(out, "Sync failed: %v\n", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}

	if err := syncOnce(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Syncing every %q; Ctrl-C to stop.\n", every)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
