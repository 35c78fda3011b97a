package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/journal"
)

func newLogCmd() *cobra.Command {
	var (
		configPath string
		limit      int
		syncs      bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent journal activity",
		Long:  "Lists recent entries from the local audit journal: tasks added, completed, moved, commits, and sync runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, configPath, limit, syncs)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	cmd.Flags().BoolVar(&syncs, "syncs", false, "show sync runs instead of ledger entries")
	return cmd
}

func runLog(cmd *cobra.Command, configPath string, limit int, syncs bool) error {
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}

	j, err := journal.Open(w.cfg.Journal.Path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if syncs {
		runs, err := j.RecentSyncs(w.feat.DisplayName(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No sync runs recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  m%s  created=%d moved=%d synced=%d failed=%d\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.Migration, r.Created, r.Moved, r.Synced, r.Failed)
		}
		return nil
	}

	entries, err := j.Recent(w.feat.DisplayName(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal entries.")
		return nil
	}
	for _, e := range entries {
		detail := e.Detail
		if detail != "" {
			detail = "  " + detail
		}
		fmt.Fprintf(out, "%s  m%s  %-14s  %s%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Migration, e.Kind, e.TaskID, detail)
	}
	return nil
}
