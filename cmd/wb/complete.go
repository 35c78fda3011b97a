package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/ledger"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/notify"
)

func newCompleteCmd() *cobra.Command {
	var (
		configPath string
		push       bool
	)

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task as completed",
		Long:  "Flips the task's checkbox in the ledger, refreshes the migration's task counts, and suggests what to work on next. Completing an already-completed task is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, configPath, args[0], push)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().BoolVar(&push, "push", false, "push the board to the tracker after completing")
	return cmd
}

func runComplete(cmd *cobra.Command, configPath, taskID string, push bool) error {
	migID, _, ok := ledger.ParseTaskID(taskID)
	if !ok {
		return fmt.Errorf("malformed task id %q, expected TNNN-NNN", taskID)
	}

	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}
	mig, err := w.mgr.Get(migID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	path := w.ledgerPath(mig)
	content, err := ledger.LoadFile(path)
	if err != nil {
		return err
	}

	updated, err := ledger.Complete(content, taskID)
	switch {
	case errors.Is(err, ledger.ErrAlreadyCompleted):
		fmt.Fprintf(out, "%s is already completed.\n", taskID)
		emitOutput(out, map[string]any{
			"success":          true,
			"taskId":           taskID,
			"alreadyCompleted": true,
		})
		return nil
	case err != nil:
		return err
	}

	if err := ledger.SaveFile(path, updated); err != nil {
		return err
	}

	tasks := ledger.Parse(updated)
	completed, pending, blocked := ledger.Counts(tasks)
	mig, err = w.mgr.UpdateTaskCounts(mig.ID, completed+pending+blocked, completed)
	if err != nil {
		return err
	}

	if j := w.journal(); j != nil {
		_ = j.Record(w.feat.DisplayName(), mig.ID, taskID, models.JournalTaskCompleted, "")
	}

	fmt.Fprintf(out, "Completed %s (%d/%d)\n", taskID, mig.TasksCompleted, mig.TasksTotal)

	migrationDone := mig.Status == models.MigrationCompleted
	if migrationDone {
		fmt.Fprintf(out, "Migration %s completed.\n", mig.ID)
		notify.Send(w.cfg.Notify, notify.Event{
			Feature:   w.feat.DisplayName(),
			Migration: mig.ID,
			Subject:   fmt.Sprintf("Migration %s completed", mig.ID),
			Body:      fmt.Sprintf("%s: all %d tasks done.", w.feat.DisplayName(), mig.TasksTotal),
		})
	}

	if push && w.trackerEnabled() {
		if err := pushBoard(cmd.Context(), w, mig, out); err != nil {
			fmt.Fprintf(out, "Push failed: %v\n", err)
		}
	}

	if migrationDone && w.trackerEnabled() && w.feat.SourceIssue != "" {
		if eng, err := w.engine(); err == nil {
			closed, err := eng.CascadeClose(cmd.Context(), w.feat)
			if err != nil {
				fmt.Fprintf(out, "Source issue close failed: %v\n", err)
			} else if closed {
				fmt.Fprintf(out, "Source issue closed: %s\n", w.feat.SourceIssue)
			}
		}
	}

	b := board.Project(w.feat.DisplayName(), mig.ID, tasks, w.cfg)
	suggestions := board.SuggestNext(b, w.cfg)
	if len(suggestions) > 0 {
		fmt.Fprintln(out, "\nNext up:")
		for _, s := range suggestions {
			fmt.Fprintf(out, "  %s  %s (%s)\n", s.TaskID, s.Description, s.Reason)
		}
	}

	emitOutput(out, map[string]any{
		"success":         true,
		"taskId":          taskID,
		"migrationId":     mig.ID,
		"tasksCompleted":  mig.TasksCompleted,
		"tasksTotal":      mig.TasksTotal,
		"migrationStatus": mig.Status,
	})
	return nil
}
