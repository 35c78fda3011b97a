package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/ledger"
	"github.com/zulandar/waybill/internal/models"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks in the current migration",
	}
	cmd.AddCommand(newTasksAddCmd())
	return cmd
}

func newTasksAddCmd() *cobra.Command {
	var (
		configPath  string
		migrationID string
		fromFile    string
		push        bool
	)

	cmd := &cobra.Command{
		Use:   "add [tasks-json]",
		Short: "Append tasks to a migration's ledger",
		Long:  `Appends tasks to the migration's tasks.md. Tasks are given as a JSON array of {"story", "description"} objects, inline or via --file. Ids continue from the highest sequence number ever used; numbers are never reused.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasksJSON := ""
			if len(args) > 0 {
				tasksJSON = args[0]
			}
			return runTasksAdd(cmd, configPath, migrationID, tasksJSON, fromFile, push)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().StringVarP(&migrationID, "migration", "m", "", "target migration id (default: current)")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read the tasks JSON from a file")
	cmd.Flags().BoolVar(&push, "push", false, "push the board to the tracker after adding")
	return cmd
}

func runTasksAdd(cmd *cobra.Command, configPath, migrationID, tasksJSON, fromFile string, push bool) error {
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", fromFile, err)
		}
		tasksJSON = string(data)
	}
	if tasksJSON == "" {
		return fmt.Errorf("tasks JSON is required, inline or via --file")
	}

	var inputs []ledger.Input
	if err := json.Unmarshal([]byte(tasksJSON), &inputs); err != nil {
		return fmt.Errorf("parse tasks JSON: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no tasks provided")
	}
	for i, in := range inputs {
		if in.Description == "" {
			return fmt.Errorf("tasks[%d] has no description", i)
		}
	}

	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}
	mig, err := w.migrationOrCurrent(migrationID)
	if err != nil {
		return err
	}

	path := w.ledgerPath(mig)
	content, err := ledger.LoadFile(path)
	if err != nil {
		return err
	}

	updated, ids := ledger.Append(content, mig.ID, inputs)
	if w.cfg.StrictWIP {
		b := board.Project(w.feat.DisplayName(), mig.ID, ledger.Parse(updated), w.cfg)
		for _, v := range board.CheckWIP(b) {
			if v.Column == w.cfg.Columns.Pending {
				return fmt.Errorf("add rejected: %s would hold %d tasks (limit %d)", v.Column, v.Current, v.Limit)
			}
		}
	}
	if err := ledger.SaveFile(path, updated); err != nil {
		return err
	}

	completed, pending, blocked := ledger.Counts(ledger.Parse(updated))
	mig, err = w.mgr.UpdateTaskCounts(mig.ID, completed+pending+blocked, completed)
	if err != nil {
		return err
	}

	if j := w.journal(); j != nil {
		for _, id := range ids {
			_ = j.Record(w.feat.DisplayName(), mig.ID, id, models.JournalTaskAdded, "")
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %d task(s) to migration %s\n", len(ids), mig.ID)
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}

	if push {
		if err := pushBoard(cmd.Context(), w, mig, out); err != nil {
			fmt.Fprintf(out, "Push failed: %v\n", err)
		}
	}

	emitOutput(out, map[string]any{
		"success":     true,
		"migrationId": mig.ID,
		"tasksAdded":  len(ids),
		"totalTasks":  mig.TasksTotal,
	})
	return nil
}

// pushBoard projects the migration and pushes it through the sync engine,
// printing the aggregate result. Per-task errors are reported, not fatal.
func pushBoard(ctx context.Context, w *workspace, mig *models.Migration, out io.Writer) error {
	eng, err := w.engine()
	if err != nil {
		return err
	}

	b, _, err := w.boardFor(mig)
	if err != nil {
		return err
	}

	result, err := eng.Push(ctx, w.feat, mig.ID, w.mappingPath(mig), b)
	if err != nil {
		return err
	}

	if j := w.journal(); j != nil {
		_ = j.RecordSync(w.feat.DisplayName(), mig.ID, result.Created, result.Moved, result.Synced, result.Errors)
	}

	fmt.Fprintf(out, "Synced: %d | Created: %d | Moved: %d\n", result.Synced, result.Created, result.Moved)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  ! %s\n", e)
	}
	return nil
}
