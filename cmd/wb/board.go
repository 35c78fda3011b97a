package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/feature"
	"github.com/zulandar/waybill/internal/ledger"
	"github.com/zulandar/waybill/internal/migration"
	"github.com/zulandar/waybill/internal/models"
)

func newBoardCmd() *cobra.Command {
	var (
		configPath  string
		migrationID string
		all         bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the task board",
		Long:  "Projects a migration's ledger onto the Kanban board, with WIP limit checks and next-task suggestions. The board is recomputed from tasks.md every time; nothing is cached.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, configPath, migrationID, all, asJSON)
		},
	}

	cmd.AddCommand(newBoardMoveCmd())

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().StringVarP(&migrationID, "migration", "m", "", "migration id (default: current)")
	cmd.Flags().BoolVar(&all, "all", false, "show the current board of every feature")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")
	return cmd
}

func runBoard(cmd *cobra.Command, configPath, migrationID string, all, asJSON bool) error {
	out := cmd.OutOrStdout()

	if all {
		boards, err := allFeatureBoards(configPath)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, boards)
		}
		for i, b := range boards {
			if i > 0 {
				fmt.Fprintln(out)
			}
			renderBoard(out, b)
			printViolations(out, b)
		}
		if len(boards) == 0 {
			fmt.Fprintln(out, "No features with an active migration.")
		}
		return nil
	}

	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}
	mig, err := w.migrationOrCurrent(migrationID)
	if err != nil {
		return err
	}
	b, _, err := w.boardFor(mig)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(out, []board.Status{b})
	}

	renderBoard(out, b)
	printViolations(out, b)
	if suggestions := board.SuggestNext(b, w.cfg); len(suggestions) > 0 {
		fmt.Fprintln(out, "\nNext up:")
		for _, s := range suggestions {
			fmt.Fprintf(out, "  %s  %s (%s)\n", s.TaskID, s.Description, s.Reason)
		}
	}
	return nil
}

// allFeatureBoards projects the current migration of every feature under the
// specs dir. Features without an active migration are skipped.
func allFeatureBoards(configPath string) ([]board.Status, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	names, err := feature.List(cfg.SpecsDir)
	if err != nil {
		return nil, err
	}

	var boards []board.Status
	for _, name := range names {
		store := feature.NewStore(filepath.Join(cfg.SpecsDir, name))
		feat, err := store.Load()
		if err != nil {
			continue
		}
		mgr := migration.NewManager(store, feat)
		mig := mgr.Current()
		if mig == nil {
			continue
		}

		content, err := ledger.LoadFile(filepath.Join(store.MigrationDir(mig), ledger.FileName))
		if err != nil {
			continue
		}
		boards = append(boards, board.Project(feat.DisplayName(), mig.ID, ledger.Parse(content), cfg))
	}
	return boards, nil
}

func printViolations(out io.Writer, b board.Status) {
	for _, v := range board.CheckWIP(b) {
		fmt.Fprintf(out, "WIP violation: %s has %d tasks (limit %d)\n", v.Column, v.Current, v.Limit)
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal boards: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func newBoardMoveCmd() *cobra.Command {
	var (
		configPath string
		push       bool
	)

	cmd := &cobra.Command{
		Use:   "move <task-id> <column>",
		Short: "Move a task to another column",
		Long:  "Rewrites the task's ledger line to match the target column. Moving to the completed column checks the box; moving out of it unchecks it.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoardMove(cmd, configPath, args[0], args[1], push)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().BoolVar(&push, "push", false, "push the board to the tracker after moving")
	return cmd
}

func runBoardMove(cmd *cobra.Command, configPath, taskID, column string, push bool) error {
	migID, _, ok := ledger.ParseTaskID(taskID)
	if !ok {
		return fmt.Errorf("malformed task id %q, expected TNNN-NNN", taskID)
	}

	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}

	status, ok := w.cfg.StatusFor(column)
	if !ok {
		return fmt.Errorf("unknown column %q", column)
	}

	mig, err := w.mgr.Get(migID)
	if err != nil {
		return err
	}

	path := w.ledgerPath(mig)
	content, err := ledger.LoadFile(path)
	if err != nil {
		return err
	}

	updated, err := ledger.SetChecked(content, taskID, status == models.TaskCompleted)
	if err != nil {
		return err
	}
	if w.cfg.StrictWIP {
		b := board.Project(w.feat.DisplayName(), mig.ID, ledger.Parse(updated), w.cfg)
		for _, v := range board.CheckWIP(b) {
			if v.Column == w.cfg.ColumnFor(status) {
				return fmt.Errorf("move rejected: %s would hold %d tasks (limit %d)", v.Column, v.Current, v.Limit)
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
		_ = j.Record(w.feat.DisplayName(), mig.ID, taskID, models.JournalTaskMoved, column)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Moved %s to %s\n", taskID, w.cfg.ColumnFor(status))

	if push && w.trackerEnabled() {
		if err := pushBoard(cmd.Context(), w, mig, out); err != nil {
			fmt.Fprintf(out, "Push failed: %v\n", err)
		}
	}

	emitOutput(out, map[string]any{
		"success":     true,
		"taskId":      taskID,
		"migrationId": mig.ID,
		"column":      w.cfg.ColumnFor(status),
	})
	return nil
}
