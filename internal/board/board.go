// Package board projects parsed tasks into a column view with WIP checks
// and a next-task suggestion heuristic. The board is derived state: it is
// recomputed from the ledger on every request and never persisted.
package board

import (
	"sort"

	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
)

// Column is one named board column with the tasks mapped to it.
type Column struct {
	Name     string        `json:"name"`
	WIPLimit int           `json:"wipLimit,omitempty"`
	Tasks    []models.Task `json:"tasks"`
}

// Status is the full board view for one migration.
type Status struct {
	FeatureName string   `json:"featureName"`
	MigrationID string   `json:"migrationId"`
	Columns     []Column `json:"columns"`
}

// Violation reports a column holding more tasks than its WIP limit.
type Violation struct {
	Column  string `json:"column"`
	Current int    `json:"current"`
	Limit   int    `json:"limit"`
}

// Suggestion is one ranked next-task recommendation.
type Suggestion struct {
	TaskID      string  `json:"taskId"`
	Description string  `json:"description"`
	Reason      string  `json:"reason"`
	Score       float64 `json:"score"`
}

// maxSuggestions caps how many next-task suggestions are returned.
const maxSuggestions = 3

// Project maps tasks into columns using the configured status→column names.
// Column order is fixed: pending, in-progress, blocked (only when
// non-empty), completed.
func Project(featureName, migrationID string, tasks []models.Task, cfg *config.Config) Status {
	byStatus := func(status string) []models.Task {
		var out []models.Task
		for _, t := range tasks {
			if t.Status == status {
				out = append(out, t)
			}
		}
		return out
	}

	col := func(name, status string) Column {
		return Column{
			Name:     name,
			WIPLimit: cfg.WIPLimits[name],
			Tasks:    byStatus(status),
		}
	}

	columns := []Column{
		col(cfg.Columns.Pending, models.TaskPending),
		col(cfg.Columns.InProgress, models.TaskInProgress),
	}
	if blocked := col(cfg.Columns.Blocked, models.TaskBlocked); len(blocked.Tasks) > 0 {
		columns = append(columns, blocked)
	}
	columns = append(columns, col(cfg.Columns.Completed, models.TaskCompleted))

	return Status{
		FeatureName: featureName,
		MigrationID: migrationID,
		Columns:     columns,
	}
}

// CheckWIP reports one violation per column whose task count exceeds its
// configured limit. Columns without a limit are never violated.
func CheckWIP(s Status) []Violation {
	var violations []Violation
	for _, c := range s.Columns {
		if c.WIPLimit > 0 && len(c.Tasks) > c.WIPLimit {
			violations = append(violations, Violation{
				Column:  c.Name,
				Current: len(c.Tasks),
				Limit:   c.WIPLimit,
			})
		}
	}
	return violations
}

// SuggestNext ranks what to work on next. When the in-progress column has a
// WIP limit and is at or over it, finishing that work outranks starting
// anything new: all in-progress tasks are suggested at top score. Otherwise
// pending tasks are ranked earliest-queued first; sequence numbers are
// unique within a migration, so the order is total.
func SuggestNext(s Status, cfg *config.Config) []Suggestion {
	var suggestions []Suggestion

	if ip := findColumn(s, cfg.Columns.InProgress); ip != nil &&
		ip.WIPLimit > 0 && len(ip.Tasks) >= ip.WIPLimit {
		for _, t := range ip.Tasks {
			suggestions = append(suggestions, Suggestion{
				TaskID:      t.ID,
				Description: t.Description,
				Reason:      "WIP limit reached — finish current work first",
				Score:       100,
			})
		}
		return cap3(suggestions)
	}

	if pending := findColumn(s, cfg.Columns.Pending); pending != nil {
		for _, t := range pending.Tasks {
			suggestions = append(suggestions, Suggestion{
				TaskID:      t.ID,
				Description: t.Description,
				Reason:      "Next in queue",
				Score:       float64(1000-t.Seq) * 0.1,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return cap3(suggestions)
}

// TaskCount returns the total number of tasks on the board.
func TaskCount(s Status) int {
	n := 0
	for _, c := range s.Columns {
		n += len(c.Tasks)
	}
	return n
}

func findColumn(s Status, name string) *Column {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

func cap3(s []Suggestion) []Suggestion {
	if len(s) > maxSuggestions {
		return s[:maxSuggestions]
	}
	return s
}
