// Package syncer reconciles a board view against the external tracker. The
// local ledger is the source of truth; the tracker is a mirror. Pushes are
// idempotent per task id through the persisted sync mapping, and failures
// are isolated per task so one broken remote call never aborts the batch.
package syncer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/ledger"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/tracker"
)

// issueNumber extracts the trailing issue number from an issue URL.
var issueNumber = regexp.MustCompile(`/issues/(\d+)$`)

// Result aggregates one push: items created, items moved, items already
// mapped (or skipped by policy), and per-task error strings.
type Result struct {
	Created int      `json:"created"`
	Moved   int      `json:"moved"`
	Synced  int      `json:"synced"`
	Errors  []string `json:"errors,omitempty"`
}

// Engine drives push/pull reconciliation through a tracker client.
type Engine struct {
	client tracker.Client
	cfg    *config.Config
}

// New returns an engine for the given tracker client and configuration.
func New(client tracker.Client, cfg *config.Config) *Engine {
	return &Engine{client: client, cfg: cfg}
}

// Push mirrors every task on the board to the tracker. Unmapped tasks are
// created (or counted as synced when sync_tasks is off); mapped tasks get a
// move to the column matching their local status. A mapping entry is
// written only after the item exists on the board, so a failed creation
// leaves the mapping untouched and the next push retries it.
func (e *Engine) Push(ctx context.Context, feat *models.Feature, migrationID, mappingPath string, b board.Status) (Result, error) {
	var result Result

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		return result, err
	}

	dirty := false
	for _, col := range b.Columns {
		for _, task := range col.Tasks {
			if entry, ok := mapping.Tasks[task.ID]; ok {
				if moved, err := e.moveToColumn(ctx, entry.ItemID, col.Name); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("move %s: %v", task.ID, err))
				} else if moved {
					result.Moved++
				}
				result.Synced++
				continue
			}

			if e.cfg.Tracker.SyncTasks == "off" {
				result.Synced++
				continue
			}

			entry, err := e.createItem(ctx, feat, migrationID, task)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("create %s: %v", task.ID, err))
				continue
			}
			mapping.Tasks[task.ID] = *entry
			dirty = true
			result.Created++

			// Column placement is best effort: the item exists and is
			// mapped, a later push will land it in the right column.
			if _, err := e.moveToColumn(ctx, entry.ItemID, col.Name); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("move %s: %v", task.ID, err))
			}
		}
	}

	// A push that changed nothing and only collected errors must leave the
	// mapping document byte-for-byte as it was.
	if dirty || len(result.Errors) == 0 {
		mapping.LastSyncedAt = time.Now().Format(time.RFC3339)
		if err := SaveMapping(mappingPath, mapping); err != nil {
			return result, err
		}
	}
	return result, nil
}

// createItem creates the tracker item for a task and attaches it to the
// board. Column placement is the caller's job; an item that made it onto
// the board must be mapped even when its move fails.
func (e *Engine) createItem(ctx context.Context, feat *models.Feature, migrationID string, task models.Task) (*models.SyncEntry, error) {
	title := task.ID + " " + ledger.DisplayDescription(task.Description)
	body := fmt.Sprintf("Task from migration %s\n\nFeature: %s", migrationID, feat.DisplayName())

	var labels []string
	if e.cfg.Tracker.TaskLabel != "" {
		labels = append(labels, e.cfg.Tracker.TaskLabel)
	}

	issue, err := e.client.CreateItem(ctx, title, body, labels)
	if err != nil {
		return nil, err
	}

	itemID, err := e.client.AddItemToBoard(ctx, e.cfg.Tracker.ProjectID, issue.URL)
	if err != nil {
		return nil, err
	}

	return &models.SyncEntry{
		IssueNumber: issue.Number,
		ItemID:      itemID,
		IssueURL:    issue.URL,
	}, nil
}

// moveToColumn moves a board item to the option configured for the column.
// A column without a configured option is skipped, not an error.
func (e *Engine) moveToColumn(ctx context.Context, itemID, column string) (bool, error) {
	optionID := e.cfg.Tracker.ColumnOptions[column]
	if optionID == "" {
		return false, nil
	}
	if err := e.client.MoveItem(ctx, e.cfg.Tracker.ProjectID, itemID, e.cfg.Tracker.StatusFieldID, optionID); err != nil {
		return false, err
	}
	return true, nil
}

// Pull lists the items currently on the external board. Remote edits are
// reported for observability only; they are never reconciled back into the
// ledger.
func (e *Engine) Pull(ctx context.Context) ([]tracker.BoardItem, error) {
	return e.client.ListBoardItems(ctx, e.cfg.Tracker.Owner, e.cfg.Tracker.ProjectNumber)
}

// CascadeClose closes the feature's originating tracker item once every
// migration is completed. Closing is one-way: nothing in this engine ever
// reopens the source item. Returns true when a close was performed.
func (e *Engine) CascadeClose(ctx context.Context, feat *models.Feature) (bool, error) {
	if feat.SourceIssue == "" || feat.OpenMigrations() > 0 {
		return false, nil
	}

	m := issueNumber.FindStringSubmatch(feat.SourceIssue)
	if m == nil {
		return false, fmt.Errorf("syncer: source issue %q has no issue number", feat.SourceIssue)
	}
	number, _ := strconv.Atoi(m[1])

	comment := fmt.Sprintf("All migrations completed for %s.", feat.DisplayName())
	if err := e.client.CommentOnItem(ctx, number, comment); err != nil {
		return false, fmt.Errorf("syncer: comment on source issue: %w", err)
	}
	if err := e.client.CloseItem(ctx, number); err != nil {
		return false, fmt.Errorf("syncer: close source issue: %w", err)
	}
	return true, nil
}
