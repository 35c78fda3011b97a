package models

// Task statuses. Completed comes from a checked ledger marker, blocked from
// a [blocked] tag on an unchecked task. In-progress is a board concept and
// never appears in the ledger itself.
const (
	TaskPending    = "pending"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Task is the atomic unit of work inside a migration, parsed from one
// ledger line. Description holds the raw ledger text after the id; Story
// holds the optional grouping label.
type Task struct {
	ID          string `json:"id"`
	MigrationID string `json:"migrationId"`
	Seq         int    `json:"seq"`
	Story       string `json:"story,omitempty"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
