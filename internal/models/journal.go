package models

import "time"

// Journal entry kinds.
const (
	JournalTaskAdded     = "task_added"
	JournalTaskCompleted = "task_completed"
	JournalTaskMoved     = "task_moved"
	JournalCommit        = "commit"
	JournalMigration     = "migration"
	JournalSync          = "sync"
)

// JournalEntry is one row in the local audit journal (sqlite). The journal
// is append-only observability; losing it never affects ledger state.
type JournalEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Feature   string `gorm:"size:128;index"`
	Migration string `gorm:"size:8;index"`
	TaskID    string `gorm:"size:16"`
	Kind      string `gorm:"size:24;index"`
	Detail    string `gorm:"type:text"`
	CreatedAt time.Time
}

// SyncRun records the aggregate outcome of one push against the tracker.
type SyncRun struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Feature   string `gorm:"size:128;index"`
	Migration string `gorm:"size:8"`
	Created   int
	Moved     int
	Synced    int
	Failed    int
	Errors    string `gorm:"type:text"`
	CreatedAt time.Time
}
