package models

import "time"

// Migration statuses. Transitions are monotonic: pending → in-progress →
// completed. A migration never regresses.
const (
	MigrationPending    = "pending"
	MigrationInProgress = "in-progress"
	MigrationCompleted  = "completed"
)

// Migration is one bounded increment of work within a feature.
type Migration struct {
	ID             string       `json:"id"`
	Timestamp      string       `json:"timestamp"`
	Folder         string       `json:"folder"`
	Parent         string       `json:"parent,omitempty"`
	Status         string       `json:"status"`
	TasksTotal     int          `json:"tasksTotal"`
	TasksCompleted int          `json:"tasksCompleted"`
	CreatedAt      time.Time    `json:"createdAt"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	Expectation    *Expectation `json:"expectation,omitempty"`
}

// Commit records one source-control commit attributed to a migration.
type Commit struct {
	Migration string    `json:"migration"`
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Feature is the top-level unit of product work, persisted as _meta.json in
// the feature directory. Rev is an optimistic-concurrency counter bumped on
// every save; a save fails if the on-disk rev no longer matches the rev the
// feature was loaded with.
type Feature struct {
	FeatureID        string                `json:"featureId"`
	FeatureName      string                `json:"featureName"`
	Branch           string                `json:"branch"`
	CreatedAt        time.Time             `json:"createdAt"`
	CurrentMigration string                `json:"currentMigration"`
	Migrations       map[string]*Migration `json:"migrations"`
	Commits          []Commit              `json:"commits"`
	SourceIssue      string                `json:"sourceIssue,omitempty"`
	Expectation      *Expectation          `json:"expectation,omitempty"`
	Rev              int                   `json:"rev"`
}

// DisplayName returns the combined id-name form used in board headers and
// issue bodies, e.g. "004-payment-retries".
func (f *Feature) DisplayName() string {
	return f.FeatureID + "-" + f.FeatureName
}

// OpenMigrations reports how many migrations are not yet completed.
func (f *Feature) OpenMigrations() int {
	n := 0
	for _, m := range f.Migrations {
		if m.Status != MigrationCompleted {
			n++
		}
	}
	return n
}
