// Package journal keeps a local append-only audit log of ledger and sync
// activity in a sqlite database. The journal is observability, not state:
// every record here is derivable from what already happened, and a missing
// journal never blocks a command.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zulandar/waybill/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Journal wraps the sqlite-backed audit log.
type Journal struct {
	db *gorm.DB
}

// Open connects to (and if needed creates) the journal database at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create %s: %w", dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&models.JournalEntry{}, &models.SyncRun{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record appends one journal entry.
func (j *Journal) Record(feature, migration, taskID, kind, detail string) error {
	entry := models.JournalEntry{
		Feature:   feature,
		Migration: migration,
		TaskID:    taskID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := j.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("journal: record %s: %w", kind, err)
	}
	return nil
}

// RecordSync appends the aggregate outcome of one push.
func (j *Journal) RecordSync(feature, migration string, created, moved, synced int, errs []string) error {
	run := models.SyncRun{
		Feature:   feature,
		Migration: migration,
		Created:   created,
		Moved:     moved,
		Synced:    synced,
		Failed:    len(errs),
		Errors:    strings.Join(errs, "\n"),
		CreatedAt: time.Now(),
	}
	if err := j.db.Create(&run).Error; err != nil {
		return fmt.Errorf("journal: record sync run: %w", err)
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by feature.
func (j *Journal) Recent(feature string, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	q := j.db.Model(&models.JournalEntry{})
	if feature != "" {
		q = q.Where("feature = ?", feature)
	}

	var entries []models.JournalEntry
	if err := q.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("journal: list entries: %w", err)
	}
	return entries, nil
}

// RecentSyncs returns the newest sync runs, optionally filtered by feature.
func (j *Journal) RecentSyncs(feature string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}

	q := j.db.Model(&models.SyncRun{})
	if feature != "" {
		q = q.Where("feature = ?", feature)
	}

	var runs []models.SyncRun
	if err := q.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("journal: list sync runs: %w", err)
	}
	return runs, nil
}
