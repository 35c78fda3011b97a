// Package migration owns the feature/migration lifecycle: sequential id
// allocation, the pending → in-progress → completed status machine, task
// count aggregation, and commit history.
package migration

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/zulandar/waybill/internal/feature"
	"github.com/zulandar/waybill/internal/ledger"
	"github.com/zulandar/waybill/internal/models"
)

// ErrNotFound is returned for unknown migration ids.
var ErrNotFound = errors.New("migration: not found")

// folderName matches migration directories like 001_2026-01-10_14-30-45.
var folderName = regexp.MustCompile(`^(\d{3})_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})$`)

// folderTimestamp is the timestamp layout embedded in folder names.
const folderTimestamp = "2006-01-02_15-04-05"

// Manager mutates one loaded feature through its store. It holds no global
// state: callers construct it per invocation with the feature they loaded.
type Manager struct {
	store *feature.Store
	feat  *models.Feature
}

// NewManager wraps a loaded feature and its store.
func NewManager(store *feature.Store, feat *models.Feature) *Manager {
	return &Manager{store: store, feat: feat}
}

// Feature returns the wrapped feature.
func (m *Manager) Feature() *models.Feature { return m.feat }

// NextID allocates the next sequential migration id: max existing + 1,
// zero-padded to 3 digits, 001 when none exist. Ids are never reused.
func NextID(feat *models.Feature) string {
	maxID := 0
	for id := range feat.Migrations {
		if n, err := strconv.Atoi(id); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("%03d", maxID+1)
}

// FolderName builds a migration directory name from id and creation time.
func FolderName(id string, at time.Time) string {
	return id + "_" + at.Format(folderTimestamp)
}

// ParseFolder splits a migration directory name into id and timestamp.
func ParseFolder(name string) (id, timestamp string, ok bool) {
	m := folderName.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Create allocates the next migration, creates its directory with an empty
// task ledger, links it to the previous current migration, and persists the
// feature. The new migration starts pending; it moves to in-progress when
// its first task is appended.
func (m *Manager) Create(expect *models.Expectation) (*models.Migration, error) {
	now := time.Now()
	id := NextID(m.feat)

	mig := &models.Migration{
		ID:          id,
		Timestamp:   now.Format(folderTimestamp),
		Folder:      FolderName(id, now),
		Parent:      m.feat.CurrentMigration,
		Status:      models.MigrationPending,
		CreatedAt:   now,
		Expectation: expect,
	}

	dir := m.store.MigrationDir(mig)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("migration: create %s: %w", dir, err)
	}
	header := fmt.Sprintf("# Tasks — migration %s\n\n", id)
	if err := ledger.SaveFile(filepath.Join(dir, ledger.FileName), header); err != nil {
		return nil, err
	}

	m.feat.Migrations[id] = mig
	m.feat.CurrentMigration = id
	if err := m.store.Save(m.feat); err != nil {
		return nil, err
	}
	return mig, nil
}

// UpdateTaskCounts records the parsed totals for a migration and derives
// its status. Status never regresses: a completed migration that gains new
// unchecked tasks stays completed and the anomaly is logged for a human to
// resolve. Completed counts above total are clamped rather than propagated
// as a negative pending count.
func (m *Manager) UpdateTaskCounts(id string, total, completed int) (*models.Migration, error) {
	mig, ok := m.feat.Migrations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if completed > total {
		log.Printf("migration: %s reports %d completed of %d total, clamping", id, completed, total)
		completed = total
	}

	mig.TasksTotal = total
	mig.TasksCompleted = completed

	switch {
	case mig.Status == models.MigrationCompleted:
		if completed < total {
			log.Printf("migration: %s already completed but has %d open tasks, leaving status unchanged", id, total-completed)
		}
	case completed >= total && total > 0:
		mig.Status = models.MigrationCompleted
		now := time.Now()
		mig.CompletedAt = &now
	case total > 0:
		mig.Status = models.MigrationInProgress
	}

	if err := m.store.Save(m.feat); err != nil {
		return nil, err
	}
	return mig, nil
}

// RecordCommit appends a commit record to the feature history. It does not
// change migration status.
func (m *Manager) RecordCommit(migrationID, hash, message string) error {
	if _, ok := m.feat.Migrations[migrationID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, migrationID)
	}

	m.feat.Commits = append(m.feat.Commits, models.Commit{
		Migration: migrationID,
		Hash:      hash,
		Message:   message,
		Timestamp: time.Now(),
	})
	return m.store.Save(m.feat)
}

// Current returns the feature's current migration, or nil when none is set.
func (m *Manager) Current() *models.Migration {
	if m.feat.CurrentMigration == "" {
		return nil
	}
	return m.feat.Migrations[m.feat.CurrentMigration]
}

// Get returns a migration by id.
func (m *Manager) Get(id string) (*models.Migration, error) {
	mig, ok := m.feat.Migrations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return mig, nil
}

// All returns every migration ordered by id.
func (m *Manager) All() []*models.Migration {
	migs := make([]*models.Migration, 0, len(m.feat.Migrations))
	for _, mig := range m.feat.Migrations {
		migs = append(migs, mig)
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].ID < migs[j].ID })
	return migs
}

// Pending returns migrations that are not yet completed, ordered by id.
func (m *Manager) Pending() []*models.Migration {
	var migs []*models.Migration
	for _, mig := range m.All() {
		if mig.Status != models.MigrationCompleted {
			migs = append(migs, mig)
		}
	}
	return migs
}

// UpTo returns migrations with ids at or below the given id, ordered.
func (m *Manager) UpTo(id string) []*models.Migration {
	var migs []*models.Migration
	for _, mig := range m.All() {
		if mig.ID <= id {
			migs = append(migs, mig)
		}
	}
	return migs
}

// Summary aggregates feature progress across migrations.
type Summary struct {
	FeatureID           string `json:"featureId"`
	FeatureName         string `json:"featureName"`
	CurrentMigration    string `json:"currentMigration"`
	TotalMigrations     int    `json:"totalMigrations"`
	CompletedMigrations int    `json:"completedMigrations"`
	PendingTasks        int    `json:"pendingTasks"`
	CompletedTasks      int    `json:"completedTasks"`
}

// Status computes the feature summary from migration aggregates.
func (m *Manager) Status() Summary {
	s := Summary{
		FeatureID:        m.feat.FeatureID,
		FeatureName:      m.feat.FeatureName,
		CurrentMigration: m.feat.CurrentMigration,
	}
	for _, mig := range m.feat.Migrations {
		s.TotalMigrations++
		if mig.Status == models.MigrationCompleted {
			s.CompletedMigrations++
		}
		s.CompletedTasks += mig.TasksCompleted
		if pending := mig.TasksTotal - mig.TasksCompleted; pending > 0 {
			s.PendingTasks += pending
		}
	}
	return s
}

// ScanFolders lists migration directories present on disk, sorted. Used to
// reconcile the migrations map against folders created out of band.
func ScanFolders(featureDir string) ([]string, error) {
	entries, err := os.ReadDir(featureDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("migration: read %s: %w", featureDir, err)
	}

	var names []string
	for _, e := range entries {
		if _, _, ok := ParseFolder(e.Name()); e.IsDir() && ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
