package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/feature"
	"github.com/zulandar/waybill/internal/journal"
	"github.com/zulandar/waybill/internal/ledger"
	"github.com/zulandar/waybill/internal/migration"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/syncer"
	"github.com/zulandar/waybill/internal/tracker"
)

// outputMarker precedes the machine-readable JSON block that mutating task
// commands print for agent integrations.
const outputMarker = "---WAYBILL-OUTPUT---"

// workspace bundles everything a command needs for the active feature. It
// is constructed per invocation; nothing survives between commands.
type workspace struct {
	cfg   *config.Config
	store *feature.Store
	feat  *models.Feature
	mgr   *migration.Manager
}

// openWorkspace loads config and resolves the active feature context.
func openWorkspace(configPath string) (*workspace, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	store, err := feature.Resolve(cfg.SpecsDir, feature.CurrentBranch("."))
	if err != nil {
		return nil, err
	}

	feat, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &workspace{
		cfg:   cfg,
		store: store,
		feat:  feat,
		mgr:   migration.NewManager(store, feat),
	}, nil
}

// migrationOrCurrent returns the migration with the given id, or the
// feature's current migration when id is empty.
func (w *workspace) migrationOrCurrent(id string) (*models.Migration, error) {
	if id != "" {
		return w.mgr.Get(id)
	}
	mig := w.mgr.Current()
	if mig == nil {
		return nil, fmt.Errorf("no current migration; run \"wb migrate new\" first")
	}
	return mig, nil
}

// ledgerPath returns the tasks.md path for a migration.
func (w *workspace) ledgerPath(mig *models.Migration) string {
	return filepath.Join(w.store.MigrationDir(mig), ledger.FileName)
}

// mappingPath returns the sync mapping path for a migration.
func (w *workspace) mappingPath(mig *models.Migration) string {
	return filepath.Join(w.store.MigrationDir(mig), syncer.MappingFile)
}

// boardFor parses a migration's ledger and projects it onto the board.
func (w *workspace) boardFor(mig *models.Migration) (board.Status, []models.Task, error) {
	content, err := ledger.LoadFile(w.ledgerPath(mig))
	if err != nil {
		return board.Status{}, nil, err
	}
	tasks := ledger.Parse(content)
	return board.Project(w.feat.DisplayName(), mig.ID, tasks, w.cfg), tasks, nil
}

// journal opens the audit journal. Failures are logged and swallowed: the
// journal is observability, never a precondition.
func (w *workspace) journal() *journal.Journal {
	j, err := journal.Open(w.cfg.Journal.Path)
	if err != nil {
		log.Printf("wb: journal unavailable: %v", err)
		return nil
	}
	return j
}

// trackerEnabled reports whether a tracker is configured for syncing.
func (w *workspace) trackerEnabled() bool {
	return w.cfg.Tracker.Mode == "github"
}

// engine builds the sync engine for the configured tracker.
func (w *workspace) engine() (*syncer.Engine, error) {
	if !w.trackerEnabled() {
		return nil, fmt.Errorf("tracker sync is not enabled; set tracker.mode: github in %s", config.DefaultPath)
	}

	client, err := tracker.NewGitHub(
		config.GitHubToken(),
		w.cfg.Tracker.Owner,
		w.cfg.Tracker.Repo,
		time.Duration(w.cfg.Tracker.TimeoutSeconds)*time.Second,
	)
	if err != nil {
		return nil, err
	}
	return syncer.New(client, w.cfg), nil
}

// emitOutput prints the trailing machine-readable JSON block.
func emitOutput(out io.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("wb: marshal output: %v", err)
		return
	}
	fmt.Fprintf(out, "\n%s\n%s\n", outputMarker, data)
}
