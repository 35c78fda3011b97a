package syncer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zulandar/waybill/internal/models"
)

// MappingFile is the per-migration sync mapping document, kept next to the
// task ledger.
const MappingFile = ".sync.json"

// LoadMapping reads a sync mapping. A missing file yields an empty mapping:
// the first push of a migration starts from nothing.
func LoadMapping(path string) (*models.SyncMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewSyncMapping(), nil
		}
		return nil, fmt.Errorf("syncer: read %s: %w", path, err)
	}

	var m models.SyncMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("syncer: parse %s: %w", path, err)
	}
	if m.Tasks == nil {
		m.Tasks = make(map[string]models.SyncEntry)
	}
	return &m, nil
}

// SaveMapping rewrites a sync mapping through a temp file and rename.
// Mapping entries are never deleted; once a task id maps to an external
// item that link is permanent.
func SaveMapping(path string, m *models.SyncMapping) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("syncer: marshal mapping: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("syncer: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("syncer: rename %s: %w", tmp, err)
	}
	return nil
}
