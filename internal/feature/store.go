// Package feature persists feature metadata (_meta.json) and resolves the
// active feature directory from the working tree.
package feature

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/zulandar/waybill/internal/models"
)

// MetaFile is the metadata document inside a feature directory.
const MetaFile = "_meta.json"

// Sentinel errors for the precondition taxonomy: callers abort immediately
// on these, no partial writes are attempted.
var (
	ErrNoFeature   = errors.New("feature: no feature context")
	ErrMetaMissing = errors.New("feature: metadata not found")
	ErrRevConflict = errors.New("feature: metadata changed since load")
)

// featureDirName matches feature directories like 004-payment-retries.
var featureDirName = regexp.MustCompile(`^\d{3}-`)

// Store reads and writes one feature's metadata. All writes are full-file
// rewrites through a temp file and rename, guarded by the rev counter the
// metadata was loaded with. The CLI assumes a single writer per feature;
// the rev check turns the rare concurrent overwrite into a hard error
// instead of a silent lost update.
type Store struct {
	dir string
}

// NewStore returns a store for the given feature directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the feature directory.
func (s *Store) Dir() string { return s.dir }

// MetaPath returns the path of the metadata document.
func (s *Store) MetaPath() string { return filepath.Join(s.dir, MetaFile) }

// Init creates a new feature with no migrations and persists it. It fails
// if metadata already exists in the directory.
func (s *Store) Init(featureID, featureName, branch string) (*models.Feature, error) {
	if _, err := os.Stat(s.MetaPath()); err == nil {
		return nil, fmt.Errorf("feature: %s already initialized", s.dir)
	}

	feat := &models.Feature{
		FeatureID:   featureID,
		FeatureName: featureName,
		Branch:      branch,
		CreatedAt:   time.Now(),
		Migrations:  make(map[string]*models.Migration),
		Commits:     []models.Commit{},
	}
	if err := s.Save(feat); err != nil {
		return nil, err
	}
	return feat, nil
}

// Load reads the feature metadata. Returns ErrMetaMissing when the document
// does not exist.
func (s *Store) Load() (*models.Feature, error) {
	data, err := os.ReadFile(s.MetaPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMetaMissing, s.MetaPath())
		}
		return nil, fmt.Errorf("feature: read %s: %w", s.MetaPath(), err)
	}

	var feat models.Feature
	if err := json.Unmarshal(data, &feat); err != nil {
		return nil, fmt.Errorf("feature: parse %s: %w", s.MetaPath(), err)
	}
	if feat.Migrations == nil {
		feat.Migrations = make(map[string]*models.Migration)
	}
	return &feat, nil
}

// Save rewrites the metadata document. The on-disk rev must still match the
// rev the feature was loaded with; on success the rev is bumped. The write
// goes through a temp file and rename so a crash leaves either the old or
// the new document, never a torn one.
func (s *Store) Save(feat *models.Feature) error {
	if onDisk, err := s.Load(); err == nil && onDisk.Rev != feat.Rev {
		return fmt.Errorf("%w: disk rev %d, loaded rev %d", ErrRevConflict, onDisk.Rev, feat.Rev)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("feature: create %s: %w", s.dir, err)
	}

	feat.Rev++
	data, err := json.MarshalIndent(feat, "", "  ")
	if err != nil {
		feat.Rev--
		return fmt.Errorf("feature: marshal metadata: %w", err)
	}

	tmp := s.MetaPath() + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		feat.Rev--
		return fmt.Errorf("feature: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.MetaPath()); err != nil {
		feat.Rev--
		os.Remove(tmp)
		return fmt.Errorf("feature: rename %s: %w", tmp, err)
	}
	return nil
}

// MigrationDir returns the directory of a migration within the feature.
func (s *Store) MigrationDir(m *models.Migration) string {
	return filepath.Join(s.dir, m.Folder)
}

// List returns the feature directory names under specsDir, sorted.
func List(specsDir string) ([]string, error) {
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("feature: read %s: %w", specsDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && featureDirName.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve picks the active feature directory: the current git branch when
// it names a feature directory, otherwise the most recently numbered one.
// Returns ErrNoFeature when nothing matches.
func Resolve(specsDir, branch string) (*Store, error) {
	if branch != "" && featureDirName.MatchString(branch) {
		dir := filepath.Join(specsDir, branch)
		if _, err := os.Stat(dir); err == nil {
			return NewStore(dir), nil
		}
	}

	names, err := List(specsDir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoFeature
	}
	return NewStore(filepath.Join(specsDir, names[len(names)-1])), nil
}
