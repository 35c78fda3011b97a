package journal

import (
	"path/filepath"
	"testing"

	"github.com/zulandar/waybill/internal/models"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)

	entries := []struct {
		feature, migration, taskID, kind string
	}{
		{"004-payments", "001", "T001-001", models.JournalTaskAdded},
		{"004-payments", "001", "T001-001", models.JournalTaskCompleted},
		{"005-other", "001", "T001-001", models.JournalTaskAdded},
	}
	for _, e := range entries {
		if err := j.Record(e.feature, e.migration, e.taskID, e.kind, ""); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := j.Recent("004-payments", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (feature filter)", len(got))
	}
	// Newest first.
	if got[0].Kind != models.JournalTaskCompleted {
		t.Errorf("first entry kind = %q, want task_completed", got[0].Kind)
	}

	all, err := j.Recent("", 10)
	if err != nil {
		t.Fatalf("Recent all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d entries unfiltered, want 3", len(all))
	}

	one, err := j.Recent("", 1)
	if err != nil {
		t.Fatalf("Recent limited: %v", err)
	}
	if len(one) != 1 {
		t.Errorf("limit ignored: got %d entries", len(one))
	}
}

func TestRecordSync(t *testing.T) {
	j := openTestJournal(t)

	if err := j.RecordSync("004-payments", "001", 2, 1, 3, []string{"move T001-002: refused"}); err != nil {
		t.Fatalf("RecordSync: %v", err)
	}

	runs, err := j.RecentSyncs("004-payments", 5)
	if err != nil {
		t.Fatalf("RecentSyncs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.Created != 2 || r.Moved != 1 || r.Synced != 3 || r.Failed != 1 {
		t.Errorf("run = %+v", r)
	}
	if r.Errors == "" {
		t.Error("error text not recorded")
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	if _, err := Open(path); err != nil {
		t.Fatalf("Open with missing parents: %v", err)
	}
}
