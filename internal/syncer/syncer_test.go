package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/models"
	"github.com/zulandar/waybill/internal/tracker"
)

// fakeClient records tracker calls and can fail selected operations.
type fakeClient struct {
	created    []string // titles passed to CreateItem
	added      []string // item URLs attached to the board
	moves      map[string]string
	comments   []string
	closed     []int
	nextNumber int

	failCreate bool
	failMove   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{moves: map[string]string{}, nextNumber: 100}
}

func (f *fakeClient) CreateItem(ctx context.Context, title, body string, labels []string) (*tracker.Issue, error) {
	if f.failCreate {
		return nil, errors.New("create refused")
	}
	f.nextNumber++
	f.created = append(f.created, title)
	return &tracker.Issue{
		Number: f.nextNumber,
		URL:    fmt.Sprintf("https://example.test/repo/issues/%d", f.nextNumber),
	}, nil
}

func (f *fakeClient) AddItemToBoard(ctx context.Context, boardID, itemURL string) (string, error) {
	f.added = append(f.added, itemURL)
	return "ITEM-" + itemURL[strings.LastIndex(itemURL, "/")+1:], nil
}

func (f *fakeClient) MoveItem(ctx context.Context, boardID, itemID, fieldID, optionID string) error {
	if f.failMove {
		return errors.New("move refused")
	}
	f.moves[itemID] = optionID
	return nil
}

func (f *fakeClient) ListBoardItems(ctx context.Context, owner string, boardNumber int) ([]tracker.BoardItem, error) {
	return []tracker.BoardItem{{ItemID: "ITEM-1", Title: "remote", Status: "Todo"}}, nil
}

func (f *fakeClient) CommentOnItem(ctx context.Context, itemNumber int, text string) error {
	f.comments = append(f.comments, text)
	return nil
}

func (f *fakeClient) CloseItem(ctx context.Context, itemNumber int) error {
	f.closed = append(f.closed, itemNumber)
	return nil
}

func (f *fakeClient) GetBoardColumns(ctx context.Context, boardID string) ([]tracker.ColumnOption, error) {
	return nil, nil
}

func testSetup(t *testing.T, syncTasks string) (*fakeClient, *Engine, string) {
	t.Helper()
	cfg, err := config.Parse(nil)
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Tracker.Mode = "github"
	cfg.Tracker.SyncTasks = syncTasks
	cfg.Tracker.ProjectID = "PVT_1"
	cfg.Tracker.StatusFieldID = "F_1"
	cfg.Tracker.ColumnOptions = map[string]string{
		"Todo":        "OPT_TODO",
		"In Progress": "OPT_WIP",
		"Done":        "OPT_DONE",
	}

	client := newFakeClient()
	return client, New(client, cfg), filepath.Join(t.TempDir(), MappingFile)
}

func testBoard(tasks ...models.Task) board.Status {
	cfg, _ := config.Parse(nil)
	return board.Project("004-payments", "001", tasks, cfg)
}

func testFeature() *models.Feature {
	return &models.Feature{
		FeatureID:   "004",
		FeatureName: "payments",
		Migrations:  map[string]*models.Migration{},
	}
}

func task(id string, seq int, status string) models.Task {
	return models.Task{ID: id, MigrationID: "001", Seq: seq, Description: "task " + id, Status: status}
}

func TestPush_CreatesUnmappedTasks(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "create")
	b := testBoard(
		task("T001-001", 1, models.TaskPending),
		task("T001-002", 2, models.TaskInProgress),
	)

	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.Created != 2 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want 2 created, no errors", result)
	}
	if len(client.created) != 2 {
		t.Errorf("client saw %d creates, want 2", len(client.created))
	}
	if !strings.HasPrefix(client.created[0], "T001-001 ") {
		t.Errorf("issue title = %q, want task id prefix", client.created[0])
	}

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if len(mapping.Tasks) != 2 {
		t.Errorf("mapping has %d entries, want 2", len(mapping.Tasks))
	}
	if mapping.LastSyncedAt == "" {
		t.Error("LastSyncedAt not stamped")
	}
}

func TestPush_Idempotent(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "create")
	b := testBoard(task("T001-001", 1, models.TaskPending))

	if _, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b); err != nil {
		t.Fatalf("first push: %v", err)
	}
	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("second push: %v", err)
	}

	if result.Created != 0 {
		t.Errorf("second push created %d items, want 0", result.Created)
	}
	if result.Synced != 1 {
		t.Errorf("second push synced = %d, want 1", result.Synced)
	}
	if len(client.created) != 1 {
		t.Errorf("client saw %d creates across two pushes, want 1", len(client.created))
	}
}

func TestPush_FailedCreationLeavesMappingUnchanged(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "create")
	b := testBoard(task("T001-001", 1, models.TaskPending))

	client.failCreate = true
	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.Created != 0 || len(result.Errors) != 1 {
		t.Errorf("result = %+v, want 0 created, 1 error", result)
	}

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if len(mapping.Tasks) != 0 {
		t.Errorf("mapping gained %d entries from a failed push", len(mapping.Tasks))
	}
	if mapping.LastSyncedAt != "" {
		t.Error("failed push stamped LastSyncedAt")
	}

	// The next push retries and succeeds.
	client.failCreate = false
	result, err = eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("retry push: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("retry created %d, want 1", result.Created)
	}
}

func TestPush_FailureIsolation(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "create")
	b := testBoard(
		task("T001-001", 1, models.TaskPending),
		task("T001-002", 2, models.TaskPending),
	)

	// Seed a mapping for task 1, then make moves fail: task 1's error must
	// not stop task 2 from being created.
	if _, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, testBoard(task("T001-001", 1, models.TaskPending))); err != nil {
		t.Fatalf("seed push: %v", err)
	}
	client.failMove = true

	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(result.Errors) == 0 {
		t.Error("expected per-task errors from failed moves")
	}
	if len(client.created) != 2 {
		t.Errorf("client saw %d creates, want 2 (isolation broken)", len(client.created))
	}

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if len(mapping.Tasks) != 2 {
		t.Errorf("mapping has %d entries, want 2", len(mapping.Tasks))
	}
}

func TestPush_FailedMoveAfterCreateKeepsMapping(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "create")
	b := testBoard(task("T001-001", 1, models.TaskPending))

	// Creation and board attach succeed, the column move does not. The
	// item now exists remotely, so the mapping must record it anyway.
	client.failMove = true
	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 1 {
		t.Errorf("result = %+v, want 1 created, 1 error", result)
	}

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if _, ok := mapping.Tasks["T001-001"]; !ok {
		t.Fatal("mapping lost the entry for the created item")
	}

	// The next push must move the existing item, never create a second one.
	client.failMove = false
	result, err = eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("second push: %v", err)
	}
	if result.Created != 0 {
		t.Errorf("second push created %d items, want 0", result.Created)
	}
	if len(client.created) != 1 {
		t.Errorf("client saw %d creates across two pushes, want 1", len(client.created))
	}
	if len(client.moves) != 1 {
		t.Errorf("client recorded %d moves after retry, want 1", len(client.moves))
	}
}

func TestPush_SyncTasksOffSkipsCreation(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "off")
	b := testBoard(task("T001-001", 1, models.TaskPending))

	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, b)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.Created != 0 || result.Synced != 1 {
		t.Errorf("result = %+v, want 0 created 1 synced", result)
	}
	if len(client.created) != 0 {
		t.Errorf("client saw %d creates with sync_tasks off", len(client.created))
	}
}

func TestPush_MovesMappedTasks(t *testing.T) {
	client, eng, mappingPath := testSetup(t, "create")

	if _, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, testBoard(task("T001-001", 1, models.TaskPending))); err != nil {
		t.Fatalf("seed push: %v", err)
	}

	// Same task, now completed locally.
	result, err := eng.Push(context.Background(), testFeature(), "001", mappingPath, testBoard(task("T001-001", 1, models.TaskCompleted)))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if result.Moved != 1 {
		t.Errorf("moved = %d, want 1", result.Moved)
	}
	for _, opt := range client.moves {
		if opt != "OPT_DONE" {
			t.Errorf("moved to option %q, want OPT_DONE", opt)
		}
	}
}

func TestCascadeClose(t *testing.T) {
	client, eng, _ := testSetup(t, "create")

	feat := testFeature()
	feat.SourceIssue = "https://example.test/repo/issues/42"
	feat.Migrations["001"] = &models.Migration{ID: "001", Status: models.MigrationCompleted}

	closed, err := eng.CascadeClose(context.Background(), feat)
	if err != nil {
		t.Fatalf("CascadeClose: %v", err)
	}
	if !closed {
		t.Fatal("expected a close")
	}
	if len(client.closed) != 1 || client.closed[0] != 42 {
		t.Errorf("closed = %v, want [42]", client.closed)
	}
	if len(client.comments) != 1 || !strings.Contains(client.comments[0], "All migrations completed") {
		t.Errorf("comments = %v", client.comments)
	}
}

func TestCascadeClose_SkipsOpenWork(t *testing.T) {
	client, eng, _ := testSetup(t, "create")

	feat := testFeature()
	feat.SourceIssue = "https://example.test/repo/issues/42"
	feat.Migrations["001"] = &models.Migration{ID: "001", Status: models.MigrationInProgress}

	closed, err := eng.CascadeClose(context.Background(), feat)
	if err != nil || closed {
		t.Errorf("CascadeClose = (%v, %v), want (false, nil)", closed, err)
	}
	if len(client.closed) != 0 {
		t.Errorf("closed %v with open migrations", client.closed)
	}

	// No source issue: nothing to close.
	feat = testFeature()
	feat.Migrations["001"] = &models.Migration{ID: "001", Status: models.MigrationCompleted}
	closed, err = eng.CascadeClose(context.Background(), feat)
	if err != nil || closed {
		t.Errorf("CascadeClose without source = (%v, %v), want (false, nil)", closed, err)
	}
}

func TestLoadMapping_Missing(t *testing.T) {
	mapping, err := LoadMapping(filepath.Join(t.TempDir(), MappingFile))
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if mapping.Tasks == nil || len(mapping.Tasks) != 0 {
		t.Errorf("missing mapping = %+v, want empty", mapping)
	}
}
