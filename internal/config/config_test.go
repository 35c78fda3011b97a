package config

import (
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}

	if cfg.SpecsDir != ".waybill" {
		t.Errorf("SpecsDir = %q, want .waybill", cfg.SpecsDir)
	}
	if cfg.BranchPattern != "{{id}}-{{name}}" {
		t.Errorf("BranchPattern = %q", cfg.BranchPattern)
	}
	if cfg.Columns.Pending != "Todo" || cfg.Columns.InProgress != "In Progress" ||
		cfg.Columns.Completed != "Done" || cfg.Columns.Blocked != "Blocked" {
		t.Errorf("columns = %+v", cfg.Columns)
	}
	if cfg.Tracker.Mode != "off" || cfg.Tracker.SyncTasks != "off" {
		t.Errorf("tracker defaults = %+v", cfg.Tracker)
	}
	if cfg.Tracker.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Tracker.TimeoutSeconds)
	}
	if cfg.Journal.Path != ".waybill/journal.db" {
		t.Errorf("Journal.Path = %q", cfg.Journal.Path)
	}
	if cfg.Dashboard.Port != 8787 {
		t.Errorf("Dashboard.Port = %d, want 8787", cfg.Dashboard.Port)
	}
}

func TestParse_Full(t *testing.T) {
	yaml := `
specs_dir: specs
columns:
  pending: Backlog
  in_progress: Doing
wip_limits:
  Doing: 2
strict_wip: true
tracker:
  mode: github
  sync_tasks: create
  owner: zulandar
  repo: waybill
  project_id: PVT_abc
  status_field_id: F_xyz
  column_options:
    Doing: OPT_1
  timeout_seconds: 10
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.SpecsDir != "specs" {
		t.Errorf("SpecsDir = %q", cfg.SpecsDir)
	}
	if cfg.Columns.Pending != "Backlog" || cfg.Columns.InProgress != "Doing" {
		t.Errorf("columns = %+v", cfg.Columns)
	}
	// Unset columns still get defaults.
	if cfg.Columns.Completed != "Done" {
		t.Errorf("Completed = %q, want default Done", cfg.Columns.Completed)
	}
	if cfg.WIPLimits["Doing"] != 2 {
		t.Errorf("WIPLimits = %v", cfg.WIPLimits)
	}
	if !cfg.StrictWIP {
		t.Error("StrictWIP not set")
	}
	if cfg.Tracker.Owner != "zulandar" || cfg.Tracker.TimeoutSeconds != 10 {
		t.Errorf("tracker = %+v", cfg.Tracker)
	}
	// Journal path derives from the overridden specs dir.
	if cfg.Journal.Path != "specs/journal.db" {
		t.Errorf("Journal.Path = %q", cfg.Journal.Path)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad mode", "tracker:\n  mode: jira\n", "tracker.mode"},
		{"bad sync_tasks", "tracker:\n  sync_tasks: mirror\n", "tracker.sync_tasks"},
		{"github missing owner", "tracker:\n  mode: github\n  repo: r\n", "tracker.owner"},
		{"github missing repo", "tracker:\n  mode: github\n  owner: o\n", "tracker.repo"},
		{"zero wip limit", "wip_limits:\n  Doing: 0\n", "wip_limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir() + "/waybill.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SpecsDir != ".waybill" {
		t.Errorf("SpecsDir = %q, want defaults", cfg.SpecsDir)
	}
}

func TestColumnFor(t *testing.T) {
	cfg, _ := Parse(nil)
	tests := []struct {
		status string
		want   string
	}{
		{"pending", "Todo"},
		{"in-progress", "In Progress"},
		{"completed", "Done"},
		{"blocked", "Blocked"},
		{"garbage", "Todo"},
	}
	for _, tt := range tests {
		if got := cfg.ColumnFor(tt.status); got != tt.want {
			t.Errorf("ColumnFor(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cfg, _ := Parse(nil)

	status, ok := cfg.StatusFor("done")
	if !ok || status != "completed" {
		t.Errorf("StatusFor(done) = (%q, %v), want (completed, true)", status, ok)
	}
	status, ok = cfg.StatusFor("IN PROGRESS")
	if !ok || status != "in-progress" {
		t.Errorf("StatusFor(IN PROGRESS) = (%q, %v)", status, ok)
	}
	if _, ok := cfg.StatusFor("Limbo"); ok {
		t.Error("StatusFor accepted unknown column")
	}
}
