package models

import (
	"encoding/json"
	"testing"
)

func TestExpectation_StringForm(t *testing.T) {
	var e Expectation
	if err := json.Unmarshal([]byte(`"ship the parser"`), &e); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if e.Summary != "ship the parser" {
		t.Errorf("Summary = %q", e.Summary)
	}
	if e.IsStructured() {
		t.Error("string form reported as structured")
	}

	out, err := json.Marshal(&e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"ship the parser"` {
		t.Errorf("round-trip = %s, want the original string form", out)
	}
}

func TestExpectation_ObjectForm(t *testing.T) {
	in := `{"summary":"ship it","must":["tests pass"],"mustNot":["break main"]}`
	var e Expectation
	if err := json.Unmarshal([]byte(in), &e); err != nil {
		t.Fatalf("unmarshal object: %v", err)
	}
	if !e.IsStructured() {
		t.Error("object form not reported as structured")
	}
	if e.Summary != "ship it" || len(e.Must) != 1 || len(e.MustNot) != 1 {
		t.Errorf("parsed = %+v", e)
	}

	out, err := json.Marshal(&e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Expectation
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !back.IsStructured() || back.Summary != e.Summary {
		t.Errorf("round-trip lost structure: %s", out)
	}
}

func TestExpectation_Invalid(t *testing.T) {
	var e Expectation
	if err := json.Unmarshal([]byte(`42`), &e); err == nil {
		t.Error("expected error for non-string non-object expectation")
	}
}

func TestFeature_OpenMigrations(t *testing.T) {
	feat := &Feature{
		Migrations: map[string]*Migration{
			"001": {ID: "001", Status: MigrationCompleted},
			"002": {ID: "002", Status: MigrationInProgress},
			"003": {ID: "003", Status: MigrationPending},
		},
	}
	if got := feat.OpenMigrations(); got != 2 {
		t.Errorf("OpenMigrations = %d, want 2", got)
	}

	feat.Migrations["002"].Status = MigrationCompleted
	feat.Migrations["003"].Status = MigrationCompleted
	if got := feat.OpenMigrations(); got != 0 {
		t.Errorf("OpenMigrations = %d, want 0", got)
	}
}

func TestFeature_DisplayName(t *testing.T) {
	feat := &Feature{FeatureID: "004", FeatureName: "payment-retries"}
	if got := feat.DisplayName(); got != "004-payment-retries" {
		t.Errorf("DisplayName = %q", got)
	}
}
