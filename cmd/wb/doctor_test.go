package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zulandar/waybill/internal/config"
)

func TestDoctorCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("doctor --help failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "diagnostic checks") {
		t.Errorf("expected help to mention 'diagnostic checks', got: %s", out)
	}
	if !strings.Contains(out, "--config") {
		t.Errorf("expected --config flag in help, got: %s", out)
	}
}

func TestNewDoctorCmd(t *testing.T) {
	cmd := newDoctorCmd()
	if cmd.Use != "doctor" {
		t.Errorf("Use = %q, want %q", cmd.Use, "doctor")
	}

	cfgFlag := cmd.Flags().Lookup("config")
	if cfgFlag == nil {
		t.Fatal("expected --config flag")
	}
	if cfgFlag.DefValue != "waybill.yaml" {
		t.Errorf("--config default = %q, want %q", cfgFlag.DefValue, "waybill.yaml")
	}
	if cfgFlag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", cfgFlag.Shorthand, "c")
	}
}

func TestCheckConfig(t *testing.T) {
	// A missing file is fine: defaults apply.
	cfg, result := checkConfig(t.TempDir() + "/waybill.yaml")
	if result.status != "PASS" {
		t.Errorf("missing config: %s: %s", result.status, result.detail)
	}
	if cfg == nil {
		t.Fatal("expected default config")
	}
}

func TestCheckTracker(t *testing.T) {
	cfg, _ := config.Parse(nil)
	result := checkTracker(cfg)
	if result.status != "PASS" || !strings.Contains(result.detail, "disabled") {
		t.Errorf("tracker off: %s: %s", result.status, result.detail)
	}

	cfg.Tracker.Mode = "github"
	cfg.Tracker.Owner = "zulandar"
	cfg.Tracker.Repo = "waybill"
	t.Setenv("WAYBILL_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")
	result = checkTracker(cfg)
	if result.status != "FAIL" {
		t.Errorf("tracker without credentials: %s: %s", result.status, result.detail)
	}
	if !strings.Contains(result.detail, "token") {
		t.Errorf("detail should name the missing token: %s", result.detail)
	}
}
