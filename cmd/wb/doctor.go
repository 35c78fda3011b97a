package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/feature"
	"github.com/zulandar/waybill/internal/journal"
	"github.com/zulandar/waybill/internal/migration"
	"github.com/zulandar/waybill/internal/tracker"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites and configuration",
		Long:  "Runs diagnostic checks on Waybill prerequisites: config, git repo, feature metadata, migration folders, journal, and tracker credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Waybill Doctor")
	fmt.Fprintln(out, "==============")

	var results []checkResult

	// 1. Config
	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	// 2. Git repo
	results = append(results, checkGitRepo())

	// 3. Feature metadata
	if cfg != nil {
		results = append(results, checkFeature(cfg)...)
	} else {
		results = append(results, checkResult{"Feature", "FAIL", "skipped (no config)"})
	}

	// 4. Journal
	if cfg != nil {
		results = append(results, checkJournal(cfg))
	} else {
		results = append(results, checkResult{"Journal", "FAIL", "skipped (no config)"})
	}

	// 5. Tracker
	if cfg != nil {
		tracker := checkTracker(cfg)
		results = append(results, tracker)
		if tracker.status == "PASS" && cfg.Tracker.Mode == "github" {
			results = append(results, checkBoardColumns(cmd.Context(), cfg))
		}
	} else {
		results = append(results, checkResult{"Tracker", "FAIL", "skipped (no config)"})
	}

	// Print results.
	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkGitRepo() checkResult {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	if err := cmd.Run(); err != nil {
		return checkResult{"Git repo", "WARN", "not inside a git repository (branch resolution disabled)"}
	}
	return checkResult{"Git repo", "PASS", "valid"}
}

func checkFeature(cfg *config.Config) []checkResult {
	store, err := feature.Resolve(cfg.SpecsDir, feature.CurrentBranch("."))
	if err != nil {
		return []checkResult{{"Feature", "WARN", fmt.Sprintf("no active feature under %s: %v", cfg.SpecsDir, err)}}
	}

	feat, err := store.Load()
	if err != nil {
		return []checkResult{{"Feature", "FAIL", fmt.Sprintf("load metadata: %v", err)}}
	}

	results := []checkResult{
		{"Feature", "PASS", fmt.Sprintf("%s (%d migrations)", feat.DisplayName(), len(feat.Migrations))},
	}

	// Migration folders on disk vs the metadata map.
	folders, err := migration.ScanFolders(store.Dir())
	if err != nil {
		results = append(results, checkResult{"Migration folders", "FAIL", err.Error()})
		return results
	}
	known := 0
	for _, f := range folders {
		if id, _, ok := migration.ParseFolder(f); ok {
			if _, exists := feat.Migrations[id]; exists {
				known++
			}
		}
	}
	if known == len(folders) {
		results = append(results, checkResult{"Migration folders", "PASS", fmt.Sprintf("%d on disk, all tracked", len(folders))})
	} else {
		results = append(results, checkResult{"Migration folders", "WARN", fmt.Sprintf("%d on disk, %d untracked", len(folders), len(folders)-known)})
	}
	return results
}

func checkJournal(cfg *config.Config) checkResult {
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return checkResult{"Journal", "WARN", fmt.Sprintf("%s: %v", cfg.Journal.Path, err)}
	}
	if _, err := j.Recent("", 1); err != nil {
		return checkResult{"Journal", "WARN", fmt.Sprintf("query: %v", err)}
	}
	return checkResult{"Journal", "PASS", cfg.Journal.Path}
}

// checkBoardColumns verifies every configured column option exists on the
// remote board's Status field.
func checkBoardColumns(ctx context.Context, cfg *config.Config) checkResult {
	client, err := tracker.NewGitHub(
		config.GitHubToken(),
		cfg.Tracker.Owner,
		cfg.Tracker.Repo,
		time.Duration(cfg.Tracker.TimeoutSeconds)*time.Second,
	)
	if err != nil {
		return checkResult{"Board columns", "FAIL", err.Error()}
	}

	cols, err := client.GetBoardColumns(ctx, cfg.Tracker.ProjectID)
	if err != nil {
		return checkResult{"Board columns", "FAIL", err.Error()}
	}

	remote := make(map[string]bool, len(cols))
	for _, c := range cols {
		remote[c.OptionID] = true
	}
	var unknown []string
	for col, optionID := range cfg.Tracker.ColumnOptions {
		if !remote[optionID] {
			unknown = append(unknown, col)
		}
	}
	if len(unknown) > 0 {
		return checkResult{"Board columns", "WARN", "options not on the board: " + strings.Join(unknown, ", ")}
	}
	return checkResult{"Board columns", "PASS", fmt.Sprintf("%d remote options, all mappings valid", len(cols))}
}

func checkTracker(cfg *config.Config) checkResult {
	if cfg.Tracker.Mode != "github" {
		return checkResult{"Tracker", "PASS", "disabled (tracker.mode: off)"}
	}

	var missing []string
	if config.GitHubToken() == "" {
		missing = append(missing, "token (WAYBILL_GITHUB_TOKEN or GITHUB_TOKEN)")
	}
	if cfg.Tracker.ProjectID == "" {
		missing = append(missing, "tracker.project_id")
	}
	if cfg.Tracker.StatusFieldID == "" {
		missing = append(missing, "tracker.status_field_id")
	}
	if len(missing) > 0 {
		return checkResult{"Tracker", "FAIL", "missing " + strings.Join(missing, ", ")}
	}
	return checkResult{"Tracker", "PASS", fmt.Sprintf("github (%s/%s)", cfg.Tracker.Owner, cfg.Tracker.Repo)}
}
