package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/feature"
)

func newFeatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature",
		Short: "Manage features",
	}
	cmd.AddCommand(newFeatureInitCmd())
	cmd.AddCommand(newFeatureStatusCmd())
	return cmd
}

func newFeatureInitCmd() *cobra.Command {
	var (
		configPath  string
		sourceIssue string
	)

	cmd := &cobra.Command{
		Use:   "init <id> <name>",
		Short: "Create a new feature",
		Long:  "Creates the feature directory and metadata under the specs dir. The branch name is rendered from the configured branch pattern, e.g. 004-payment-retries.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatureInit(cmd, configPath, args[0], args[1], sourceIssue)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().StringVar(&sourceIssue, "source-issue", "", "tracker issue URL this feature originates from")
	return cmd
}

func runFeatureInit(cmd *cobra.Command, configPath, featureID, featureName, sourceIssue string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	branch := feature.BranchName(cfg.BranchPattern, featureID, featureName)
	if err := feature.ValidateBranchName(branch); err != nil {
		return err
	}

	store := feature.NewStore(filepath.Join(cfg.SpecsDir, branch))
	feat, err := store.Init(featureID, featureName, branch)
	if err != nil {
		return err
	}
	if sourceIssue != "" {
		feat.SourceIssue = sourceIssue
		if err := store.Save(feat); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Feature %s created at %s\n", feat.DisplayName(), store.Dir())
	fmt.Fprintf(out, "Branch: %s\n", branch)
	return nil
}

func newFeatureStatusCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show feature progress summary",
		Long:  "Summarizes the active feature: migration counts, task totals, and the current migration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatureStatus(cmd, configPath, asJSON)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of text")
	return cmd
}

func runFeatureStatus(cmd *cobra.Command, configPath string, asJSON bool) error {
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}

	summary := w.mgr.Status()
	out := cmd.OutOrStdout()

	if asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Feature: %s-%s\n", summary.FeatureID, summary.FeatureName)
	current := summary.CurrentMigration
	if current == "" {
		current = "(none)"
	}
	fmt.Fprintf(out, "Current migration: %s\n", current)
	fmt.Fprintf(out, "Migrations: %d/%d completed\n", summary.CompletedMigrations, summary.TotalMigrations)
	fmt.Fprintf(out, "Tasks: %d completed, %d pending\n", summary.CompletedTasks, summary.PendingTasks)
	return nil
}
