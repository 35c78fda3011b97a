package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/waybill/internal/board"
	"github.com/zulandar/waybill/internal/config"
	"github.com/zulandar/waybill/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve a local web view of the boards",
		Long:  "Starts a read-only HTTP dashboard showing the board of every migration in the active feature. Boards are re-read from disk on each request.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to Waybill config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int) error {
	// Fail on a bad setup before binding the port.
	w, err := openWorkspace(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = w.cfg.Dashboard.Port
	}

	load := func() ([]board.Status, error) {
		w, err := openWorkspace(configPath)
		if err != nil {
			return nil, err
		}
		var boards []board.Status
		for _, mig := range w.mgr.All() {
			b, _, err := w.boardFor(mig)
			if err != nil {
				return nil, err
			}
			boards = append(boards, b)
		}
		return boards, nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return dashboard.Start(ctx, dashboard.StartOpts{
		Load: load,
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}
