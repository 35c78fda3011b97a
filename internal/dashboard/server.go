// Package dashboard serves a read-only local web view of feature boards.
// It renders the same projection the board command prints; nothing here
// mutates ledger or sync state.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/waybill/internal/board"
)

// Loader produces the current board views on each request. The dashboard
// re-reads from disk every time so a hand-edited ledger shows up on reload.
type Loader func() ([]board.Status, error)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Load Loader
	Port int
	Out  io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Load == nil {
		return fmt.Errorf("dashboard: loader is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8787
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return fmt.Errorf("dashboard: parse template: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, opts.Load)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
