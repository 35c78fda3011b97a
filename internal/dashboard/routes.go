package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/waybill/internal/board"
)

// registerRoutes wires the HTML page and the JSON API.
func registerRoutes(router *gin.Engine, load Loader) {
	router.GET("/", func(c *gin.Context) {
		boards, err := load()
		if err != nil {
			c.String(http.StatusInternalServerError, "load boards: %v", err)
			return
		}
		c.HTML(http.StatusOK, "index", gin.H{"Boards": withChecks(boards)})
	})

	router.GET("/api/boards", func(c *gin.Context) {
		boards, err := load()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, boards)
	})
}

// boardView pairs a board with its derived checks for the template.
type boardView struct {
	Board      board.Status
	Violations []board.Violation
}

func withChecks(boards []board.Status) []boardView {
	views := make([]boardView, 0, len(boards))
	for _, b := range boards {
		views = append(views, boardView{
			Board:      b,
			Violations: board.CheckWIP(b),
		})
	}
	return views
}

// indexHTML is the single-page board view.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>Waybill</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #f6f7f9; }
h1 { font-size: 1.3rem; }
h2 { font-size: 1.05rem; margin-top: 2rem; }
.board { display: flex; gap: 1rem; align-items: flex-start; }
.col { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: .6rem; min-width: 14rem; }
.col h3 { font-size: .9rem; margin: 0 0 .5rem; }
.task { border-left: 3px solid #888; padding: .25rem .5rem; margin: .3rem 0; font-size: .85rem; background: #fafafa; }
.wip { color: #b00; font-size: .85rem; }
</style>
</head>
<body>
<h1>Waybill board</h1>
{{range .Boards}}
<h2>{{.Board.FeatureName}} — migration {{.Board.MigrationID}}</h2>
<div class="board">
{{range .Board.Columns}}
<div class="col">
<h3>{{.Name}} [{{len .Tasks}}{{if .WIPLimit}}/{{.WIPLimit}}{{end}}]</h3>
{{range .Tasks}}<div class="task">{{.ID}} {{.Description}}</div>{{end}}
</div>
{{end}}
</div>
{{range .Violations}}<p class="wip">WIP: "{{.Column}}" has {{.Current}}/{{.Limit}} items</p>{{end}}
{{else}}
<p>No active boards.</p>
{{end}}
</body>
</html>`
