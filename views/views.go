// Package views embeds the html templates.
package views

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"masterclass.link/models"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templates embed.FS

const timeLayout = "Mon 2 Jan 2006, 15:04"

// NewEngine returns the html engine over the embedded templates.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("deref", models.Deref)
	engine.AddFunc("formatTime", func(t *time.Time) string {
		if t == nil {
			return "To be confirmed"
		}
		return t.Format(timeLayout)
	})
	engine.AddFunc("join", strings.Join)
	return engine
}
