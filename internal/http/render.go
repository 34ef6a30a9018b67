package http

import (
	"html/template"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/entities"
)

// Renderer writes page data either through HTML templates or, when no
// templates are loaded, as JSON.
type Renderer struct {
	html bool
}

// loadTemplates parses <path>/*.html. It returns nil when the directory is
// unset or holds no templates.
func loadTemplates(path string) *template.Template {
	if path == "" {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*.html"))
	if err != nil || len(matches) == 0 {
		return nil
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(entities.DateLayout)
		},
		"subtract": func(a, b int) int {
			return a - b
		},
	}
	return template.Must(template.New("").Funcs(funcMap).ParseFiles(matches...))
}

// Render writes data under the named template with status.
func (r *Renderer) Render(c *gin.Context, status int, name string, data gin.H) {
	if r == nil || !r.html {
		c.JSON(status, data)
		return
	}

	data["csrf_token"] = auth.GetCSRFToken(c)
	data["actor"] = auth.GetActor(c)
	c.HTML(status, name, data)
}
