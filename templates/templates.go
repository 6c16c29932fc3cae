// Package templates embeds the admin HTML views.
package templates

import (
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gin-contrib/multitemplate"
)

//go:embed layout.html
var layout string

//go:embed admin_dashboard.html
var adminDashboard string

var funcs = template.FuncMap{
	"fmtTime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05 MST") },
	"field": func(e map[string]any, key string) string {
		v, ok := e[key]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	},
}

// NewRenderer returns the gin HTML renderer with every admin view.
func NewRenderer() multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	r.AddFromStringsFuncs("admin_dashboard", funcs, layout, adminDashboard)
	return r
}
