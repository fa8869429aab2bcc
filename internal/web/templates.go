package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"statusLabel": func(s string) string {
		switch s {
		case "todo":
			return "To-Do"
		case "in-progress":
			return "In Progress"
		case "completed":
			return "Completed"
		}
		return s
	},
}).ParseFS(templateFS, "templates/*.html"))
