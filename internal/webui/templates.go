package webui

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ca-srg/researchpanel/internal/panel"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFiles embed.FS

const (
	pageTemplate  = "index.html"
	panelTemplate = "panel"
)

// TemplateManager manages HTML templates
type TemplateManager struct {
	templates *template.Template
}

// NewTemplateManager parses the embedded templates
func NewTemplateManager() (*TemplateManager, error) {
	funcMap := template.FuncMap{
		"statusClass": statusClass,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(
		templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &TemplateManager{
		templates: tmpl,
	}, nil
}

// Render renders a template to the writer
func (tm *TemplateManager) Render(w io.Writer, name string, data interface{}) error {
	return tm.templates.ExecuteTemplate(w, name, data)
}

// statusClass returns the CSS class for a panel status
func statusClass(status panel.Status) string {
	switch status {
	case panel.StatusPending:
		return "status-pending"
	case panel.StatusSucceeded:
		return "status-succeeded"
	case panel.StatusFailed:
		return "status-failed"
	default:
		return "status-idle"
	}
}
