// ABOUTME: Template rendering functions for the viewer UI
// ABOUTME: Loads templates from the embedded filesystem and renders them

package web

import (
	"html/template"
	"net/http"

	"github.com/sqlpeek/sqlpeek/internal/viewer"
)

// Template data types
type loginData struct {
	Title string
	Error string
}

type homeData struct {
	Title    string
	Username string
	DBPath   string
	Columns  []string
	Rows     [][]string
	Error    string
}

// renderLoginPage renders the login form, optionally with an error line.
func (h *Handler) renderLoginPage(w http.ResponseWriter, errorMsg string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := loginData{
		Title: "Login",
		Error: errorMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// renderHome renders the users table, the empty state, or an inline error.
func (h *Handler) renderHome(w http.ResponseWriter, result viewer.ViewResult) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/index.html"))

	data := homeData{
		Title:    "Database Viewer",
		Username: result.Username,
		DBPath:   result.DBPath,
		Columns:  result.RowSet.Columns,
		Rows:     result.RowSet.Rows,
		Error:    result.Error,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render home page", "error", err)
	}
}
