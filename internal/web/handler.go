package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gwbischof/ghstyle/internal/progress"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler serves the generation status pages
type Handler struct {
	runs      *progress.Store
	templates *template.Template
}

// NewHandler creates a new web handler
func NewHandler(runs *progress.Store) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"statusColor":   statusColor,
		"statusIcon":    statusIcon,
		"logLevelColor": logLevelColor,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		runs:      runs,
		templates: tmpl,
	}, nil
}

// RegisterRoutes registers web UI routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleRunList).Methods("GET")
	r.HandleFunc("/run/{id}", h.handleRunDetail).Methods("GET")
}

// handleRunList renders the run list page
func (h *Handler) handleRunList(w http.ResponseWriter, r *http.Request) {
	runs := h.runs.List()

	data := struct {
		Runs []*progress.Run
	}{
		Runs: runs,
	}

	if err := h.templates.ExecuteTemplate(w, "run_list.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleRunDetail renders the run detail page
func (h *Handler) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	run, ok := h.runs.Get(runID)
	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	data := struct {
		Run *progress.Run
	}{
		Run: run,
	}

	if err := h.templates.ExecuteTemplate(w, "run_detail.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Helper functions for templates
func statusColor(status progress.RunStatus) string {
	switch status {
	case progress.StatusPending:
		return "#6c757d"
	case progress.StatusRunning:
		return "#0d6efd"
	case progress.StatusCompleted:
		return "#198754"
	case progress.StatusFailed:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

func statusIcon(status progress.RunStatus) string {
	switch status {
	case progress.StatusPending:
		return "○"
	case progress.StatusRunning:
		return "⟳"
	case progress.StatusCompleted:
		return "✓"
	case progress.StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

func logLevelColor(level string) string {
	switch strings.ToLower(level) {
	case "error":
		return "#dc3545"
	case "success":
		return "#198754"
	case "info":
		return "#0d6efd"
	default:
		return "#6c757d"
	}
}
