// Package ui serves a read-only audit view of a verification ledger.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"equivproof/internal"
	"equivproof/internal/api"
	"equivproof/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*
var embeddedFiles embed.FS

// Reporter renders a complete HTML report of the ledger.
type Reporter interface {
	WriteHTML(w io.Writer) error
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// App represents the audit viewer
type App struct {
	config    Config
	router    *chi.Mux
	reader    ports.LedgerReaderPort
	reporter  Reporter
	templates *template.Template
	logger    *internal.Logger
}

// NewApp creates a new audit viewer over reader. reporter may be nil, in
// which case /report is not served.
func NewApp(config Config, reader ports.LedgerReaderPort, reporter Reporter, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		config:    config,
		router:    chi.NewRouter(),
		reader:    reader,
		reporter:  reporter,
		templates: templates,
		logger:    logger.With("UI"),
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	if a.reporter != nil {
		a.router.Get("/report", a.handleReport)
	}
	a.router.Mount("/api", api.NewRouter(a.reader))
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.router }

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	a.logger.Info("starting audit viewer on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Targets    []api.TargetSummary
		WithReport bool
	}{
		Targets:    api.Summaries(a.reader),
		WithReport: a.reporter != nil,
	}
	a.renderTemplate(w, "index.html", data)
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.reporter.WriteHTML(w); err != nil {
		a.logger.Error("report error: %v", err)
		http.Error(w, "Report error", http.StatusInternalServerError)
	}
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.logger.Error("template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
