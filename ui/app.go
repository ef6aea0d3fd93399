package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vcfo/app"
	"vcfo/internal"
	"vcfo/ports"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App represents the web application
type App struct {
	router    *chi.Mux
	chat      *app.ChatService
	sessions  ports.SessionStore
	templates *template.Template
	uploadDir string
	staticDir string
	port      string
	log       *internal.Logger
}

// Config holds web application configuration
type Config struct {
	Port      string
	UploadDir string
	StaticDir string
}

// NewApp creates a new web application
func NewApp(config Config, chat *app.ChatService, sessions ports.SessionStore, log *internal.Logger) (*App, error) {
	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if log == nil {
		log = internal.DefaultLogger
	}

	a := &App{
		router:    chi.NewRouter(),
		chat:      chat,
		sessions:  sessions,
		templates: templates,
		uploadDir: config.UploadDir,
		staticDir: config.StaticDir,
		port:      config.Port,
		log:       log,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleHome)
	a.router.Post("/", a.handleUpload)
	a.router.Post("/chat", a.handleChat)

	// Charts are written to the static dir at request time, so serve it
	// from disk rather than the embedded FS.
	staticFS := http.FileServer(http.Dir(a.staticDir))
	a.router.Handle("/static/*", http.StripPrefix("/static/", staticFS))
}

// Handler exposes the router for serving.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.port
	a.log.Info("starting virtual CFO server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// renderTemplate writes a template response
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		a.log.Error("template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
