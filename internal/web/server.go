package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math/rand"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/wordquiz/internal/content"
	"github.com/conorfennell/wordquiz/internal/identity"
	"github.com/conorfennell/wordquiz/internal/vocab"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Options are the dependencies of the HTTP server.
type Options struct {
	Identity  *identity.Provider
	Vocab     *vocab.Manager
	Content   *content.Loader
	Sessions  *SessionStore
	Languages []string
	// NewRand seeds the randomness of each quiz. Defaults to the clock.
	NewRand func() *rand.Rand
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	identity  *identity.Provider
	vocab     *vocab.Manager
	content   *content.Loader
	sessions  *SessionStore
	languages []string
	newRand   func() *rand.Rand

	router    *http.ServeMux
	handler   http.Handler
	templates *template.Template
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// NewServer creates and configures a new server.
func NewServer(opts Options) (*Server, error) {
	tpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	newRand := opts.NewRand
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}

	s := &Server{
		identity:  opts.Identity,
		vocab:     opts.Vocab,
		content:   opts.Content,
		sessions:  opts.Sessions,
		languages: opts.Languages,
		newRand:   newRand,
		router:    http.NewServeMux(),
		templates: tpl,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	s.handler = s.sessions.Middleware(s.router)
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /login", s.handleLoginPage())
	s.router.HandleFunc("POST /login", s.handleLogin())
	s.router.HandleFunc("GET /register", s.handleRegisterPage())
	s.router.HandleFunc("POST /register", s.handleRegister())
	s.router.HandleFunc("POST /logout", s.handleLogout())

	s.router.HandleFunc("GET /{$}", requireLogin(s.handleLanguages()))
	s.router.HandleFunc("GET /lang/{lang}", requireLogin(s.handleDashboard()))

	s.router.HandleFunc("GET /lang/{lang}/quiz/{mode}", requireLogin(s.handleQuizPage()))
	s.router.HandleFunc("POST /lang/{lang}/quiz/{mode}/start", requireLogin(s.handleQuizStart()))
	s.router.HandleFunc("POST /lang/{lang}/quiz/{mode}/check", requireLogin(s.handleQuizCheck()))
	s.router.HandleFunc("POST /lang/{lang}/quiz/{mode}/next", requireLogin(s.handleQuizNext()))
	s.router.HandleFunc("POST /lang/{lang}/quiz/{mode}/cancel", requireLogin(s.handleQuizCancel()))
	s.router.HandleFunc("POST /lang/{lang}/quiz/{mode}/finish", requireLogin(s.handleQuizFinish()))

	s.router.HandleFunc("GET /lang/{lang}/cloze", requireLogin(s.handleClozeList()))
	s.router.HandleFunc("GET /lang/{lang}/cloze/{id}", requireLogin(s.handleClozePage()))
	s.router.HandleFunc("POST /lang/{lang}/cloze/{id}", requireLogin(s.handleClozeSubmit()))

	s.router.HandleFunc("GET /lang/{lang}/stats", requireLogin(s.handleStats()))
	s.router.HandleFunc("POST /lang/{lang}/words", requireLogin(s.handleWords()))
	s.router.HandleFunc("POST /lang/{lang}/history/clear", requireLogin(s.handleClearHistory()))

	s.router.HandleFunc("GET /lang/{lang}/writing", requireLogin(s.handleWritingPage()))
	s.router.HandleFunc("POST /lang/{lang}/writing", requireLogin(s.handleWritingAdd()))
	s.router.HandleFunc("POST /lang/{lang}/writing/delete", requireLogin(s.handleWritingDelete()))

	s.router.HandleFunc("GET /lang/{lang}/sentences", requireLogin(s.handleSentencesPage()))
	s.router.HandleFunc("POST /lang/{lang}/sentences", requireLogin(s.handleSentenceSave()))
	s.router.HandleFunc("POST /lang/{lang}/sentences/delete", requireLogin(s.handleSentenceDelete()))

	s.router.HandleFunc("GET /lang/{lang}/export.xlsx", requireLogin(s.handleExport()))
	return nil
}

// render executes a named template into a buffer so a failing template never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data map[string]interface{}) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data map[string]interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// serverError logs err and answers with a 500.
func serverError(w http.ResponseWriter, msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// language resolves the {lang} path value. Unknown languages get a 404.
func (s *Server) language(w http.ResponseWriter, r *http.Request) (string, bool) {
	lang := r.PathValue("lang")
	if !slices.Contains(s.languages, lang) {
		http.NotFound(w, r)
		return "", false
	}
	return lang, true
}

func langURL(lang string, parts ...string) string {
	return "/lang/" + lang + strings.Join(append([]string{""}, parts...), "/")
}

// page builds the template data shared by every page.
func page(sess *Session, lang string) map[string]interface{} {
	data := map[string]interface{}{"Lang": lang}
	if sess != nil {
		data["User"] = sess.User
	}
	return data
}
