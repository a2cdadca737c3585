package web

import (
	"context"
	"html/template"
	"net/http"

	"leaderboard/internal/encounter"
	"leaderboard/internal/session"
	"leaderboard/internal/store"
	"leaderboard/internal/telemetry"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

// Visitor is everything kept for one browser session. The encounter state
// lives only here and is never written to the database.
type Visitor struct {
	Encounter encounter.State
	Admin     bool
}

type Server struct {
	Engine      *encounter.Engine
	Store       session.Store[Visitor]
	Repo        *store.Repository
	Tmpl        *template.Template
	AdminSecret string
	Tracer      trace.Tracer
	StaticDir   string
}

const cookieName = "leaderboard_sid"

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/matches", s.handleRecordMatch).Methods(http.MethodPost)
	r.HandleFunc("/leaderboard.pdf", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/rules", s.handleRules).Methods(http.MethodGet)

	r.HandleFunc("/dungeon", s.handleDungeon).Methods(http.MethodGet)
	r.HandleFunc("/dungeon/{action}", s.handleDungeonAction).Methods(http.MethodPost)
	r.HandleFunc("/scenery/{id:[a-z_]+}.png", s.handleScenery).Methods(http.MethodGet)

	r.HandleFunc("/admin", s.handleAdmin).Methods(http.MethodGet)
	r.HandleFunc("/admin/login", s.handleAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/admin/players", s.handleCreatePlayer).Methods(http.MethodPost)
	r.HandleFunc("/admin/players/{id:[0-9]+}/active", s.handleSetPlayerActive).Methods(http.MethodPost)
	r.HandleFunc("/admin/games", s.handleCreateGame).Methods(http.MethodPost)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir()))))
	return WithLogging(r)
}

func (s *Server) staticDir() string {
	if s.StaticDir == "" {
		return "static"
	}
	return s.StaticDir
}

func (s *Server) tracer() trace.Tracer {
	if s.Tracer == nil {
		return telemetry.NoopTracer()
	}
	return s.Tracer
}

// getOrCreateVisitor loads the visitor for the request cookie, starting a
// fresh encounter when there is no cookie or the session has expired.
func (s *Server) getOrCreateVisitor(ctx context.Context, w http.ResponseWriter, r *http.Request) (Visitor, string) {
	id := s.sessionID(r)
	if id == "" {
		id = s.Store.NewID()
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		v := Visitor{Encounter: s.Engine.NewState()}
		s.saveVisitor(ctx, id, v)
		return v, id
	}

	v, ok, err := s.Store.Get(ctx, id)
	if err != nil || !ok {
		v = Visitor{Encounter: s.Engine.NewState()}
		s.saveVisitor(ctx, id, v)
	}
	return v, id
}

func (s *Server) saveVisitor(ctx context.Context, id string, v Visitor) {
	if err := s.Store.Put(ctx, id, v); err != nil {
		loggerFrom(ctx).Error("save session", "error", err)
	}
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Page is the data handed to layout.html; Name picks the body template.
type Page struct {
	Title string
	Name  string
	Data  any
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, p Page) {
	s.render(w, r, status, "layout.html", p)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		loggerFrom(r.Context()).Error("render template", "template", name, "error", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	loggerFrom(r.Context()).Error(msg, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, Page{Title: "Reglamento", Name: "rules"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Repo.Ping(r.Context()); err != nil {
		loggerFrom(r.Context()).Warn("health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
