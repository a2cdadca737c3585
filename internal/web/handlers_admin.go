package web

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"leaderboard/internal/encounter"
	"leaderboard/internal/store"

	"github.com/gorilla/mux"
)

// requireUnlocked redirects visitors who have not beaten the dungeon.
func (s *Server) requireUnlocked(w http.ResponseWriter, r *http.Request) (Visitor, string, bool) {
	v, id := s.getOrCreateVisitor(r.Context(), w, r)
	if v.Encounter.Stage != encounter.StageUnlocked {
		http.Redirect(w, r, "/dungeon", http.StatusFound)
		return v, id, false
	}
	return v, id, true
}

// requireAdmin also demands the shared secret. Handlers that pass it may
// write to the store.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	v, _, ok := s.requireUnlocked(w, r)
	if !ok {
		return false
	}
	if !v.Admin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return false
	}
	return true
}

// GET /admin
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	v, _, ok := s.requireUnlocked(w, r)
	if !ok {
		return
	}
	s.renderAdmin(w, r, http.StatusOK, v.Admin, "", "")
}

func (s *Server) renderAdmin(w http.ResponseWriter, r *http.Request, status int, authorized bool, msg, errMsg string) {
	vm := AdminView{Authorized: authorized, Message: msg, Error: errMsg}
	if authorized {
		var err error
		if vm.Players, err = s.Repo.Players(r.Context()); err != nil {
			s.serverError(w, r, "load players", err)
			return
		}
		if vm.Games, err = s.Repo.Games(r.Context()); err != nil {
			s.serverError(w, r, "load games", err)
			return
		}
	}
	s.renderPage(w, r, status, Page{Title: "Panel de Administración", Name: "admin", Data: vm})
}

// POST /admin/login
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	v, id, ok := s.requireUnlocked(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.PostFormValue("secret")), []byte(s.AdminSecret)) != 1 {
		loggerFrom(r.Context()).Warn("admin login rejected")
		s.renderAdmin(w, r, http.StatusUnauthorized, false, "", "Contraseña incorrecta.")
		return
	}
	v.Admin = true
	s.saveVisitor(r.Context(), id, v)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// POST /admin/players
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	p, err := s.Repo.CreatePlayer(r.Context(), r.PostFormValue("name"), r.PostFormValue("nickname"))
	if errors.Is(err, store.ErrEmptyName) {
		s.renderAdmin(w, r, http.StatusBadRequest, true, "", "Por favor completa todos los campos.")
		return
	}
	if err != nil {
		s.serverError(w, r, "create player", err)
		return
	}
	loggerFrom(r.Context()).Info("player created", "player_id", p.ID)
	s.renderAdmin(w, r, http.StatusOK, true, fmt.Sprintf("Bienvenido mi estimado %s, es todo un honor.", p.Nickname), "")
}

// POST /admin/players/{id}/active
func (s *Server) handleSetPlayerActive(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	p, err := s.Repo.PlayerByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, "load player", err)
		return
	}
	active := r.PostFormValue("active") == "true"
	if err := s.Repo.SetPlayerActive(r.Context(), id, active); err != nil {
		s.serverError(w, r, "update player", err)
		return
	}
	msg := fmt.Sprintf("%s se retira de la Mesa.", p.Nickname)
	if active {
		msg = fmt.Sprintf("%s vuelve a la Mesa.", p.Nickname)
	}
	s.renderAdmin(w, r, http.StatusOK, true, msg, "")
}

// POST /admin/games
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	g, err := s.Repo.CreateGame(r.Context(), r.PostFormValue("name"), r.PostFormValue("category"))
	if errors.Is(err, store.ErrEmptyName) {
		s.renderAdmin(w, r, http.StatusBadRequest, true, "", "El juego necesita un nombre.")
		return
	}
	if errors.Is(err, store.ErrDuplicateName) {
		s.renderAdmin(w, r, http.StatusBadRequest, true, "", "Ese juego ya está en la ludoteca.")
		return
	}
	if err != nil {
		s.serverError(w, r, "create game", err)
		return
	}
	s.renderAdmin(w, r, http.StatusOK, true, fmt.Sprintf("%s se suma a la ludoteca.", g.Name), "")
}
