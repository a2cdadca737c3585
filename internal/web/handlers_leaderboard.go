package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leaderboard/internal/report"
	"leaderboard/internal/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	recentLimit       = 5
	reportRecentLimit = 12
	leaderboardTitle  = "Leaderboard: Noche de Caballeros"
)

var errBadForm = errors.New("bad form")

// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	vm, err := s.leaderboardView(r.Context())
	if err != nil {
		s.serverError(w, r, "load leaderboard", err)
		return
	}
	s.renderPage(w, r, http.StatusOK, Page{Title: leaderboardTitle, Name: "leaderboard", Data: vm})
}

func (s *Server) leaderboardView(ctx context.Context) (LeaderboardView, error) {
	standings, err := s.Repo.Standings(ctx)
	if err != nil {
		return LeaderboardView{}, err
	}
	recent, err := s.Repo.RecentMatches(ctx, recentLimit)
	if err != nil {
		return LeaderboardView{}, err
	}
	players, err := s.Repo.ActivePlayers(ctx)
	if err != nil {
		return LeaderboardView{}, err
	}
	games, err := s.Repo.Games(ctx)
	if err != nil {
		return LeaderboardView{}, err
	}
	return LeaderboardView{
		Standings: standingRows(standings),
		Recent:    recent,
		Players:   players,
		Games:     games,
		WinTypes:  store.WinTypes,
		PrizeWins: store.PrizeWins,
		Today:     today(),
	}, nil
}

// POST /matches
func (s *Server) handleRecordMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer().Start(r.Context(), "match.record")
	defer span.End()

	in, err := parseMatchForm(r)
	if err == nil {
		var matchID int64
		matchID, err = s.Repo.RecordMatch(ctx, in)
		if err == nil {
			span.SetAttributes(attribute.Int64("match.id", matchID), attribute.Int("match.participants", len(in.Participants)))
			loggerFrom(ctx).Info("match recorded", "match_id", matchID, "game_id", in.GameID, "winner_id", in.WinnerID)
		}
	}

	status, msg := http.StatusOK, ""
	switch {
	case err == nil:
		msg = "✅ ¡Partida registrada en los Libros de Historia!"
	case errors.Is(err, errBadForm):
		status, msg = http.StatusBadRequest, "⚠️ Formulario incompleto o inválido."
	case errors.Is(err, store.ErrNoParticipants):
		status, msg = http.StatusBadRequest, "⚠️ Debes seleccionar al menos un jugador."
	case errors.Is(err, store.ErrWinnerNotParticipant):
		status, msg = http.StatusBadRequest, "⚠️ El ganador debe estar entre los participantes."
	case errors.Is(err, store.ErrInvalidWinType):
		status, msg = http.StatusBadRequest, "⚠️ Tipo de victoria desconocido."
	case errors.Is(err, store.ErrUnknownReference):
		status, msg = http.StatusBadRequest, "⚠️ Jugador o juego desconocido."
	default:
		span.SetStatus(codes.Error, err.Error())
		s.serverError(w, r, "record match", err)
		return
	}

	vm, lerr := s.leaderboardView(ctx)
	if lerr != nil {
		s.serverError(w, r, "load leaderboard", lerr)
		return
	}
	if status == http.StatusOK {
		vm.Message = msg
	} else {
		vm.Error = msg
	}
	s.renderPage(w, r, status, Page{Title: leaderboardTitle, Name: "leaderboard", Data: vm})
}

// parseMatchForm reads date, host, game, winner, win_type and one or more
// players values.
func parseMatchForm(r *http.Request) (store.MatchInput, error) {
	if err := r.ParseForm(); err != nil {
		return store.MatchInput{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	var in store.MatchInput
	date := strings.TrimSpace(r.PostFormValue("date"))
	if date == "" {
		in.Date = time.Now()
	} else {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return in, fmt.Errorf("%w: date %q", errBadForm, date)
		}
		in.Date = d
	}

	var err error
	if in.HostID, err = formID(r, "host"); err != nil {
		return in, err
	}
	if in.GameID, err = formID(r, "game"); err != nil {
		return in, err
	}
	if in.WinnerID, err = formID(r, "winner"); err != nil {
		return in, err
	}
	in.WinType = r.PostFormValue("win_type")
	for _, raw := range r.PostForm["players"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, fmt.Errorf("%w: player %q", errBadForm, raw)
		}
		in.Participants = append(in.Participants, id)
	}
	return in, nil
}

func formID(r *http.Request, key string) (int64, error) {
	raw := r.PostFormValue(key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", errBadForm, key, raw)
	}
	return id, nil
}

// GET /leaderboard.pdf
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	standings, err := s.Repo.Standings(ctx)
	if err != nil {
		s.serverError(w, r, "load standings", err)
		return
	}
	recent, err := s.Repo.RecentMatches(ctx, reportRecentLimit)
	if err != nil {
		s.serverError(w, r, "load recent matches", err)
		return
	}
	pdf, err := report.Generate(leaderboardTitle, standings, recent)
	if err != nil {
		s.serverError(w, r, "generate report", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.pdf"`)
	_, _ = w.Write(pdf)
}
