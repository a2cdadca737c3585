package web

import (
	"errors"
	"net/http"

	"leaderboard/internal/encounter"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const msgWrongStage = "Esa acción no corresponde aquí. La mazmorra sigue como estaba."

// GET /dungeon
func (s *Server) handleDungeon(w http.ResponseWriter, r *http.Request) {
	v, _ := s.getOrCreateVisitor(r.Context(), w, r)
	vm := s.dungeonView(v.Encounter, "")
	s.renderPage(w, r, http.StatusOK, Page{Title: vm.Title, Name: "dungeon", Data: vm})
}

// POST /dungeon/{action}
//
// htmx requests get the dungeon fragment back; plain form posts are
// redirected to GET /dungeon.
func (s *Server) handleDungeonAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	ctx, span := s.tracer().Start(r.Context(), "encounter."+action)
	defer span.End()

	v, id := s.getOrCreateVisitor(ctx, w, r)
	before := v.Encounter.Stage
	span.SetAttributes(attribute.String("encounter.stage_before", before.String()))

	var (
		st   encounter.State
		err  error
		msg  string
		roll int
		out  encounter.Outcome
	)
	switch action {
	case "advance":
		st, err = s.Engine.Advance(v.Encounter)
	case "challenge":
		st, err = s.Engine.Challenge(v.Encounter)
	case "attack":
		var res encounter.AttackResult
		res, err = s.Engine.Attack(v.Encounter)
		if err == nil {
			st, roll, out = res.State, res.Roll, res.Outcome
			msg = res.Taunt
			span.SetAttributes(
				attribute.Int("encounter.roll", res.Roll),
				attribute.Int("encounter.damage", res.Damage),
				attribute.String("encounter.outcome", string(res.Outcome)),
				attribute.Bool("encounter.forced", res.Forced),
				attribute.Int("encounter.monster_hp", res.State.MonsterHP),
			)
			if res.Slain {
				loggerFrom(ctx).Info("guardian slain", "encounter", s.Engine.Config.ID)
			}
		}
	case "answer":
		if perr := r.ParseForm(); perr != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		var res encounter.AnswerResult
		res, err = s.Engine.SubmitAnswer(v.Encounter, r.FormValue("answer"))
		st, msg = res.State, res.Hint
		span.SetAttributes(attribute.Bool("encounter.accepted", res.Accepted))
		if errors.Is(err, encounter.ErrInvalidInput) {
			// An empty answer is just another rejection.
			err = nil
		}
		if res.Accepted {
			loggerFrom(ctx).Info("dungeon unlocked", "encounter", s.Engine.Config.ID)
		}
	case "reset":
		st = s.Engine.Reset(v.Encounter)
		v.Admin = false
	default:
		http.NotFound(w, r)
		return
	}

	status := http.StatusOK
	if err != nil {
		if !errors.Is(err, encounter.ErrInvalidStage) {
			span.SetStatus(codes.Error, err.Error())
			s.serverError(w, r, "encounter action", err)
			return
		}
		loggerFrom(ctx).Debug("action rejected", "action", action, "stage", before.String())
		span.AddEvent("invalid stage", trace.WithAttributes(attribute.String("encounter.action", action)))
		st, msg, status = v.Encounter, msgWrongStage, http.StatusConflict
	}

	v.Encounter = st
	s.saveVisitor(ctx, id, v)
	span.SetAttributes(attribute.String("encounter.stage_after", st.Stage.String()))

	if !isHTMX(r) {
		if status != http.StatusOK {
			vm := s.dungeonView(st, msg)
			s.renderPage(w, r, status, Page{Title: vm.Title, Name: "dungeon", Data: vm})
			return
		}
		http.Redirect(w, r, "/dungeon", http.StatusSeeOther)
		return
	}
	vm := s.dungeonView(st, msg)
	vm.LastRoll, vm.Outcome = roll, string(out)
	s.render(w, r, status, "dungeon.html", vm)
}
