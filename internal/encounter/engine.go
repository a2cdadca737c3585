package encounter

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const d20 = 20

type Engine struct {
	Config *Config
	Rand   Roller
}

// New returns an Engine for cfg. A nil roller gets a time-seeded one.
func New(cfg *Config, r Roller) *Engine {
	if r == nil {
		r = NewRoller(0)
	}
	return &Engine{Config: cfg, Rand: r}
}

// NewState returns the state a visitor starts with and returns to on Reset.
func (e *Engine) NewState() State {
	return State{
		Stage:        StageDoor,
		MonsterHP:    e.Config.MonsterMaxHP,
		MonsterMaxHP: e.Config.MonsterMaxHP,
		CombatLog:    []string{},
	}
}

func (e *Engine) Advance(st State) (State, error) {
	if err := requireStage("advance", st, StageDoor); err != nil {
		return st, err
	}
	st.Stage = StageRevealed
	return st, nil
}

func (e *Engine) Challenge(st State) (State, error) {
	if err := requireStage("challenge", st, StageRevealed); err != nil {
		return st, err
	}
	st.Stage = StageCombat
	return st, nil
}

// Attack resolves one d20 roll against the guardian.
//
// The first time the guardian's HP is under the threshold, the roll is
// forced to 1. That happens at most once per encounter, and a natural 1
// earlier uses it up too.
func (e *Engine) Attack(st State) (AttackResult, error) {
	if err := requireStage("attack", st, StageCombat); err != nil {
		return AttackResult{State: st}, err
	}

	forced := e.Config.belowThreshold(st.MonsterHP, st.MonsterMaxHP) && !st.HasFumbledYet

	var roll int
	if forced {
		roll = 1
		st.HasFumbledYet = true
	} else {
		roll = rollDie(e.Rand, d20)
		if roll == 1 {
			st.HasFumbledYet = true
		}
	}

	res := AttackResult{Roll: roll, Forced: forced}
	switch roll {
	case d20:
		res.Outcome = OutcomeCritical
		res.Damage = 2 * roll
	case 1:
		res.Outcome = OutcomeFumble
		res.Damage = 0
		res.Taunt = e.Config.Taunts[e.Rand.Intn(len(e.Config.Taunts))]
	default:
		res.Outcome = OutcomeHit
		res.Damage = roll
	}

	st.MonsterHP -= res.Damage
	entry := e.logEntry(res)
	// Never append in place: callers may still hold the previous state.
	st.CombatLog = append([]string{entry}, st.CombatLog...)

	if st.MonsterHP <= 0 {
		st.Stage = StageLoot
		res.Slain = true
	}
	res.State = st
	return res, nil
}

func (e *Engine) logEntry(res AttackResult) string {
	format := e.Config.LogFormat.Hit
	switch res.Outcome {
	case OutcomeCritical:
		format = e.Config.LogFormat.Critical
	case OutcomeFumble:
		format = e.Config.LogFormat.Fumble
	}
	r := strings.NewReplacer(
		"{roll}", strconv.Itoa(res.Roll),
		"{damage}", strconv.Itoa(res.Damage),
		"{taunt}", res.Taunt,
	)
	out := r.Replace(format)
	if res.Taunt != "" && !strings.Contains(format, "{taunt}") {
		out += " " + res.Taunt
	}
	return out
}

// SubmitAnswer checks a riddle guess. A wrong or empty guess leaves the
// state unchanged; empty input also returns ErrInvalidInput.
func (e *Engine) SubmitAnswer(st State, answer string) (AnswerResult, error) {
	if err := requireStage("answer", st, StageLoot); err != nil {
		return AnswerResult{State: st}, err
	}
	guess := normalizeAnswer(answer)
	if guess == "" {
		return AnswerResult{State: st, Hint: e.Config.Narrative.Hint}, ErrInvalidInput
	}
	for _, a := range e.Config.Answers {
		if a == guess {
			st.Stage = StageUnlocked
			return AnswerResult{State: st, Accepted: true}, nil
		}
	}
	return AnswerResult{State: st, Hint: e.Config.Narrative.Hint}, nil
}

func (e *Engine) Reset(State) State {
	return e.NewState()
}

// normalizeAnswer trims and lowercases. A Caser is stateful, so each call
// gets its own.
func normalizeAnswer(s string) string {
	return cases.Lower(language.Spanish).String(strings.TrimSpace(s))
}
