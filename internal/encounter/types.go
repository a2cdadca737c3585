package encounter

import "slices"

// Stage is the current phase of an encounter.
type Stage int

const (
	// StageDoor is the initial stage: the party stands before the door.
	StageDoor Stage = iota
	// StageRevealed shows the guardian behind the door.
	StageRevealed
	// StageCombat is the d20 fight against the guardian.
	StageCombat
	// StageLoot holds the riddle that guards the treasure.
	StageLoot
	// StageUnlocked is terminal; downstream pages treat it as access granted.
	StageUnlocked
)

func (s Stage) String() string {
	switch s {
	case StageDoor:
		return "door"
	case StageRevealed:
		return "revealed"
	case StageCombat:
		return "combat"
	case StageLoot:
		return "loot"
	case StageUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Outcome classifies a single attack roll.
type Outcome string

const (
	OutcomeCritical Outcome = "critical"
	OutcomeFumble   Outcome = "fumble"
	OutcomeHit      Outcome = "hit"
)

// State is one visitor's encounter. It is owned by the caller's session;
// the engine only transforms it.
type State struct {
	Stage         Stage
	MonsterHP     int
	MonsterMaxHP  int
	CombatLog     []string // most recent first
	HasFumbledYet bool
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := s
	out.CombatLog = slices.Clone(s.CombatLog)
	return out
}

// RecentLog returns at most n of the newest log entries.
func (s State) RecentLog(n int) []string {
	if n <= 0 || len(s.CombatLog) <= n {
		return s.CombatLog
	}
	return s.CombatLog[:n]
}

// DisplayHP is MonsterHP floored at zero for progress bars.
func (s State) DisplayHP() int {
	if s.MonsterHP < 0 {
		return 0
	}
	return s.MonsterHP
}

// HPPercent is the remaining health as an integer percentage.
func (s State) HPPercent() int {
	if s.MonsterMaxHP <= 0 {
		return 0
	}
	return s.DisplayHP() * 100 / s.MonsterMaxHP
}

// AttackResult is the outcome of one Attack call.
type AttackResult struct {
	State   State
	Roll    int
	Damage  int
	Outcome Outcome
	Forced  bool   // the one-time fumble safeguard fired
	Taunt   string // set on fumbles
	Slain   bool   // this attack moved the encounter to StageLoot
}

// AnswerResult is the outcome of one SubmitAnswer call.
type AnswerResult struct {
	State    State
	Accepted bool
	Hint     string // set when rejected
}
