package web

import (
	"time"

	"leaderboard/internal/encounter"
	"leaderboard/internal/store"

	"github.com/dustin/go-humanize"
)

// StandingRow is a leaderboard line with display-ready numbers.
type StandingRow struct {
	store.Standing
	Rank    int
	WinRate string
	LastWin string
}

// LeaderboardView backs the home page: standings, recent matches and the
// match form.
type LeaderboardView struct {
	Standings []StandingRow
	Recent    []store.RecentMatch
	Players   []store.Player
	Games     []store.Game
	WinTypes  []string
	PrizeWins int
	Today     string
	Message   string
	Error     string
}

func standingRows(standings []store.Standing) []StandingRow {
	rows := make([]StandingRow, 0, len(standings))
	for i, s := range standings {
		row := StandingRow{
			Standing: s,
			Rank:     i + 1,
			WinRate:  humanize.FtoaWithDigits(s.WinRate()*100, 1) + "%",
			LastWin:  "-",
		}
		if s.LastWin != nil {
			row.LastWin = s.LastWin.Format("02/01/2006")
		}
		rows = append(rows, row)
	}
	return rows
}

// Action is a button in the dungeon view.
type Action struct {
	Name  string
	Label string
}

// DungeonView renders one encounter stage.
type DungeonView struct {
	Title     string
	Stage     string
	Text      string
	Riddle    string
	SceneryID string
	Monster   string
	HPLabel   string
	HP        int
	MaxHP     int
	HPPercent int
	ShowHP    bool
	LogHeader string
	Log       []string
	Actions   []Action
	ShowForm  bool
	Unlocked  bool
	LastRoll  int
	Outcome   string
	Message   string
}

// AdminView backs the admin panel and its login form.
type AdminView struct {
	Authorized bool
	Players    []store.Player
	Games      []store.Game
	Message    string
	Error      string
}

func (s *Server) dungeonView(st encounter.State, msg string) DungeonView {
	n := s.Engine.Config.Narrative
	vm := DungeonView{
		Title:     n.Title,
		Stage:     st.Stage.String(),
		SceneryID: n.SceneryFor(st.Stage),
		Monster:   n.Monster,
		HPLabel:   n.HPLabel,
		HP:        st.DisplayHP(),
		MaxHP:     st.MonsterMaxHP,
		HPPercent: st.HPPercent(),
		LogHeader: n.LogHeader,
		Log:       st.RecentLog(s.Engine.Config.LogWindow),
		Message:   msg,
	}
	switch st.Stage {
	case encounter.StageDoor:
		vm.Text = n.Door
		vm.Actions = []Action{{"advance", n.Button("advance")}}
	case encounter.StageRevealed:
		vm.Text = n.Reveal
		vm.Actions = []Action{{"challenge", n.Button("challenge")}}
	case encounter.StageCombat:
		vm.Text = n.Combat
		vm.ShowHP = true
		vm.Actions = []Action{{"attack", n.Button("attack")}}
	case encounter.StageLoot:
		vm.Text = n.Loot
		vm.Riddle = n.Riddle
		vm.ShowForm = true
	case encounter.StageUnlocked:
		vm.Text = n.Victory
		vm.Unlocked = true
	}
	if st.Stage != encounter.StageDoor {
		vm.Actions = append(vm.Actions, Action{"reset", n.Button("reset")})
	}
	return vm
}

func today() string {
	return time.Now().Format("2006-01-02")
}
