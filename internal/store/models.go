package store

import (
	"errors"
	"time"
)

var (
	ErrEmptyName            = errors.New("name is required")
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrWinnerNotParticipant = errors.New("winner must be among the participants")
	ErrInvalidWinType       = errors.New("unknown win type")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateName        = errors.New("name already exists")
	ErrUnknownReference     = errors.New("unknown player or game")
)

// Win types, as stored in matches.win_type.
const (
	WinNormal = "Normal"
	WinPaliza = "Paliza"
	WinClutch = "Clutch (Sufrida)"
)

// WinTypes lists the accepted win types in display order.
var WinTypes = []string{WinNormal, WinPaliza, WinClutch}

// PrizeWins is the number of victories that earns the wine.
const PrizeWins = 5

// Rank values written to match_participants.
const (
	RankWinner = 1
	RankOther  = 2
)

type Player struct {
	ID        int64
	Name      string
	Nickname  string
	Active    bool
	CreatedAt time.Time
}

type Game struct {
	ID       int64
	Name     string
	Category string
}

// MatchInput is one played game on a game night.
type MatchInput struct {
	Date         time.Time
	HostID       int64
	GameID       int64
	WinnerID     int64
	WinType      string
	Participants []int64
}

// RecentMatch is a row of the "last battles" view.
type RecentMatch struct {
	ID      int64
	Game    string
	Winner  string
	WinType string
	Date    time.Time
}

// Standing is one player's line on the leaderboard.
type Standing struct {
	PlayerID int64
	Name     string
	Nickname string
	Wins     int
	Played   int
	LastWin  *time.Time
}

// WinRate is wins over matches played, 0 when nothing was played.
func (s Standing) WinRate() float64 {
	if s.Played == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Played)
}

// PrizeEarned reports whether the player reached the prize goal.
func (s Standing) PrizeEarned() bool {
	return s.Wins >= PrizeWins
}
