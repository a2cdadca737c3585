package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

func (r *Repository) ActivePlayers(ctx context.Context) ([]Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, name, nickname, active, created_at
		FROM players
		WHERE active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Nickname, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Players lists everyone, active players first, for the admin roster.
func (r *Repository) Players(ctx context.Context) ([]Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, name, nickname, active, created_at
		FROM players
		ORDER BY active DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Nickname, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CreatePlayer(ctx context.Context, name, nickname string) (Player, error) {
	name = strings.TrimSpace(name)
	nickname = strings.TrimSpace(nickname)
	if name == "" || nickname == "" {
		return Player{}, ErrEmptyName
	}
	p := Player{Name: name, Nickname: nickname, Active: true, CreatedAt: time.Now().UTC()}
	q := r.rebind(`
		INSERT INTO players (name, nickname, active, created_at)
		VALUES (?, ?, TRUE, ?)
		RETURNING player_id`)
	if err := r.db.QueryRowContext(ctx, q, p.Name, p.Nickname, p.CreatedAt).Scan(&p.ID); err != nil {
		return Player{}, fmt.Errorf("insert player: %w", err)
	}
	return p, nil
}

// SetPlayerActive retires or restores a player. Retired players keep their
// history but leave the leaderboard and the match form.
func (r *Repository) SetPlayerActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, r.rebind("UPDATE players SET active = ? WHERE player_id = ?"), active, id)
	if err != nil {
		return fmt.Errorf("update player %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Games(ctx context.Context) ([]Game, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT game_id, name, category FROM games ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Category); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateGame(ctx context.Context, name, category string) (Game, error) {
	g := Game{Name: strings.TrimSpace(name), Category: strings.TrimSpace(category)}
	if g.Name == "" {
		return Game{}, ErrEmptyName
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Game{}, fmt.Errorf("begin game tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	taken, err := r.exists(ctx, tx, "SELECT 1 FROM games WHERE LOWER(name) = LOWER(?)", g.Name)
	if err != nil {
		return Game{}, err
	}
	if taken {
		return Game{}, fmt.Errorf("%w: game %q", ErrDuplicateName, g.Name)
	}

	q := r.rebind("INSERT INTO games (name, category) VALUES (?, ?) RETURNING game_id")
	if err := tx.QueryRowContext(ctx, q, g.Name, g.Category).Scan(&g.ID); err != nil {
		return Game{}, fmt.Errorf("insert game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Game{}, fmt.Errorf("commit game: %w", err)
	}
	return g, nil
}

// exists runs a single-row lookup and reports whether it matched.
func (r *Repository) exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, r.rebind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	return true, nil
}

// checkReferences makes sure every id in a match points at a stored row.
func (r *Repository) checkReferences(ctx context.Context, tx *sql.Tx, in MatchInput, participants []int64) error {
	ok, err := r.exists(ctx, tx, "SELECT 1 FROM games WHERE game_id = ?", in.GameID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: game %d", ErrUnknownReference, in.GameID)
	}
	for _, pid := range append([]int64{in.HostID}, participants...) {
		ok, err := r.exists(ctx, tx, "SELECT 1 FROM players WHERE player_id = ?", pid)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: player %d", ErrUnknownReference, pid)
		}
	}
	return nil
}

// Validate checks the parts of a match that do not need the database.
func (in MatchInput) Validate() error {
	if len(in.Participants) == 0 {
		return ErrNoParticipants
	}
	if !slices.Contains(in.Participants, in.WinnerID) {
		return ErrWinnerNotParticipant
	}
	if !slices.Contains(WinTypes, in.WinType) {
		return fmt.Errorf("%w: %q", ErrInvalidWinType, in.WinType)
	}
	return nil
}

// RecordMatch writes the game night, the match and every participant in a
// single transaction and returns the match ID.
func (r *Repository) RecordMatch(ctx context.Context, in MatchInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	participants := slices.Clone(in.Participants)
	slices.Sort(participants)
	participants = slices.Compact(participants)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin match tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.checkReferences(ctx, tx, in, participants); err != nil {
		return 0, err
	}

	date := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, time.UTC)

	var sessionID int64
	q := r.rebind("INSERT INTO sessions (date, host_id) VALUES (?, ?) RETURNING session_id")
	if err := tx.QueryRowContext(ctx, q, date, in.HostID).Scan(&sessionID); err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}

	var matchID int64
	q = r.rebind(`
		INSERT INTO matches (session_id, game_id, winner_id, win_type)
		VALUES (?, ?, ?, ?)
		RETURNING match_id`)
	if err := tx.QueryRowContext(ctx, q, sessionID, in.GameID, in.WinnerID, in.WinType).Scan(&matchID); err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}

	q = r.rebind("INSERT INTO match_participants (match_id, player_id, rank) VALUES (?, ?, ?)")
	for _, pid := range participants {
		rank := RankOther
		if pid == in.WinnerID {
			rank = RankWinner
		}
		if _, err := tx.ExecContext(ctx, q, matchID, pid, rank); err != nil {
			return 0, fmt.Errorf("insert participant %d: %w", pid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit match: %w", err)
	}
	return matchID, nil
}

func (r *Repository) RecentMatches(ctx context.Context, limit int) ([]RecentMatch, error) {
	q := r.rebind(`
		SELECT m.match_id, g.name, p.name, m.win_type, s.date
		FROM matches m
		JOIN games g ON m.game_id = g.game_id
		JOIN players p ON m.winner_id = p.player_id
		JOIN sessions s ON m.session_id = s.session_id
		ORDER BY m.match_id DESC
		LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent matches: %w", err)
	}
	defer rows.Close()

	var out []RecentMatch
	for rows.Next() {
		var m RecentMatch
		if err := rows.Scan(&m.ID, &m.Game, &m.Winner, &m.WinType, &m.Date); err != nil {
			return nil, fmt.Errorf("scan recent match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Standings ranks active players by wins, then fewer games played, then name.
func (r *Repository) Standings(ctx context.Context) ([]Standing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.player_id, p.name, p.nickname,
			COUNT(mp.match_id) AS played,
			COALESCE(SUM(CASE WHEN m.winner_id = p.player_id THEN 1 ELSE 0 END), 0) AS wins
		FROM players p
		LEFT JOIN match_participants mp ON mp.player_id = p.player_id
		LEFT JOIN matches m ON m.match_id = mp.match_id
		WHERE p.active = TRUE
		GROUP BY p.player_id, p.name, p.nickname
		ORDER BY wins DESC, played ASC, p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	index := map[int64]int{}
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.PlayerID, &s.Name, &s.Nickname, &s.Played, &s.Wins); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		index[s.PlayerID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}

	last, err := r.lastWins(ctx)
	if err != nil {
		return nil, err
	}
	for pid, at := range last {
		if i, ok := index[pid]; ok {
			out[i].LastWin = &at
		}
	}
	return out, nil
}

// lastWins returns each winner's most recent winning date. Computed in Go
// so the date column keeps its declared type on both dialects.
func (r *Repository) lastWins(ctx context.Context) (map[int64]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.winner_id, s.date
		FROM matches m
		JOIN sessions s ON m.session_id = s.session_id`)
	if err != nil {
		return nil, fmt.Errorf("query last wins: %w", err)
	}
	defer rows.Close()

	out := map[int64]time.Time{}
	for rows.Next() {
		var pid int64
		var at time.Time
		if err := rows.Scan(&pid, &at); err != nil {
			return nil, fmt.Errorf("scan last win: %w", err)
		}
		if cur, ok := out[pid]; !ok || at.After(cur) {
			out[pid] = at
		}
	}
	return out, rows.Err()
}

// PlayerByID returns an active or retired player.
func (r *Repository) PlayerByID(ctx context.Context, id int64) (Player, error) {
	var p Player
	err := r.db.QueryRowContext(ctx, r.rebind(`
		SELECT player_id, name, nickname, active, created_at
		FROM players WHERE player_id = ?`), id).
		Scan(&p.ID, &p.Name, &p.Nickname, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("query player %d: %w", id, err)
	}
	return p, nil
}
