package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "db", "leaderboard.sqlite"))
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustPlayer(t *testing.T, repo *Repository, name, nick string) Player {
	t.Helper()
	p, err := repo.CreatePlayer(context.Background(), name, nick)
	if err != nil {
		t.Fatalf("CreatePlayer(%s): %v", name, err)
	}
	return p
}

func gameID(t *testing.T, repo *Repository, name string) int64 {
	t.Helper()
	games, err := repo.Games(context.Background())
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	for _, g := range games {
		if g.Name == name {
			return g.ID
		}
	}
	t.Fatalf("game %q not seeded", name)
	return 0
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, DialectPostgres, ""); err == nil || !strings.Contains(err.Error(), "requires DB_POSTGRES_DSN") {
		t.Errorf("Expected postgres DSN error, got %v", err)
	}
	if _, err := Open(ctx, Dialect("bogus"), "x"); err == nil || !strings.Contains(err.Error(), "unsupported DB_DIALECT") {
		t.Errorf("Expected unsupported dialect error, got %v", err)
	}
	if _, err := Open(ctx, DialectSQLite, ""); err == nil {
		t.Error("Expected error for empty sqlite path")
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		repo, err := Open(ctx, DialectSQLite, path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		games, err := repo.Games(ctx)
		if err != nil {
			t.Fatalf("Games: %v", err)
		}
		if len(games) != 3 {
			t.Errorf("Open #%d: expected 3 seeded games, got %d", i, len(games))
		}
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
		_ = repo.Close()
	}
}

func TestRebind(t *testing.T) {
	pg := &Repository{dialect: DialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &Repository{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestPlayers(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreatePlayer(ctx, "  ", "nick"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if _, err := repo.CreatePlayer(ctx, "Ana", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName for missing nickname, got %v", err)
	}

	bruno := mustPlayer(t, repo, "Bruno", "El Ladrón")
	mustPlayer(t, repo, " Ana ", "La Oveja")

	players, err := repo.ActivePlayers(ctx)
	if err != nil {
		t.Fatalf("ActivePlayers: %v", err)
	}
	if len(players) != 2 || players[0].Name != "Ana" || players[1].Nickname != "El Ladrón" {
		t.Fatalf("Unexpected players: %+v", players)
	}
	if !players[0].Active || players[0].CreatedAt.IsZero() {
		t.Errorf("Expected active player with created_at, got %+v", players[0])
	}

	if err := repo.SetPlayerActive(ctx, bruno.ID, false); err != nil {
		t.Fatalf("SetPlayerActive: %v", err)
	}
	players, _ = repo.ActivePlayers(ctx)
	if len(players) != 1 {
		t.Errorf("Expected retired player hidden, got %+v", players)
	}
	roster, err := repo.Players(ctx)
	if err != nil {
		t.Fatalf("Players: %v", err)
	}
	if len(roster) != 2 || roster[0].Name != "Ana" || roster[1].Name != "Bruno" || roster[1].Active {
		t.Errorf("Expected Ana then retired Bruno, got %+v", roster)
	}
	got, err := repo.PlayerByID(ctx, bruno.ID)
	if err != nil {
		t.Fatalf("PlayerByID: %v", err)
	}
	if got.Active {
		t.Error("Expected player to be inactive")
	}
	if err := repo.SetPlayerActive(ctx, 9999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.PlayerByID(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateGame(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	g, err := repo.CreateGame(ctx, "Carcassonne", "Losetas")
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if g.ID == 0 {
		t.Error("Expected generated game ID")
	}
	if _, err := repo.CreateGame(ctx, "", "x"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	for _, name := range []string{"Catan", "Carcassonne", " carcassonne "} {
		if _, err := repo.CreateGame(ctx, name, ""); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("CreateGame(%q): expected ErrDuplicateName, got %v", name, err)
		}
	}
	games, err := repo.Games(ctx)
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(games) != 4 {
		t.Errorf("Expected 3 seeded games plus Carcassonne, got %d", len(games))
	}
}

func TestMatchInputValidate(t *testing.T) {
	tests := []struct {
		name string
		in   MatchInput
		want error
	}{
		{"no participants", MatchInput{WinnerID: 1, WinType: WinNormal}, ErrNoParticipants},
		{"winner missing", MatchInput{WinnerID: 3, WinType: WinNormal, Participants: []int64{1, 2}}, ErrWinnerNotParticipant},
		{"win type", MatchInput{WinnerID: 1, WinType: "Trampa", Participants: []int64{1}}, ErrInvalidWinType},
		{"ok", MatchInput{WinnerID: 1, WinType: WinClutch, Participants: []int64{1, 2}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecordMatchAndViews(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ana := mustPlayer(t, repo, "Ana", "La Oveja")
	bruno := mustPlayer(t, repo, "Bruno", "El Ladrón")
	caro := mustPlayer(t, repo, "Caro", "La Constructora")
	catan := gameID(t, repo, "Catan")
	splendor := gameID(t, repo, "Splendor")

	night1 := time.Date(2026, 1, 9, 21, 30, 0, 0, time.UTC)
	night2 := time.Date(2026, 1, 16, 22, 0, 0, 0, time.UTC)

	first, err := repo.RecordMatch(ctx, MatchInput{
		Date: night1, HostID: ana.ID, GameID: catan, WinnerID: ana.ID, WinType: WinPaliza,
		Participants: []int64{ana.ID, bruno.ID, caro.ID, bruno.ID},
	})
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	second, err := repo.RecordMatch(ctx, MatchInput{
		Date: night2, HostID: bruno.ID, GameID: splendor, WinnerID: ana.ID, WinType: WinNormal,
		Participants: []int64{ana.ID, bruno.ID},
	})
	if err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	if second <= first {
		t.Errorf("Expected increasing match IDs, got %d then %d", first, second)
	}

	recent, err := repo.RecentMatches(ctx, 5)
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(recent))
	}
	if recent[0].Game != "Splendor" || recent[0].Winner != "Ana" || recent[0].WinType != WinNormal {
		t.Errorf("Unexpected newest match %+v", recent[0])
	}
	if y, m, d := recent[1].Date.Date(); y != 2026 || m != time.January || d != 9 {
		t.Errorf("Unexpected date %v", recent[1].Date)
	}

	limited, err := repo.RecentMatches(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Expected limit 1 to return one row, got %d err=%v", len(limited), err)
	}

	standings, err := repo.Standings(ctx)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("Expected 3 standings, got %+v", standings)
	}
	top := standings[0]
	if top.Name != "Ana" || top.Wins != 2 || top.Played != 2 {
		t.Errorf("Unexpected leader %+v", top)
	}
	if top.LastWin == nil || top.LastWin.Day() != 16 {
		t.Errorf("Expected last win on the 16th, got %v", top.LastWin)
	}
	if top.WinRate() != 1 {
		t.Errorf("Expected win rate 1, got %v", top.WinRate())
	}
	// Caro played once, Bruno twice: fewer games ranks first on equal wins.
	if standings[1].Name != "Caro" || standings[2].Name != "Bruno" {
		t.Errorf("Unexpected order %s, %s", standings[1].Name, standings[2].Name)
	}
	if standings[2].LastWin != nil || standings[2].Played != 2 {
		t.Errorf("Unexpected Bruno standing %+v", standings[2])
	}
}

func TestRecordMatch_UnknownReferences(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	ana := mustPlayer(t, repo, "Ana", "La Oveja")
	catan := gameID(t, repo, "Catan")

	tests := []struct {
		name string
		in   MatchInput
	}{
		{"game", MatchInput{HostID: ana.ID, GameID: 4242, WinnerID: ana.ID, Participants: []int64{ana.ID}}},
		{"host", MatchInput{HostID: 4242, GameID: catan, WinnerID: ana.ID, Participants: []int64{ana.ID}}},
		{"participant", MatchInput{HostID: ana.ID, GameID: catan, WinnerID: ana.ID, Participants: []int64{ana.ID, 4242}}},
		{"winner", MatchInput{HostID: ana.ID, GameID: catan, WinnerID: 4242, Participants: []int64{4242}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Date = time.Now()
			tt.in.WinType = WinNormal
			if _, err := repo.RecordMatch(ctx, tt.in); !errors.Is(err, ErrUnknownReference) {
				t.Errorf("Expected ErrUnknownReference, got %v", err)
			}
		})
	}

	var sessions int
	if err := repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&sessions); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessions != 0 {
		t.Errorf("Expected no session rows, found %d", sessions)
	}
}

func TestStandingPrize(t *testing.T) {
	if (Standing{Wins: 4}).PrizeEarned() {
		t.Error("4 wins should not earn the prize")
	}
	if !(Standing{Wins: PrizeWins}).PrizeEarned() {
		t.Error("5 wins should earn the prize")
	}
	if (Standing{}).WinRate() != 0 {
		t.Error("Expected zero win rate with no matches")
	}
}
