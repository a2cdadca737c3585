package encounter

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encounter.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write encounter file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeYAML(t, `answers: ["  Panal ", "PANAL", "Colmena"]
taunts: ["¡Ja!"]
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.ID != "encounter" {
		t.Errorf("Expected ID from file name, got %q", c.ID)
	}
	if c.MonsterMaxHP != DefaultMaxHP {
		t.Errorf("Expected default max hp %d, got %d", DefaultMaxHP, c.MonsterMaxHP)
	}
	if c.FumbleThreshold != DefaultFumbleThreshold {
		t.Errorf("Expected default threshold, got %v", c.FumbleThreshold)
	}
	if c.LogWindow != DefaultLogWindow {
		t.Errorf("Expected default log window, got %d", c.LogWindow)
	}
	if !reflect.DeepEqual(c.Answers, []string{"panal", "colmena"}) {
		t.Errorf("Expected normalized, deduplicated answers, got %q", c.Answers)
	}
	if c.LogFormat.Hit == "" || c.LogFormat.Critical == "" || c.LogFormat.Fumble == "" {
		t.Error("Expected default log formats")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no answers", "taunts: [a]\n", "answer"},
		{"blank answers", "answers: ['  ']\ntaunts: [a]\n", "answer"},
		{"no taunts", "answers: [panal]\n", "taunt"},
		{"threshold", "answers: [panal]\ntaunts: [a]\nfumble_threshold: 1.5\n", "fumble_threshold"},
		{"negative hp", "answers: [panal]\ntaunts: [a]\nmonster_max_hp: -1\n", "monster_max_hp"},
		{"bad yaml", "answers: [panal\n", "parse encounter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeYAML(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadConfig_ShippedEncounters(t *testing.T) {
	tests := []struct {
		file      string
		maxHP     int
		inclusive bool
		answer    string
	}{
		{"orco.yaml", 60, false, "una abeja"},
		{"orco_clasico.yaml", 50, true, "colmena"},
	}
	for _, tt := range tests {
		c, err := LoadConfig(filepath.Join("..", "..", "encounters", tt.file))
		if err != nil {
			t.Fatalf("%s: %v", tt.file, err)
		}
		if c.MonsterMaxHP != tt.maxHP || c.ThresholdInclusive != tt.inclusive {
			t.Errorf("%s: got hp=%d inclusive=%v", tt.file, c.MonsterMaxHP, c.ThresholdInclusive)
		}
		e := New(c, NewRoller(1))
		res, err := e.SubmitAnswer(State{Stage: StageLoot, MonsterMaxHP: c.MonsterMaxHP}, tt.answer)
		if err != nil || !res.Accepted {
			t.Errorf("%s: expected %q accepted, got %+v err=%v", tt.file, tt.answer, res, err)
		}
		if c.Narrative.Button("attack") == "attack" {
			t.Errorf("%s: expected an attack label", tt.file)
		}
		if c.Narrative.SceneryFor(StageLoot) != "treasure" {
			t.Errorf("%s: expected treasure scenery for loot", tt.file)
		}
	}
}

func TestBelowThreshold_FiftyHP(t *testing.T) {
	c := &Config{MonsterMaxHP: 50, Answers: []string{"x"}, Taunts: []string{"y"}}
	if err := c.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !c.belowThreshold(14, 50) || c.belowThreshold(15, 50) {
		t.Error("Expected strict threshold at 15 for 50 hp")
	}
	c.ThresholdInclusive = true
	if !c.belowThreshold(15, 50) {
		t.Error("Expected inclusive threshold to include 15")
	}
}

func TestStateHelpers(t *testing.T) {
	st := State{MonsterHP: -6, MonsterMaxHP: 60, CombatLog: []string{"6", "5", "4", "3", "2", "1"}}
	if st.DisplayHP() != 0 || st.HPPercent() != 0 {
		t.Errorf("Expected clamped display, got %d/%d%%", st.DisplayHP(), st.HPPercent())
	}
	if got := st.RecentLog(5); len(got) != 5 || got[0] != "6" {
		t.Errorf("RecentLog(5) = %v", got)
	}
	c := st.Clone()
	c.CombatLog[0] = "changed"
	if st.CombatLog[0] != "6" {
		t.Error("Clone shares log memory")
	}
	st.MonsterHP = 30
	if st.HPPercent() != 50 {
		t.Errorf("Expected 50%%, got %d", st.HPPercent())
	}
}
