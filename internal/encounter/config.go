package encounter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults used when an encounter file leaves a field empty.
const (
	DefaultMaxHP           = 60
	DefaultFumbleThreshold = 0.3
	DefaultLogWindow       = 5
)

// Config is one encounter variant: numbers, accepted answers and text.
type Config struct {
	ID                 string    `yaml:"id"`
	MonsterMaxHP       int       `yaml:"monster_max_hp"`
	FumbleThreshold    float64   `yaml:"fumble_threshold"`    // fraction of max HP
	ThresholdInclusive bool      `yaml:"threshold_inclusive"` // false: hp < threshold
	Answers            []string  `yaml:"answers"`
	Taunts             []string  `yaml:"taunts"`
	LogWindow          int       `yaml:"log_window"`
	LogFormat          LogFormat `yaml:"log_format"`
	Narrative          Narrative `yaml:"narrative"`
}

// LogFormat holds combat log templates. {roll}, {damage} and {taunt} are
// substituted.
type LogFormat struct {
	Critical string `yaml:"critical"`
	Fumble   string `yaml:"fumble"`
	Hit      string `yaml:"hit"`
}

// Narrative is the presentation text for each stage.
type Narrative struct {
	Title     string            `yaml:"title"`
	Monster   string            `yaml:"monster"`
	Door      string            `yaml:"door"`
	Reveal    string            `yaml:"reveal"`
	Combat    string            `yaml:"combat"`
	Loot      string            `yaml:"loot"`
	Riddle    string            `yaml:"riddle"`
	Hint      string            `yaml:"hint"`
	Victory   string            `yaml:"victory"`
	Buttons   map[string]string `yaml:"buttons"`
	Scenery   map[string]string `yaml:"scenery"` // stage name -> scenery id
	HPLabel   string            `yaml:"hp_label"`
	LogHeader string            `yaml:"log_header"`
}

var defaultLogFormat = LogFormat{
	Critical: "🔥 CRÍTICO (D20: {roll}) -> {damage} Daño.",
	Fumble:   "💩 PIFIA (D20: {roll}) -> {taunt} {damage} Daño.",
	Hit:      "⚔️ Ataque (D20: {roll}) -> {damage} Daño.",
}

// LoadConfig loads and validates an encounter from a YAML file.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse encounter %s: %w", cleanPath, err)
	}
	if c.ID == "" {
		c.ID = strings.TrimSuffix(filepath.Base(cleanPath), filepath.Ext(cleanPath))
	}
	if err := c.Normalize(); err != nil {
		return nil, fmt.Errorf("encounter %s: %w", c.ID, err)
	}
	return &c, nil
}

// Normalize fills defaults, normalizes the answer set and validates.
func (c *Config) Normalize() error {
	if c.MonsterMaxHP == 0 {
		c.MonsterMaxHP = DefaultMaxHP
	}
	if c.FumbleThreshold == 0 {
		c.FumbleThreshold = DefaultFumbleThreshold
	}
	if c.LogWindow == 0 {
		c.LogWindow = DefaultLogWindow
	}
	if c.LogFormat.Critical == "" {
		c.LogFormat.Critical = defaultLogFormat.Critical
	}
	if c.LogFormat.Fumble == "" {
		c.LogFormat.Fumble = defaultLogFormat.Fumble
	}
	if c.LogFormat.Hit == "" {
		c.LogFormat.Hit = defaultLogFormat.Hit
	}

	if c.MonsterMaxHP < 0 {
		return errors.New("monster_max_hp must be positive")
	}
	if c.FumbleThreshold <= 0 || c.FumbleThreshold > 1 {
		return fmt.Errorf("fumble_threshold %v outside (0, 1]", c.FumbleThreshold)
	}

	answers := make([]string, 0, len(c.Answers))
	seen := map[string]bool{}
	for _, a := range c.Answers {
		n := normalizeAnswer(a)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		answers = append(answers, n)
	}
	if len(answers) == 0 {
		return errors.New("at least one answer is required")
	}
	c.Answers = answers

	if len(c.Taunts) == 0 {
		return errors.New("at least one taunt is required")
	}
	return nil
}

// belowThreshold reports whether hp is under the forced-fumble line.
func (c *Config) belowThreshold(hp, maxHP int) bool {
	line := c.FumbleThreshold * float64(maxHP)
	if c.ThresholdInclusive {
		return float64(hp) <= line
	}
	return float64(hp) < line
}

// Button returns the label for an action, falling back to key.
func (n Narrative) Button(key string) string {
	if v := n.Buttons[key]; v != "" {
		return v
	}
	return key
}

// SceneryFor returns the illustration id for a stage.
func (n Narrative) SceneryFor(s Stage) string {
	if v := n.Scenery[s.String()]; v != "" {
		return v
	}
	return "default"
}
