// Package config reads server settings from flags, the environment and an
// optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAdminSecret = "simplemente, juego de caballeros"

type Config struct {
	Port int

	DBDialect   string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresDSN string

	AdminSecret   string
	EncounterFile string
	EncounterSeed int64
	SessionTTL    time.Duration
	TemplateDir   string
	StaticDir     string

	OTelEnabled bool
	LogLevel    slog.Level
	LogFormat   string // "json" or "text"
}

// Load parses args and falls back to environment variables. A .env file in
// the working directory is loaded first when present; existing variables win.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(args)
}

// Parse is Load without the .env file.
func Parse(args []string) (Config, error) {
	var cfg Config
	var ttl, level string

	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DBDialect, "db", "", "Database dialect (sqlite or postgres)")
	fs.StringVar(&cfg.EncounterFile, "encounter", "", "Encounter YAML file")
	fs.Int64Var(&cfg.EncounterSeed, "seed", 0, "Combat RNG seed (0 = random)")
	fs.StringVar(&ttl, "session-ttl", "", "Idle time before a visitor session is dropped")
	fs.StringVar(&level, "log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8080
		}
	}

	if cfg.DBDialect == "" {
		cfg.DBDialect = strings.ToLower(strings.TrimSpace(os.Getenv("DB_DIALECT")))
	}
	if cfg.DBDialect == "" {
		cfg.DBDialect = "sqlite"
	}
	switch cfg.DBDialect {
	case "sqlite":
		cfg.SQLitePath = envOr("DB_SQLITE_PATH", "tmp/leaderboard.sqlite")
	case "postgres":
		cfg.PostgresDSN = postgresDSN()
	default:
		return Config{}, fmt.Errorf("unsupported DB_DIALECT %q", cfg.DBDialect)
	}

	cfg.AdminSecret = envOr("ADMIN_SECRET", DefaultAdminSecret)
	if cfg.EncounterFile == "" {
		cfg.EncounterFile = envOr("ENCOUNTER_FILE", "encounters/orco.yaml")
	}
	if cfg.EncounterSeed == 0 {
		if s := os.Getenv("ENCOUNTER_SEED"); s != "" {
			seed, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return Config{}, errors.New("invalid ENCOUNTER_SEED env variable")
			}
			cfg.EncounterSeed = seed
		}
	}

	if ttl == "" {
		ttl = envOr("SESSION_TTL", "12h")
	}
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		return Config{}, fmt.Errorf("invalid session TTL %q", ttl)
	}
	cfg.SessionTTL = d

	cfg.TemplateDir = envOr("TEMPLATE_DIR", "templates")
	cfg.StaticDir = envOr("STATIC_DIR", "static")

	cfg.OTelEnabled, _ = strconv.ParseBool(os.Getenv("OTEL_ENABLED"))

	if level == "" {
		level = envOr("LOG_LEVEL", "info")
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", level)
	}
	cfg.LogFormat = envOr("LOG_FORMAT", "json")

	return cfg, nil
}

// postgresDSN prefers DB_POSTGRES_DSN, then DATABASE_URL, then the split
// DB_USER/DB_PASSWORD/DB_HOST/DB_PORT/DB_NAME variables.
func postgresDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_POSTGRES_DSN")); dsn != "" {
		return dsn
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(envOr("DB_USER", "admin"), envOr("DB_PASSWORD", "password123")),
		Host:   envOr("DB_HOST", "localhost") + ":" + envOr("DB_PORT", "5432"),
		Path:   "/" + envOr("DB_NAME", "leaderboard_db"),
	}
	return u.String()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
