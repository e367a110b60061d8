package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/chess-hub/internal/domain"
	"github.com/park285/chess-hub/internal/obslog"
)

var ErrStartThreshold = errors.New("TOURNAMENT_START_AT must be at least 2")

type AppConfig struct {
	ListenAddr     string
	WSPath         string
	AllowedOrigins []string

	RedisURL         string
	DatabaseURL      string
	ResultWebhookURL string

	TournamentStartAt int
	TournamentTC      domain.TimeControl

	SendBuffer      int
	MaxMessageBytes int64
	PingInterval    time.Duration

	MessageDir string
	Log        obslog.Options
}

// Load reads an optional .env file and then the environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:        ":8080",
		WSPath:            "/ws",
		TournamentStartAt: 2,
		TournamentTC:      domain.TimeControl{Minutes: 10},
		SendBuffer:        256,
		MaxMessageBytes:   4096,
		PingInterval:      30 * time.Second,
		Log: obslog.Options{
			Level:   "info",
			Format:  "legacy",
			Console: true,
		},
	}

	if v := env("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	if v := env("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := env("WS_PATH"); v != "" {
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		cfg.WSPath = v
	}
	cfg.AllowedOrigins = list(env("ALLOWED_ORIGINS"))

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.ResultWebhookURL = env("RESULT_WEBHOOK_URL")

	if v := env("TOURNAMENT_START_AT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TOURNAMENT_START_AT: %w", err)
		}
		cfg.TournamentStartAt = n
	}
	if cfg.TournamentStartAt < 2 {
		return nil, ErrStartThreshold
	}
	if v := env("TOURNAMENT_MINUTES"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			tc := domain.TimeControl{Minutes: f}
			if tc.Valid() {
				cfg.TournamentTC.Minutes = f
			}
		}
	}
	if v := env("TOURNAMENT_INCREMENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.TournamentTC.Increment = n
		}
	}

	if n := positiveInt("SEND_BUFFER"); n > 0 {
		cfg.SendBuffer = n
	}
	if n := positiveInt("MAX_MESSAGE_BYTES"); n > 0 {
		cfg.MaxMessageBytes = int64(n)
	}
	if n := positiveInt("PING_INTERVAL_SEC"); n > 0 {
		cfg.PingInterval = time.Duration(n) * time.Second
	}

	cfg.MessageDir = env("MESSAGE_DIR")

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	cfg.Log.Console = boolean("LOG_TO_CONSOLE", cfg.Log.Console)
	cfg.Log.ToFile = boolean("LOG_TO_FILE", false)
	cfg.Log.File = env("LOG_FILE")
	cfg.Log.Caller = boolean("LOG_CALLER", false)

	return cfg, nil
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func list(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func positiveInt(key string) int {
	v := env(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func boolean(key string, def bool) bool {
	v := env(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
