package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LISTEN_ADDR", "WS_PATH", "ALLOWED_ORIGINS", "TOURNAMENT_START_AT", "TOURNAMENT_MINUTES", "SEND_BUFFER", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.WSPath != "/ws" || cfg.TournamentStartAt != 2 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.TournamentTC.Minutes != 10 || cfg.TournamentTC.Increment != 0 {
		t.Fatalf("unexpected tournament tc %+v", cfg.TournamentTC)
	}
	if cfg.SendBuffer != 256 || cfg.MaxMessageBytes != 4096 || cfg.PingInterval != 30*time.Second {
		t.Fatalf("unexpected transport defaults %+v", cfg)
	}
	if cfg.AllowedOrigins != nil || !cfg.Log.Console || cfg.Log.Level != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WS_PATH", "socket")
	t.Setenv("ALLOWED_ORIGINS", " example.com , , *.chess.dev ")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TOURNAMENT_START_AT", "4")
	t.Setenv("TOURNAMENT_MINUTES", "3")
	t.Setenv("TOURNAMENT_INCREMENT", "2")
	t.Setenv("SEND_BUFFER", "oops")
	t.Setenv("PING_INTERVAL_SEC", "5")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.WSPath != "/socket" {
		t.Fatalf("unexpected addr/path %q %q", cfg.ListenAddr, cfg.WSPath)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "*.chess.dev" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.RedisURL == "" || cfg.TournamentStartAt != 4 {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.TournamentTC.Minutes != 3 || cfg.TournamentTC.Increment != 2 {
		t.Fatalf("unexpected tournament tc %+v", cfg.TournamentTC)
	}
	if cfg.SendBuffer != 256 {
		t.Fatalf("invalid SEND_BUFFER should fall back, got %d", cfg.SendBuffer)
	}
	if cfg.PingInterval != 5*time.Second || !cfg.Log.ToFile || cfg.Log.Format != "json" {
		t.Fatalf("unexpected %+v", cfg)
	}

	t.Setenv("LISTEN_ADDR", "127.0.0.1:7000")
	cfg, _ = FromEnv()
	if cfg.ListenAddr != "127.0.0.1:7000" {
		t.Fatalf("LISTEN_ADDR should win, got %q", cfg.ListenAddr)
	}
}

func TestStartThreshold(t *testing.T) {
	t.Setenv("TOURNAMENT_START_AT", "1")
	if _, err := FromEnv(); err != ErrStartThreshold {
		t.Fatalf("expected ErrStartThreshold, got %v", err)
	}
	t.Setenv("TOURNAMENT_START_AT", "two")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}
