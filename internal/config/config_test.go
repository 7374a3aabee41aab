package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
app:
  name: avitohost
  environment: test
telegram:
  bot_token: "123:abc"
avito:
  account_id: 555
  access_token: "token"
  cache_ttl_seconds: 300
database:
  path: data/bot.db
worker:
  enabled: true
  sync_interval_minutes: 30
operators:
  - 111
  - 222
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Telegram.BotToken != "123:abc" || cfg.Avito.AccountID != 555 {
			t.Errorf("cfg = %+v", cfg)
		}
		if len(cfg.Operators) != 2 || cfg.Operators[0] != 111 {
			t.Errorf("operators = %v", cfg.Operators)
		}
		if cfg.Worker.SyncIntervalMinutes != 30 {
			t.Errorf("sync interval = %d", cfg.Worker.SyncIntervalMinutes)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
avito:
  account_id: 555
operators: [111]
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Avito.BaseURL != "https://api.avito.ru" {
			t.Errorf("base url = %q", cfg.Avito.BaseURL)
		}
		if cfg.Worker.SyncIntervalMinutes != 15 || cfg.Worker.SyncWindowMonths != 6 {
			t.Errorf("worker defaults = %+v", cfg.Worker)
		}
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_BOT_TOKEN", "env-token")
		path := writeConfig(t, `
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
avito:
  account_id: 555
operators: [111]
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Telegram.BotToken != "env-token" {
			t.Errorf("token = %q, want value from environment", cfg.Telegram.BotToken)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing config")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Telegram:  TelegramConfig{BotToken: "123:abc"},
			Avito:     AvitoConfig{AccountID: 555},
			Operators: []int64{111},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("placeholder token rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for placeholder token")
		}
	})

	t.Run("missing account id rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Avito.AccountID = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing account id")
		}
	})

	t.Run("empty operators rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Operators = nil
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for empty operators")
		}
	})
}
