package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("FRIENDWORK_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error without required env vars")
	}
	if !strings.Contains(err.Error(), "TELEGRAM_BOT_TOKEN") || !strings.Contains(err.Error(), "FRIENDWORK_SECRET") {
		t.Fatalf("expected both missing vars to be reported, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("FRIENDWORK_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SheetsTimeout != 15*time.Second {
		t.Fatalf("expected 15s sheets timeout, got %v", cfg.SheetsTimeout)
	}
	if cfg.TelegramInboundRateLimit != 30 || cfg.IntakeRateLimit != 60 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg)
	}
	if cfg.BufferRecentLimit != 20 {
		t.Fatalf("expected buffer limit 20, got %d", cfg.BufferRecentLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("FRIENDWORK_SECRET", "secret")
	t.Setenv("ADMIN_CHAT_ID", "-100200300")
	t.Setenv("SHEETS_TIMEOUT", "30s")
	t.Setenv("TELEGRAM_POLLING_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AdminChatID != -100200300 {
		t.Fatalf("expected admin chat id parsed, got %d", cfg.AdminChatID)
	}
	if cfg.SheetsTimeout != 30*time.Second {
		t.Fatalf("expected 30s sheets timeout, got %v", cfg.SheetsTimeout)
	}
	if !cfg.TelegramPollingEnabled {
		t.Fatalf("expected polling enabled")
	}
}

func TestLoadInvalidAdminChatID(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("FRIENDWORK_SECRET", "secret")
	t.Setenv("ADMIN_CHAT_ID", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed ADMIN_CHAT_ID")
	}
}
