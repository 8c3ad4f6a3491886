package config_test

import (
	"log/slog"
	"testing"
	"time"

	"linkgist/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTP address: %q", cfg.HTTPAddr)
	}

	if cfg.LLMBaseURL != "https://api.groq.com/openai/v1" || cfg.LLMModel != "llama3-70b-8192" {
		t.Fatalf("unexpected model defaults: %q %q", cfg.LLMBaseURL, cfg.LLMModel)
	}

	if cfg.ChunkSize != 8000 || cfg.ChunkOverlap != 200 || cfg.MapParallelism != 4 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg)
	}

	if cfg.InsecureSkipVerify {
		t.Fatalf("expected TLS verification to be on by default")
	}

	if cfg.BotTypingInterval != 4*time.Second {
		t.Fatalf("unexpected typing interval: %s", cfg.BotTypingInterval)
	}

	if cfg.ModelTimeout != time.Minute || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected defaults: timeout=%s level=%s", cfg.ModelTimeout, cfg.LogLevel)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ALLOWED_USERS", "1,2")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("INSECURE_SKIP_VERIFY", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if len(cfg.AllowedUsers) != 2 || cfg.AllowedUsers[1] != 2 {
		t.Fatalf("unexpected allowed users: %v", cfg.AllowedUsers)
	}

	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 || !cfg.InsecureSkipVerify {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadConfigRejectsOverlapLargerThanChunk(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	if _, err := config.LoadConfig(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadConfigRejectsNonPositiveTypingInterval(t *testing.T) {
	t.Setenv("BOT_TYPING_INTERVAL", "0s")

	if _, err := config.LoadConfig(); err == nil {
		t.Fatalf("expected validation error")
	}
}
