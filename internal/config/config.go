package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	HTTPAddr         string        `env:"HTTP_ADDR"          envDefault:":8080"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT"  envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5m"`

	// Token enables the Telegram bot.
	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	// BotTypingInterval refreshes the typing indicator while a summary runs.
	BotTypingInterval time.Duration `env:"BOT_TYPING_INTERVAL" envDefault:"4s"`
	// LLMAPIKey is the operator credential used by the bot and the CLI. Web
	// requests always bring their own.
	LLMAPIKey string `env:"LLM_API_KEY"`

	LLMBaseURL   string        `env:"LLM_BASE_URL"  envDefault:"https://api.groq.com/openai/v1"`
	LLMModel     string        `env:"LLM_MODEL"     envDefault:"llama3-70b-8192"`
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"60s"`

	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT"        envDefault:"30s"`
	InsecureSkipVerify bool          `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
	YouTubeWatchURL    string        `env:"YOUTUBE_WATCH_URL"    envDefault:"https://www.youtube.com/watch"`

	ChunkSize      int `env:"CHUNK_SIZE"       envDefault:"8000"`
	ChunkOverlap   int `env:"CHUNK_OVERLAP"    envDefault:"200"`
	CombineMaxSize int `env:"COMBINE_MAX_SIZE" envDefault:"12000"`
	MapParallelism int `env:"MAP_PARALLELISM"  envDefault:"4"`

	SummaryCacheSize int           `env:"SUMMARY_CACHE_SIZE" envDefault:"256"`
	SummaryCacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL"  envDefault:"1h"`
}

func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("CHUNK_SIZE must be positive (got %d)", c.ChunkSize)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE) (got %d)", c.ChunkOverlap)
	case c.CombineMaxSize <= 0:
		return fmt.Errorf("COMBINE_MAX_SIZE must be positive (got %d)", c.CombineMaxSize)
	case c.MapParallelism <= 0:
		return fmt.Errorf("MAP_PARALLELISM must be positive (got %d)", c.MapParallelism)
	case c.BotTypingInterval <= 0:
		return fmt.Errorf("BOT_TYPING_INTERVAL must be positive (got %s)", c.BotTypingInterval)
	case c.SummaryCacheSize < 0:
		return fmt.Errorf("SUMMARY_CACHE_SIZE must not be negative (got %d)", c.SummaryCacheSize)
	}

	return nil
}
