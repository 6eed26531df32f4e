package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	APIAuthKey  string

	NewsAPIKey      string
	GlassnodeAPIKey string
	GitHubToken     string

	OpenAIAPIKey string
	OpenAIModel  string

	TelegramBotToken string

	AnalyzePollSecs      int
	ProviderTimeoutSecs  int
	CacheTTLSecs         int
	AnalyzeSerializeRuns bool
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIAuthKey:       os.Getenv("API_AUTH_KEY"),
		NewsAPIKey:       os.Getenv("NEWSAPI_API_KEY"),
		GlassnodeAPIKey:  os.Getenv("GLASSNODE_API_KEY"),
		GitHubToken:      os.Getenv("GITHUB_API_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.NewsAPIKey == "" {
		log.Println("Warning: NEWSAPI_API_KEY not set, news collector will use fallback data")
	}
	if cfg.GlassnodeAPIKey == "" {
		log.Println("Warning: GLASSNODE_API_KEY not set, on-chain collector will use fallback data")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, sentiment and signals will use fallback output")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AnalyzePollSecs = 300
	if v := os.Getenv("ANALYZE_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalyzePollSecs = n
		}
	}

	cfg.ProviderTimeoutSecs = 10
	if v := os.Getenv("PROVIDER_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ProviderTimeoutSecs = n
		}
	}

	cfg.CacheTTLSecs = 60
	if v := os.Getenv("CACHE_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTLSecs = n
		}
	}

	cfg.AnalyzeSerializeRuns = strings.EqualFold(strings.TrimSpace(os.Getenv("ANALYZE_SERIALIZE_RUNS")), "true")

	return cfg
}
